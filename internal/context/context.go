// Package context provides per-session state management for luabreak.
// Each script session owns exactly one SessionContext; state is never shared
// across sessions. The context carries the reentrancy guard used by the
// conditional breakpoint trigger.
package context

import (
	"sync"

	"github.com/google/uuid"
)

// SessionContext maintains the state of one script session: identity,
// interactivity, test mode, and the breakpoint trigger's reentrancy guard.
//
// A session executes on a single logical thread, so the guard itself needs
// no locking for correctness; the mutex exists because tests and the
// suspended inspection prompt may read state while the session is parked.
type SessionContext struct {
	mu sync.RWMutex

	id          string
	interactive bool
	testMode    bool

	// conditionMet is the reentrancy guard. It is true only for the
	// synchronous window between "condition evaluated true" and "sentinel
	// invocation returned", and is reset on every exit path.
	conditionMet bool
}

// Option configures a SessionContext.
type Option func(*SessionContext)

// WithInteractive marks the session as interactive (a human is attached).
func WithInteractive(interactive bool) Option {
	return func(c *SessionContext) {
		c.interactive = interactive
	}
}

// WithTestMode enables deterministic test mode.
func WithTestMode(testMode bool) Option {
	return func(c *SessionContext) {
		c.testMode = testMode
	}
}

// New creates a SessionContext with a fresh session ID.
func New(opts ...Option) *SessionContext {
	ctx := &SessionContext{
		id: uuid.New().String(),
	}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx
}

// ID returns the session's unique identifier.
func (c *SessionContext) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// IsInteractive reports whether the session has a human attached.
func (c *SessionContext) IsInteractive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.interactive
}

// IsTestMode reports whether the session runs in deterministic test mode.
func (c *SessionContext) IsTestMode() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.testMode
}

// SetTestMode sets deterministic test mode.
func (c *SessionContext) SetTestMode(testMode bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.testMode = testMode
}

// ConditionMet returns the reentrancy guard value.
func (c *SessionContext) ConditionMet() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conditionMet
}

// SetConditionMet sets the reentrancy guard value.
func (c *SessionContext) SetConditionMet(met bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conditionMet = met
}
