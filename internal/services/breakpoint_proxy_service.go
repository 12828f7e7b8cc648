package services

import (
	"fmt"
	"sync"

	"luabreak/internal/debugger"
	"luabreak/internal/logger"
	"luabreak/pkg/breaktypes"
)

// BreakpointProxyService owns the proxy breakpoint of every attached
// session. Each session gets an independent ProxyManager; state is never
// shared across sessions.
type BreakpointProxyService struct {
	initialized bool

	mu       sync.RWMutex
	managers map[string]*ProxyManager
}

// NewBreakpointProxyService creates a new BreakpointProxyService instance.
func NewBreakpointProxyService() *BreakpointProxyService {
	return &BreakpointProxyService{
		managers: make(map[string]*ProxyManager),
	}
}

// Name returns the service name "breakpoint_proxy" for registration.
func (s *BreakpointProxyService) Name() string {
	return "breakpoint_proxy"
}

// Initialize sets up the BreakpointProxyService for operation.
func (s *BreakpointProxyService) Initialize() error {
	s.initialized = true
	logger.ServiceOperation("breakpoint_proxy", "initialize", "service ready")
	return nil
}

// Attach creates the session's proxy breakpoint and subscribes to removal
// events (the session load hook). Non-interactive sessions start with the
// proxy breakpoint disabled so the trigger is a zero-cost statement.
func (s *BreakpointProxyService) Attach(sess breaktypes.Session) (*ProxyManager, error) {
	if !s.initialized {
		return nil, fmt.Errorf("breakpoint proxy service not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.managers[sess.ID()]; exists {
		return nil, fmt.Errorf("session %s already has a proxy breakpoint manager", sess.ID())
	}

	m := newProxyManager(sess)
	if err := m.Create(); err != nil {
		return nil, err
	}
	m.subID = sess.Debugger().SubscribeRemoved(m.onRemoved)

	if !sess.IsInteractive() {
		if err := m.Disable(); err != nil {
			return nil, err
		}
	}

	s.managers[sess.ID()] = m
	return m, nil
}

// Detach removes the session's proxy breakpoint and drops the removal
// subscription (the session unload hook).
func (s *BreakpointProxyService) Detach(sess breaktypes.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, exists := s.managers[sess.ID()]
	if !exists {
		return nil
	}
	delete(s.managers, sess.ID())
	return m.Teardown()
}

// ManagerFor returns the session's proxy breakpoint manager, or nil if the
// session has none attached.
func (s *BreakpointProxyService) ManagerFor(sess breaktypes.Session) *ProxyManager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.managers[sess.ID()]
}

// ProxyManager guarantees that one breakpoint bound to the sentinel command
// exists for the lifetime of its session, self-healing if the breakpoint is
// removed externally. At most one live proxy breakpoint exists per session
// at any time; absence is a state to repair, not a terminal condition.
type ProxyManager struct {
	mu     sync.Mutex
	sess   breaktypes.Session
	handle string
	subID  string

	// tearingDown suppresses reconciliation for the manager's own removal.
	tearingDown bool
}

func newProxyManager(sess breaktypes.Session) *ProxyManager {
	return &ProxyManager{
		sess: sess,
	}
}

// Create registers the sentinel breakpoint. Its action requests a host
// break if and only if the session's reentrancy guard is set, so the
// sentinel stays cheap to call otherwise. A failed registration is a
// terminating error: it signals a structural precondition violation (for
// example, registering while already inside a break) and is not retried.
func (m *ProxyManager) Create() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked()
}

func (m *ProxyManager) createLocked() error {
	sess := m.sess
	handle, err := sess.Debugger().RegisterBreakpoint(breaktypes.SentinelCommandName, func() (bool, error) {
		return sess.ConditionMet(), nil
	})
	if err != nil {
		return fmt.Errorf("failed to create proxy breakpoint: %w", err)
	}
	if handle == "" {
		return &debugger.ContractViolationError{Detail: "RegisterBreakpoint returned an empty handle"}
	}
	if _, exists := sess.Debugger().QueryBreakpoint(handle); !exists {
		return &debugger.ContractViolationError{Detail: fmt.Sprintf("breakpoint %s not queryable after registration", handle)}
	}

	m.handle = handle
	logger.BreakpointOperation("proxy-create", handle, breaktypes.SentinelCommandName)
	return nil
}

// onRemoved reconciles external removal of the proxy breakpoint: if the
// removed breakpoint is the managed one, it is recreated with the previous
// enabled state restored, making the breakpoint appear permanent even
// though the host allows ad-hoc removal.
func (m *ProxyManager) onRemoved(info breaktypes.BreakpointInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tearingDown || info.ID != m.handle {
		return
	}

	logger.Warn("proxy breakpoint was removed externally; recreating",
		"breakpoint", info.ID, "command", info.Command)

	if err := m.createLocked(); err != nil {
		logger.Error("failed to recreate proxy breakpoint", "error", err)
		return
	}
	if !info.Enabled {
		if err := m.sess.Debugger().DisableBreakpoint(m.handle); err != nil {
			logger.Error("failed to restore proxy breakpoint state", "error", err)
		}
	}
}

// Enable turns the proxy breakpoint on.
func (m *ProxyManager) Enable() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.Debugger().EnableBreakpoint(m.handle)
}

// Disable turns the proxy breakpoint off.
func (m *ProxyManager) Disable() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.Debugger().DisableBreakpoint(m.handle)
}

// Active reports whether the proxy breakpoint currently exists and is
// enabled.
func (m *ProxyManager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	enabled, exists := m.sess.Debugger().QueryBreakpoint(m.handle)
	return enabled && exists
}

// Handle returns the current breakpoint handle.
func (m *ProxyManager) Handle() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// Teardown unsubscribes from removal events and removes the proxy
// breakpoint.
func (m *ProxyManager) Teardown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tearingDown = true
	m.sess.Debugger().UnsubscribeRemoved(m.subID)
	if m.handle == "" {
		return nil
	}
	if _, exists := m.sess.Debugger().QueryBreakpoint(m.handle); !exists {
		return nil
	}
	return m.sess.Debugger().RemoveBreakpoint(m.handle)
}
