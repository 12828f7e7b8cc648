// Package breaktypes defines core architectural interfaces for luabreak.
// This file contains the fundamental interfaces that define the system's
// structure: session state access, the host debugger facade, and service
// registration.
package breaktypes

import (
	"io"

	lua "github.com/yuin/gopher-lua"
)

// Session provides access to one script session's state: its Lua state,
// its debugger, its reentrancy guard, and its interactive output writer.
// A session executes on a single logical thread; the hosting engine never
// runs two commands of the same session concurrently.
type Session interface {
	ID() string
	LState() *lua.LState
	Debugger() Debugger

	// Reentrancy guard. True only for the synchronous window between
	// "condition evaluated true" and "sentinel invocation returned".
	ConditionMet() bool
	SetConditionMet(met bool)

	// Interactive output. Writer returns the session's interactive writer;
	// Printf writes formatted output to it.
	Writer() io.Writer
	Printf(format string, args ...interface{})

	IsInteractive() bool
	IsTestMode() bool
}

// BreakpointAction is invoked when a command bound to a breakpoint is
// intercepted. Returning true requests an actual suspension of the session.
type BreakpointAction func() (breakRequested bool, err error)

// Debugger is the host debugger facade: the hosting engine's breakpoint and
// suspension API as consumed by the proxy breakpoint machinery. Handles are
// opaque breakpoint IDs.
type Debugger interface {
	RegisterBreakpoint(commandName string, action BreakpointAction) (string, error)
	EnableBreakpoint(id string) error
	DisableBreakpoint(id string) error
	RemoveBreakpoint(id string) error
	QueryBreakpoint(id string) (enabled bool, exists bool)

	// SubscribeRemoved registers a callback fired synchronously whenever a
	// breakpoint is removed, and returns a subscription ID for later
	// unsubscription.
	SubscribeRemoved(fn func(bp BreakpointInfo)) string
	UnsubscribeRemoved(subID string)

	// Suspended reports whether the session is currently stopped at the
	// interactive inspection prompt.
	Suspended() bool

	// RunHidden executes fn with breakpoint interception disabled, keeping
	// the frames fn creates invisible to stepping and interception.
	RunHidden(fn func() error) error

	// BreaksRequested counts actual suspensions requested since session
	// start. Exposed as debugger statistics.
	BreaksRequested() int64
}

// Service defines the interface for luabreak services that provide specific
// functionality. Services are initialized at startup and accessed by
// commands during execution.
type Service interface {
	Name() string
	Initialize() error
}

// ServiceRegistry manages the registration and retrieval of services.
type ServiceRegistry interface {
	GetService(name string) (Service, error)
	RegisterService(service Service) error
}
