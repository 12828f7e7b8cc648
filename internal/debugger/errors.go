// Package debugger implements the host debugger facade for luabreak
// sessions: breakpoint registration, removal notification, and cooperative
// suspension at an interactive inspection prompt.
package debugger

import (
	"errors"
	"fmt"
)

// QuitError is the distinguished session-abort signal. It is raised when the
// user quits a debugging session from the inspection prompt and must
// propagate out of every frame of this component unwrapped; callers upstream
// rely on catching this exact type to end the session cleanly.
type QuitError struct {
	Reason string
}

func (e *QuitError) Error() string {
	if e.Reason == "" {
		return "debugging session terminated"
	}
	return fmt.Sprintf("debugging session terminated: %s", e.Reason)
}

// IsQuit reports whether err is (or wraps) the session-abort signal.
func IsQuit(err error) bool {
	var quit *QuitError
	return errors.As(err, &quit)
}

// ResourceBusyError signals an attempt to register or trigger a break while
// the session is already suspended. Terminating for that call.
type ResourceBusyError struct {
	Operation string
}

func (e *ResourceBusyError) Error() string {
	return fmt.Sprintf("%s: session is already suspended at a breakpoint", e.Operation)
}

// NotFoundError signals that a required breakpoint or module is missing.
// Terminating for that call.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// ContractViolationError signals that the host debugger returned an object of
// unexpected shape. Terminating, since it means this component's assumptions
// about the host no longer hold.
type ContractViolationError struct {
	Detail string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("host debugger contract violation: %s", e.Detail)
}
