// Package breaktypes defines debugger-facing types for luabreak.
// This file contains the breakpoint and debug-mode types shared between the
// host debugger facade, the proxy breakpoint machinery, and the debug-mode
// toggler commands.
package breaktypes

// SentinelCommandName is the fixed command identity the proxy breakpoint is
// bound to. The trigger command doubles as its own sentinel: once a
// condition holds it re-invokes itself under the reentrancy guard, and the
// guarded re-entry performs no work beyond being intercepted and suspended.
const SentinelCommandName = "debug.breakpoint"

// PipelineAlias is the variable name under which a trigger invocation's
// input value is visible to its condition expression.
const PipelineAlias = "it"

// BreakpointInfo is the host debugger's description of a breakpoint handle.
type BreakpointInfo struct {
	ID      string
	Command string
	Enabled bool
}

// CommandDebugMode holds the per-command debugger visibility bits. The
// authoritative value lives in the command registry's metadata; callers must
// not cache it beyond a single get/set operation.
type CommandDebugMode struct {
	HiddenFromDebugger bool
	StepThrough        bool
}

// DebugModeEntry is one row of a debug.getmode result.
type DebugModeEntry struct {
	Name               string
	HiddenFromDebugger bool
	StepThrough        bool
}
