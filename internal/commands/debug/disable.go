package debug

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"luabreak/internal/commands"
	"luabreak/pkg/breaktypes"
)

// DisableCommand implements debug.disable(), which turns the session's
// proxy breakpoint off, making every breakpoint() call a no-op.
type DisableCommand struct{}

// Name returns the command name "disable".
func (c *DisableCommand) Name() string {
	return "disable"
}

// Module returns the module name "debug".
func (c *DisableCommand) Module() string {
	return "debug"
}

// Exported reports that the command is part of the debug module's exports.
func (c *DisableCommand) Exported() bool {
	return true
}

// Description returns a brief description of the disable command.
func (c *DisableCommand) Description() string {
	return "Disable the conditional breakpoint trigger"
}

// Usage returns the syntax for the disable command.
func (c *DisableCommand) Usage() string {
	return "debug.disable()"
}

// HelpInfo returns structured help information for the disable command.
func (c *DisableCommand) HelpInfo() breaktypes.HelpInfo {
	return breaktypes.HelpInfo{
		Command:     commands.FullName(c),
		Description: c.Description(),
		Usage:       c.Usage(),
		Notes: []string{
			"breakpoint() returns its input unchanged while disabled, with zero sentinel invocations",
		},
	}
}

// LuaFunc returns the disable body bound to sess.
func (c *DisableCommand) LuaFunc(sess breaktypes.Session) lua.LGFunction {
	return func(L *lua.LState) int {
		if err := toggleProxy(sess, false); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}
}

func init() {
	if err := commands.GlobalRegistry.Register(&DisableCommand{}); err != nil {
		panic(fmt.Sprintf("failed to register disable command: %v", err))
	}
}
