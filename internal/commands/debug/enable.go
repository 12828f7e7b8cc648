package debug

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"luabreak/internal/commands"
	"luabreak/internal/debugger"
	"luabreak/pkg/breaktypes"
)

// EnableCommand implements debug.enable(), which turns the session's proxy
// breakpoint on so breakpoint() calls become live.
type EnableCommand struct{}

// Name returns the command name "enable".
func (c *EnableCommand) Name() string {
	return "enable"
}

// Module returns the module name "debug".
func (c *EnableCommand) Module() string {
	return "debug"
}

// Exported reports that the command is part of the debug module's exports.
func (c *EnableCommand) Exported() bool {
	return true
}

// Description returns a brief description of the enable command.
func (c *EnableCommand) Description() string {
	return "Enable the conditional breakpoint trigger"
}

// Usage returns the syntax for the enable command.
func (c *EnableCommand) Usage() string {
	return "debug.enable()"
}

// HelpInfo returns structured help information for the enable command.
func (c *EnableCommand) HelpInfo() breaktypes.HelpInfo {
	return breaktypes.HelpInfo{
		Command:     commands.FullName(c),
		Description: c.Description(),
		Usage:       c.Usage(),
		Notes: []string{
			"Non-interactive sessions start with the trigger disabled",
		},
	}
}

// LuaFunc returns the enable body bound to sess.
func (c *EnableCommand) LuaFunc(sess breaktypes.Session) lua.LGFunction {
	return func(L *lua.LState) int {
		if err := toggleProxy(sess, true); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}
}

// toggleProxy flips the session's proxy breakpoint. A session without a
// manager attached has no breakpoint to toggle.
func toggleProxy(sess breaktypes.Session, enable bool) error {
	mgr := proxyManagerFor(sess)
	if mgr == nil {
		return &debugger.NotFoundError{Kind: "breakpoint", Name: breaktypes.SentinelCommandName}
	}
	if enable {
		return mgr.Enable()
	}
	return mgr.Disable()
}

func init() {
	if err := commands.GlobalRegistry.Register(&EnableCommand{}); err != nil {
		panic(fmt.Sprintf("failed to register enable command: %v", err))
	}
}
