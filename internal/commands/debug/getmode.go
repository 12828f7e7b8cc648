package debug

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"luabreak/internal/commands"
	"luabreak/internal/services"
	"luabreak/pkg/breaktypes"
)

// GetModeCommand implements debug.getmode(), which enumerates the
// debugger-visibility bits of loaded commands.
type GetModeCommand struct{}

// Name returns the command name "getmode".
func (c *GetModeCommand) Name() string {
	return "getmode"
}

// Module returns the module name "debug".
func (c *GetModeCommand) Module() string {
	return "debug"
}

// Exported reports that the command is part of the debug module's exports.
func (c *GetModeCommand) Exported() bool {
	return true
}

// Description returns a brief description of the getmode command.
func (c *GetModeCommand) Description() string {
	return "List per-command debugger-visibility settings"
}

// Usage returns the syntax for the getmode command.
func (c *GetModeCommand) Usage() string {
	return "debug.getmode([pattern[, module]]) -> {{name=, hidden=, step=}, ...}"
}

// HelpInfo returns structured help information for the getmode command.
func (c *GetModeCommand) HelpInfo() breaktypes.HelpInfo {
	return breaktypes.HelpInfo{
		Command:     commands.FullName(c),
		Description: c.Description(),
		Usage:       c.Usage(),
		Options: []breaktypes.HelpOption{
			{
				Name:        "pattern",
				Description: "Glob pattern over command names",
				Type:        "string",
				Default:     "*",
			},
			{
				Name:        "module",
				Description: "Restrict to a module's exported commands",
				Type:        "string",
			},
		},
		Examples: []breaktypes.HelpExample{
			{
				Command:     `debug.getmode("*", "debug")`,
				Description: "List the debug module's exported commands and their mode bits",
			},
		},
		Notes: []string{
			"With a module filter, private helpers are never reported",
		},
	}
}

// LuaFunc returns the getmode body bound to sess.
func (c *GetModeCommand) LuaFunc(_ breaktypes.Session) lua.LGFunction {
	return func(L *lua.LState) int {
		pattern := L.OptString(1, "*")
		module := L.OptString(2, "")

		svc, err := debugModeService()
		if err != nil {
			L.RaiseError("%v", err)
		}

		entries, err := svc.Get(pattern, module)
		if err != nil {
			L.RaiseError("%v", err)
		}

		result := L.NewTable()
		for _, entry := range entries {
			row := L.NewTable()
			row.RawSetString("name", lua.LString(entry.Name))
			row.RawSetString("hidden", lua.LBool(entry.HiddenFromDebugger))
			row.RawSetString("step", lua.LBool(entry.StepThrough))
			result.Append(row)
		}
		L.Push(result)
		return 1
	}
}

func debugModeService() (*services.DebugModeService, error) {
	svc, err := services.GetGlobalRegistry().GetService("debugmode")
	if err != nil {
		return nil, fmt.Errorf("debugmode service not available: %w", err)
	}
	modeSvc, ok := svc.(*services.DebugModeService)
	if !ok {
		return nil, fmt.Errorf("debugmode service has unexpected type")
	}
	return modeSvc, nil
}

func init() {
	if err := commands.GlobalRegistry.Register(&GetModeCommand{}); err != nil {
		panic(fmt.Sprintf("failed to register getmode command: %v", err))
	}
}
