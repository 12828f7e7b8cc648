package debug

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"luabreak/internal/commands"
	"luabreak/pkg/breaktypes"
)

// SetModeCommand implements debug.setmode(), which applies
// debugger-visibility bits to matching commands. Omitting a bit resets it
// to false: the bits are binary mode switches with no "leave unchanged"
// state.
type SetModeCommand struct{}

// Name returns the command name "setmode".
func (c *SetModeCommand) Name() string {
	return "setmode"
}

// Module returns the module name "debug".
func (c *SetModeCommand) Module() string {
	return "debug"
}

// Exported reports that the command is part of the debug module's exports.
func (c *SetModeCommand) Exported() bool {
	return true
}

// Description returns a brief description of the setmode command.
func (c *SetModeCommand) Description() string {
	return "Set per-command debugger-visibility settings"
}

// Usage returns the syntax for the setmode command.
func (c *SetModeCommand) Usage() string {
	return `debug.setmode{pattern=, module=, hidden=, step=, confirm=}`
}

// HelpInfo returns structured help information for the setmode command.
func (c *SetModeCommand) HelpInfo() breaktypes.HelpInfo {
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
			{
				Name:        "hidden",
				Description: "Hide matching commands from the debugger",
				Type:        "bool",
				Default:     "false",
			},
			{
				Name:        "step",
				Description: "Step into matching commands",
				Type:        "bool",
				Default:     "false",
			},
			{
				Name:        "confirm",
				Description: "Report intended changes without applying them",
				Type:        "bool",
				Default:     "false",
			},
		},
		Examples: []breaktypes.HelpExample{
			{
				Command:     `debug.setmode{pattern="get*", module="debug", hidden=true}`,
				Description: "Hide the debug module's get* commands from the debugger",
			},
			{
				Command:     `debug.setmode{pattern="*", confirm=true}`,
				Description: "Dry-run: report what would change without applying",
			},
		},
		Notes: []string{
			"A metadata error aborts the whole call before any change is applied",
		},
	}
}

// LuaFunc returns the setmode body bound to sess.
func (c *SetModeCommand) LuaFunc(sess breaktypes.Session) lua.LGFunction {
	return func(L *lua.LState) int {
		opts := L.CheckTable(1)

		pattern := stringField(opts, "pattern", "*")
		module := stringField(opts, "module", "")
		mode := breaktypes.CommandDebugMode{
			HiddenFromDebugger: boolField(opts, "hidden"),
			StepThrough:        boolField(opts, "step"),
		}
		confirm := boolField(opts, "confirm")

		svc, err := debugModeService()
		if err != nil {
			L.RaiseError("%v", err)
		}

		report := func(name string, mode breaktypes.CommandDebugMode) {
			if confirm {
				sess.Printf("would set %s: hidden=%t step=%t\n", name, mode.HiddenFromDebugger, mode.StepThrough)
			}
		}
		if err := svc.Set(pattern, module, mode, confirm, report); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}
}

func stringField(tbl *lua.LTable, key string, def string) string {
	if v, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(v)
	}
	return def
}

func boolField(tbl *lua.LTable, key string) bool {
	if v, ok := tbl.RawGetString(key).(lua.LBool); ok {
		return bool(v)
	}
	return false
}

func init() {
	if err := commands.GlobalRegistry.Register(&SetModeCommand{}); err != nil {
		panic(fmt.Sprintf("failed to register setmode command: %v", err))
	}
}
