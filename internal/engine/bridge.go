package engine

import (
	lua "github.com/yuin/gopher-lua"

	"luabreak/internal/commands"
	"luabreak/internal/debugger"
)

// installCommands binds every registered command into the session's Lua
// state under its module table, wrapping each body with breakpoint
// interception. The trigger additionally gets a top-level alias so call
// sites can write breakpoint(...) directly.
func installCommands(s *Session) error {
	modules := make(map[string]*lua.LTable)

	for _, cmd := range commands.GlobalRegistry.GetAll() {
		fullName := commands.FullName(cmd)
		fn := s.L.NewFunction(s.wrap(fullName, cmd.LuaFunc(s)))

		if cmd.Module() == "" {
			s.L.SetGlobal(cmd.Name(), fn)
			continue
		}

		tbl, ok := modules[cmd.Module()]
		if !ok {
			tbl = s.L.NewTable()
			modules[cmd.Module()] = tbl
			s.L.SetGlobal(cmd.Module(), tbl)
		}
		tbl.RawSetString(cmd.Name(), fn)
	}

	if dbgTbl, ok := modules["debug"]; ok {
		if fn, ok := dbgTbl.RawGetString("breakpoint").(*lua.LFunction); ok {
			s.L.SetGlobal("breakpoint", fn)
		}
	}
	return nil
}

// wrap routes a command invocation through breakpoint interception before
// running its body. Commands marked hidden from the debugger skip
// interception entirely.
func (s *Session) wrap(fullName string, body lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		mode, ok := commands.GlobalRegistry.DebugMode(fullName)
		if !ok || !mode.HiddenFromDebugger {
			if err := s.dbg.Intercept(fullName); err != nil {
				if quit := quitOf(err); quit != nil {
					debugger.RaiseAbort(L, quit)
				}
				L.RaiseError("%v", err)
			}
		}
		return body(L)
	}
}
