package debugger

import (
	lua "github.com/yuin/gopher-lua"
)

// The session-abort signal has to cross Lua stack frames without losing its
// Go identity. RaiseAbort smuggles the *QuitError through a Lua error whose
// value is a userdata, and UnwrapLuaError recovers it verbatim on the Go
// side of a protected call.

// RaiseAbort raises the abort signal as a Lua error on L. It does not
// return; gopher-lua unwinds to the nearest protected call.
func RaiseAbort(L *lua.LState, quit *QuitError) {
	ud := L.NewUserData()
	ud.Value = quit
	L.Error(ud, 0)
}

// UnwrapLuaError maps a gopher-lua error back to the component taxonomy: a
// smuggled *QuitError is returned verbatim, anything else is returned
// unchanged as an ordinary evaluation error.
func UnwrapLuaError(err error) error {
	if err == nil {
		return nil
	}
	apiErr, ok := err.(*lua.ApiError)
	if !ok {
		return err
	}
	if ud, ok := apiErr.Object.(*lua.LUserData); ok {
		if quit, ok := ud.Value.(*QuitError); ok {
			return quit
		}
	}
	return err
}
