package services

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"luabreak/internal/debugger"
	"luabreak/internal/logger"
	"luabreak/pkg/breaktypes"
)

// ConditionEvalError reports an ordinary error raised by a user-supplied
// condition expression. It is recoverable: the caller reports it through the
// normal error channel and continues without entering a break.
type ConditionEvalError struct {
	Expr string
	Err  error
}

func (e *ConditionEvalError) Error() string {
	return fmt.Sprintf("condition expression %q failed: %v", e.Expr, e.Err)
}

func (e *ConditionEvalError) Unwrap() error {
	return e.Err
}

// InvokerService evaluates expressions in the variable scope of the Lua
// frame that called into Go, so the expression can read ambient state
// exactly as if it were written inline at the call site. Evaluation runs
// with breakpoint interception disabled (hidden from the debugger's own
// machinery), and the host's session-abort signal passes through verbatim.
type InvokerService struct {
	initialized bool
}

// NewInvokerService creates a new InvokerService instance.
func NewInvokerService() *InvokerService {
	return &InvokerService{}
}

// Name returns the service name "invoker" for registration.
func (s *InvokerService) Name() string {
	return "invoker"
}

// Initialize sets up the InvokerService for operation.
func (s *InvokerService) Initialize() error {
	s.initialized = true
	logger.ServiceOperation("invoker", "initialize", "service ready")
	return nil
}

// EvalInCallerScope compiles expr and runs it against an environment that
// resolves names through, in order: the extra bindings, the calling Lua
// frame's locals, and the session globals. It returns the expression's
// result values in order; an empty slice means the expression produced
// nothing.
//
// Ordinary Lua errors come back as *ConditionEvalError. The session-abort
// signal (*debugger.QuitError) is returned unwrapped.
func (s *InvokerService) EvalInCallerScope(sess breaktypes.Session, expr string, extra map[string]lua.LValue) ([]lua.LValue, error) {
	if !s.initialized {
		return nil, fmt.Errorf("invoker service not initialized")
	}

	L := sess.LState()

	fn, err := compileExpression(L, expr)
	if err != nil {
		return nil, &ConditionEvalError{Expr: expr, Err: err}
	}

	env := buildScopedEnv(L, extra)
	L.SetFEnv(fn, env)

	results, err := s.callHidden(sess, fn, nil)
	if err != nil {
		if debugger.IsQuit(err) {
			return nil, err
		}
		return nil, &ConditionEvalError{Expr: expr, Err: err}
	}
	return results, nil
}

// CallCondition invokes a Lua function condition with the given input value.
// Function conditions carry their own closure scope, so no environment
// substitution is needed.
func (s *InvokerService) CallCondition(sess breaktypes.Session, fn *lua.LFunction, input lua.LValue) ([]lua.LValue, error) {
	if !s.initialized {
		return nil, fmt.Errorf("invoker service not initialized")
	}

	results, err := s.callHidden(sess, fn, []lua.LValue{input})
	if err != nil {
		if debugger.IsQuit(err) {
			return nil, err
		}
		return nil, &ConditionEvalError{Expr: "<function>", Err: err}
	}
	return results, nil
}

// Truthy coerces an evaluation result to a boolean using the host's standard
// truthiness rules: an empty result is false, otherwise the first value
// decides (nil and false are false, everything else is true).
func Truthy(results []lua.LValue) bool {
	if len(results) == 0 {
		return false
	}
	return lua.LVAsBool(results[0])
}

// callHidden runs fn in a protected call with interception disabled,
// collecting all return values.
func (s *InvokerService) callHidden(sess breaktypes.Session, fn *lua.LFunction, args []lua.LValue) ([]lua.LValue, error) {
	L := sess.LState()

	var results []lua.LValue
	err := sess.Debugger().RunHidden(func() error {
		top := L.GetTop()
		L.Push(fn)
		for _, arg := range args {
			L.Push(arg)
		}
		if err := L.PCall(len(args), lua.MultRet, nil); err != nil {
			return debugger.UnwrapLuaError(err)
		}

		nret := L.GetTop() - top
		if nret <= 0 {
			results = []lua.LValue{}
			return nil
		}
		results = make([]lua.LValue, nret)
		for i := 0; i < nret; i++ {
			results[i] = L.Get(top + i + 1)
		}
		L.Pop(nret)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// compileExpression loads expr as `return <expr>`, falling back to loading
// it as a statement so side-effecting scripts also work.
func compileExpression(L *lua.LState, expr string) (*lua.LFunction, error) {
	fn, err := L.LoadString("return " + expr)
	if err == nil {
		return fn, nil
	}
	fn, stmtErr := L.LoadString(expr)
	if stmtErr != nil {
		return nil, err
	}
	return fn, nil
}

// buildScopedEnv creates the evaluation environment: extra bindings shadow
// the calling Lua frame's locals, which shadow globals. Assignments write
// through to an existing local, otherwise to the globals table.
func buildScopedEnv(L *lua.LState, extra map[string]lua.LValue) *lua.LTable {
	frame, locals, localIdx := snapshotCallerLocals(L)

	env := L.NewTable()
	mt := L.NewTable()

	mt.RawSetString("__index", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(2)
		if v, ok := extra[key]; ok {
			L.Push(v)
			return 1
		}
		if v, ok := locals[key]; ok {
			L.Push(v)
			return 1
		}
		L.Push(L.GetGlobal(key))
		return 1
	}))

	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(2)
		val := L.Get(3)
		if idx, ok := localIdx[key]; ok && frame != nil {
			L.SetLocal(frame, idx, val)
			locals[key] = val
			return 0
		}
		L.SetGlobal(key, val)
		return 0
	}))

	L.SetMetatable(env, mt)
	return env
}

// snapshotCallerLocals captures the locals of the nearest Lua frame on the
// stack. Frames belonging to Go functions (the command bodies themselves)
// are skipped so the scope seen is the script author's.
func snapshotCallerLocals(L *lua.LState) (*lua.Debug, map[string]lua.LValue, map[string]int) {
	locals := make(map[string]lua.LValue)
	localIdx := make(map[string]int)

	frame := findCallerFrame(L)
	if frame == nil {
		return nil, locals, localIdx
	}

	for i := 1; ; i++ {
		name, val := L.GetLocal(frame, i)
		if name == "" {
			break
		}
		// gopher-lua reports compiler temporaries with parenthesized names
		if strings.HasPrefix(name, "(") {
			continue
		}
		locals[name] = val
		localIdx[name] = i
	}
	return frame, locals, localIdx
}

// findCallerFrame walks the call stack for the nearest frame whose function
// is a Lua function rather than a Go one.
func findCallerFrame(L *lua.LState) *lua.Debug {
	for level := 0; level < 32; level++ {
		dbg, ok := L.GetStack(level)
		if !ok {
			return nil
		}
		fnVal, err := L.GetInfo("f", dbg, lua.LNil)
		if err != nil {
			return nil
		}
		fn, ok := fnVal.(*lua.LFunction)
		if !ok {
			continue
		}
		if !fn.IsG {
			return dbg
		}
	}
	return nil
}
