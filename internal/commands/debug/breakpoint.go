// Package debug implements the script-visible debugging commands of
// luabreak: the conditional breakpoint trigger, the trigger enable/disable
// switches, and the per-command debug-mode toggler.
package debug

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	lua "github.com/yuin/gopher-lua"

	"luabreak/internal/commands"
	"luabreak/internal/debugger"
	"luabreak/internal/logger"
	"luabreak/internal/services"
	"luabreak/pkg/breaktypes"
)

var breakPrefixStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

// BreakpointCommand implements breakpoint(), the conditional breakpoint
// trigger. It is a pure pass-through of its optional input value; its only
// other effect is possibly suspending the session.
//
// The host's breakpoint mechanism can only bind to a fixed command
// identity, so the trigger uses a two-call indirection: the outer call
// evaluates the condition in the caller's scope, and on success re-invokes
// its own command identity (the sentinel), which the proxy breakpoint
// intercepts and suspends. The session's reentrancy guard distinguishes
// the inner re-entry from the outer call and stops the recursion there.
type BreakpointCommand struct{}

// Name returns the command name "breakpoint".
func (c *BreakpointCommand) Name() string {
	return "breakpoint"
}

// Module returns the module name "debug".
func (c *BreakpointCommand) Module() string {
	return "debug"
}

// Exported reports that the trigger is part of the debug module's exports.
func (c *BreakpointCommand) Exported() bool {
	return true
}

// Description returns a brief description of the breakpoint command.
func (c *BreakpointCommand) Description() string {
	return "Break into the debugger when a condition holds"
}

// Usage returns the syntax for the breakpoint command.
func (c *BreakpointCommand) Usage() string {
	return "breakpoint([condition[, message[, value]]]) -> value"
}

// HelpInfo returns structured help information for the breakpoint command.
func (c *BreakpointCommand) HelpInfo() breaktypes.HelpInfo {
	return breaktypes.HelpInfo{
		Command:     commands.FullName(c),
		Description: c.Description(),
		Usage:       c.Usage(),
		Options: []breaktypes.HelpOption{
			{
				Name:        "condition",
				Description: "Expression string or function evaluated in the caller's scope; default always true",
				Type:        "string|function",
				Default:     "true",
			},
			{
				Name:        "message",
				Description: "Message emitted to interactive output before suspending",
				Type:        "string",
			},
			{
				Name:        "value",
				Description: "Value passed through unchanged; visible to the condition as 'it'",
				Type:        "any",
			},
		},
		Examples: []breaktypes.HelpExample{
			{
				Command:     `breakpoint()`,
				Description: "Unconditional break at this call site",
			},
			{
				Command:     `breakpoint("x > 10", "x overflow")`,
				Description: "Break with a message once x exceeds 10",
			},
			{
				Command:     `for _, v in ipairs(items) do process(breakpoint("it.id == 7", nil, v)) end`,
				Description: "Inspect the pipeline item with id 7, passing every item through",
			},
		},
		Notes: []string{
			"A no-op when the proxy breakpoint is absent or disabled (see debug.enable/debug.disable)",
			"Condition errors are reported and execution continues without a break",
		},
	}
}

// LuaFunc returns the trigger body bound to sess.
func (c *BreakpointCommand) LuaFunc(sess breaktypes.Session) lua.LGFunction {
	return func(L *lua.LState) int {
		// Capture the bound arguments up front so the sentinel re-invocation
		// can faithfully re-issue the identical call.
		nargs := L.GetTop()
		args := make([]lua.LValue, nargs)
		for i := 0; i < nargs; i++ {
			args[i] = L.Get(i + 1)
		}

		cond := L.Get(1)
		message := L.Get(2)
		input := L.Get(3)

		passThrough := func() int {
			L.Push(input)
			return 1
		}

		// Absent or disabled proxy breakpoint: the whole feature is a
		// zero-cost statement.
		mgr := proxyManagerFor(sess)
		if mgr == nil || !mgr.Active() {
			return passThrough()
		}

		// Inner re-entry: the sentinel call below re-enters this same
		// command under interception. The guard stops it from
		// re-evaluating the condition or re-triggering itself.
		if sess.ConditionMet() {
			return passThrough()
		}

		met, err := evaluateCondition(sess, cond, input)
		if err != nil {
			if quit := asQuit(err); quit != nil {
				debugger.RaiseAbort(L, quit)
			}
			reportConditionError(sess, err)
			return passThrough()
		}
		if !met {
			return passThrough()
		}

		if msg, ok := message.(lua.LString); ok && msg != "" {
			sess.Printf("%s %s\n", breakPrefixStyle.Render("● break:"), string(msg))
		}

		if err := invokeSentinel(L, sess, args); err != nil {
			if quit := asQuit(err); quit != nil {
				debugger.RaiseAbort(L, quit)
			}
			L.RaiseError("%v", err)
		}

		return passThrough()
	}
}

// evaluateCondition applies the trigger's condition semantics: nil means
// always true, a function is called with the input value, and a string is
// evaluated in the caller's scope with the input bound to the pipeline
// alias.
func evaluateCondition(sess breaktypes.Session, cond lua.LValue, input lua.LValue) (bool, error) {
	invoker, err := invokerService()
	if err != nil {
		return false, err
	}

	switch v := cond.(type) {
	case *lua.LNilType:
		return true, nil
	case lua.LBool:
		return bool(v), nil
	case *lua.LFunction:
		results, err := invoker.CallCondition(sess, v, input)
		if err != nil {
			return false, err
		}
		return services.Truthy(results), nil
	case lua.LString:
		extra := map[string]lua.LValue{breaktypes.PipelineAlias: input}
		results, err := invoker.EvalInCallerScope(sess, string(v), extra)
		if err != nil {
			return false, err
		}
		return services.Truthy(results), nil
	default:
		return false, &services.ConditionEvalError{
			Expr: cond.String(),
			Err:  fmt.Errorf("condition must be a string, function, or boolean, got %s", cond.Type()),
		}
	}
}

// invokeSentinel performs the inner call under the reentrancy guard. The
// guard is released on every exit path, including a session abort raised
// while suspended, via the deferred reset.
func invokeSentinel(L *lua.LState, sess breaktypes.Session, args []lua.LValue) error {
	sentinel, err := resolveSentinel(L)
	if err != nil {
		return err
	}

	sess.SetConditionMet(true)
	defer sess.SetConditionMet(false)

	callErr := L.CallByParam(lua.P{
		Fn:      sentinel,
		NRet:    0,
		Protect: true,
	}, args...)
	return debugger.UnwrapLuaError(callErr)
}

// resolveSentinel looks up the installed, interception-wrapped trigger
// function: the re-invocation must route through the engine's dispatch so
// the proxy breakpoint can intercept it. A missing sentinel is
// terminating: the interception point the whole mechanism depends on is
// gone.
func resolveSentinel(L *lua.LState) (*lua.LFunction, error) {
	mod := L.GetGlobal("debug")
	tbl, ok := mod.(*lua.LTable)
	if !ok {
		return nil, &debugger.NotFoundError{Kind: "module", Name: "debug"}
	}
	fn, ok := tbl.RawGetString("breakpoint").(*lua.LFunction)
	if !ok {
		return nil, &debugger.NotFoundError{Kind: "command", Name: breaktypes.SentinelCommandName}
	}
	return fn, nil
}

// reportConditionError surfaces a recoverable condition failure through the
// normal error channel. Execution continues without entering a break.
func reportConditionError(sess breaktypes.Session, err error) {
	logger.Error("breakpoint condition failed", "error", err)
	sess.Printf("%s %v\n", breakPrefixStyle.Render("● break error:"), err)
}

func asQuit(err error) *debugger.QuitError {
	var quit *debugger.QuitError
	if errors.As(err, &quit) {
		return quit
	}
	return nil
}

// proxyManagerFor returns the session's proxy breakpoint manager, or nil
// when none is attached.
func proxyManagerFor(sess breaktypes.Session) *services.ProxyManager {
	svc, err := services.GetGlobalRegistry().GetService("breakpoint_proxy")
	if err != nil {
		return nil
	}
	proxySvc, ok := svc.(*services.BreakpointProxyService)
	if !ok {
		return nil
	}
	return proxySvc.ManagerFor(sess)
}

func invokerService() (*services.InvokerService, error) {
	svc, err := services.GetGlobalRegistry().GetService("invoker")
	if err != nil {
		return nil, fmt.Errorf("invoker service not available: %w", err)
	}
	invoker, ok := svc.(*services.InvokerService)
	if !ok {
		return nil, fmt.Errorf("invoker service has unexpected type")
	}
	return invoker, nil
}

func init() {
	if err := commands.GlobalRegistry.Register(&BreakpointCommand{}); err != nil {
		panic(fmt.Sprintf("failed to register breakpoint command: %v", err))
	}
}
