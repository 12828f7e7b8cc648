// Package engine hosts luabreak script sessions. Each Session owns one Lua
// state, one debugger, and one session context; sessions are fully
// independent and never share state.
package engine

import (
	"errors"
	"fmt"
	"io"
	"os"

	lua "github.com/yuin/gopher-lua"

	"luabreak/internal/context"
	"luabreak/internal/debugger"
	"luabreak/internal/logger"
	"luabreak/internal/services"
	"luabreak/pkg/breaktypes"
)

// Session is one script session: a Lua state with the debugging commands
// installed, a host debugger, and the session context carrying the
// reentrancy guard.
type Session struct {
	ctx   *context.SessionContext
	L     *lua.LState
	dbg   *debugger.Debugger
	out   io.Writer
	proxy *services.ProxyManager
}

type sessionConfig struct {
	out         io.Writer
	interactive bool
	testMode    bool
	prompter    debugger.Prompter
}

// Option configures a Session.
type Option func(*sessionConfig)

// WithWriter sets the session's interactive output writer.
func WithWriter(w io.Writer) Option {
	return func(c *sessionConfig) {
		c.out = w
	}
}

// WithInteractive marks the session as interactive.
func WithInteractive(interactive bool) Option {
	return func(c *sessionConfig) {
		c.interactive = interactive
	}
}

// WithTestMode enables deterministic test mode.
func WithTestMode(testMode bool) Option {
	return func(c *sessionConfig) {
		c.testMode = testMode
	}
}

// WithPrompter sets the inspection prompt reader used while suspended.
func WithPrompter(p debugger.Prompter) Option {
	return func(c *sessionConfig) {
		c.prompter = p
	}
}

// NewSession creates a session and runs its load hooks: the Lua state is
// built, commands are installed, the proxy breakpoint is created and
// subscribed, and the trigger defaults to disabled when the session is
// non-interactive.
func NewSession(opts ...Option) (*Session, error) {
	cfg := &sessionConfig{
		out: os.Stdout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	s := &Session{
		ctx: context.New(
			context.WithInteractive(cfg.interactive),
			context.WithTestMode(cfg.testMode),
		),
		L:   L,
		dbg: debugger.New(cfg.out, cfg.prompter),
		out: cfg.out,
	}

	if err := installCommands(s); err != nil {
		L.Close()
		return nil, err
	}
	s.dbg.SetEvaluator(s.scopedEval)
	s.dbg.SetStackReporter(s.stackReport)

	if err := s.onLoad(); err != nil {
		L.Close()
		return nil, err
	}

	logger.Info("Session started", "session", s.ctx.ID(), "interactive", cfg.interactive)
	return s, nil
}

// onLoad attaches the proxy breakpoint manager and applies the configured
// trigger default, if any.
func (s *Session) onLoad() error {
	svc, err := services.GetGlobalRegistry().GetService("breakpoint_proxy")
	if err != nil {
		return fmt.Errorf("breakpoint proxy service not available: %w", err)
	}
	proxySvc, ok := svc.(*services.BreakpointProxyService)
	if !ok {
		return fmt.Errorf("breakpoint proxy service has unexpected type")
	}

	s.proxy, err = proxySvc.Attach(s)
	if err != nil {
		return err
	}

	if cfgSvc := configService(); cfgSvc != nil {
		if enabled, ok := cfgSvc.TriggerDefault(); ok {
			if enabled {
				return s.proxy.Enable()
			}
			return s.proxy.Disable()
		}
	}
	return nil
}

// Close runs the session's unload hooks and releases the Lua state.
func (s *Session) Close() error {
	var detachErr error
	if svc, err := services.GetGlobalRegistry().GetService("breakpoint_proxy"); err == nil {
		if proxySvc, ok := svc.(*services.BreakpointProxyService); ok {
			detachErr = proxySvc.Detach(s)
		}
	}
	s.L.Close()
	logger.Info("Session closed", "session", s.ctx.ID())
	return detachErr
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.ctx.ID()
}

// LState returns the session's Lua state.
func (s *Session) LState() *lua.LState {
	return s.L
}

// Debugger returns the session's host debugger facade.
func (s *Session) Debugger() breaktypes.Debugger {
	return s.dbg
}

// ConditionMet returns the session's reentrancy guard value.
func (s *Session) ConditionMet() bool {
	return s.ctx.ConditionMet()
}

// SetConditionMet sets the session's reentrancy guard value.
func (s *Session) SetConditionMet(met bool) {
	s.ctx.SetConditionMet(met)
}

// Writer returns the session's interactive output writer.
func (s *Session) Writer() io.Writer {
	return s.out
}

// Printf writes formatted output to the session's interactive writer.
func (s *Session) Printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

// IsInteractive reports whether a human is attached to the session.
func (s *Session) IsInteractive() bool {
	return s.ctx.IsInteractive()
}

// IsTestMode reports whether the session runs in deterministic test mode.
func (s *Session) IsTestMode() bool {
	return s.ctx.IsTestMode()
}

// Proxy returns the session's proxy breakpoint manager.
func (s *Session) Proxy() *services.ProxyManager {
	return s.proxy
}

// RunString executes code in the session. The session-abort signal is
// returned as *debugger.QuitError; everything else is an ordinary script
// error.
func (s *Session) RunString(code string) error {
	fn, err := s.L.LoadString(code)
	if err != nil {
		return err
	}
	s.L.Push(fn)
	return debugger.UnwrapLuaError(s.L.PCall(0, 0, nil))
}

// RunFile executes a script file in the session.
func (s *Session) RunFile(path string) error {
	fn, err := s.L.LoadFile(path)
	if err != nil {
		return err
	}
	s.L.Push(fn)
	return debugger.UnwrapLuaError(s.L.PCall(0, 0, nil))
}

// scopedEval backs the inspection prompt's print command with the scoped
// invoker, so expressions typed while suspended see the break scope.
func (s *Session) scopedEval(expr string) ([]string, error) {
	svc, err := services.GetGlobalRegistry().GetService("invoker")
	if err != nil {
		return nil, fmt.Errorf("invoker service not available: %w", err)
	}
	invoker, ok := svc.(*services.InvokerService)
	if !ok {
		return nil, fmt.Errorf("invoker service has unexpected type")
	}

	results, err := invoker.EvalInCallerScope(s, expr, nil)
	if err != nil {
		return nil, err
	}
	formatted := make([]string, 0, len(results))
	for _, r := range results {
		formatted = append(formatted, r.String())
	}
	return formatted, nil
}

// stackReport renders the current Lua call stack for the inspection
// prompt's where command.
func (s *Session) stackReport() []string {
	var frames []string
	for level := 0; level < 32; level++ {
		dbg, ok := s.L.GetStack(level)
		if !ok {
			break
		}
		if _, err := s.L.GetInfo("Sln", dbg, lua.LNil); err != nil {
			break
		}
		name := dbg.Name
		if name == "" {
			name = "?"
		}
		frames = append(frames, fmt.Sprintf("  #%d %s (%s:%d)", level, name, dbg.Source, dbg.CurrentLine))
	}
	return frames
}

// openSafeLibraries opens only safe Lua standard libraries. The io, os, and
// package libraries stay closed; the standard debug library stays closed
// because the global debug name belongs to this host's debug module.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

func configService() *services.ConfigService {
	svc, err := services.GetGlobalRegistry().GetService("config")
	if err != nil {
		return nil
	}
	cfgSvc, ok := svc.(*services.ConfigService)
	if !ok {
		return nil
	}
	return cfgSvc
}

func quitOf(err error) *debugger.QuitError {
	var quit *debugger.QuitError
	if errors.As(err, &quit) {
		return quit
	}
	return nil
}
