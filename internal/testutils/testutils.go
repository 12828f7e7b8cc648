// Package testutils provides shared test helpers for luabreak: a scripted
// inspection-prompt reader and a mock session implementing the
// breaktypes.Session interface over a real Lua state and debugger.
package testutils

import (
	"bytes"
	"fmt"
	"io"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"luabreak/internal/debugger"
	"luabreak/pkg/breaktypes"
)

// ScriptedPrompter replays a fixed list of inspection prompt commands and
// then reports io.EOF, which the prompt loop treats as continue.
type ScriptedPrompter struct {
	Commands []string
	next     int
}

// NewScriptedPrompter creates a prompter replaying the given commands.
func NewScriptedPrompter(commands ...string) *ScriptedPrompter {
	return &ScriptedPrompter{Commands: commands}
}

// ReadCommand returns the next scripted command.
func (p *ScriptedPrompter) ReadCommand() (string, error) {
	if p.next >= len(p.Commands) {
		return "", io.EOF
	}
	cmd := p.Commands[p.next]
	p.next++
	return cmd, nil
}

// Close implements the Prompter interface.
func (p *ScriptedPrompter) Close() error {
	return nil
}

// MockSession implements breaktypes.Session over a real Lua state and a
// real debugger, for service-level tests that do not need the full engine.
type MockSession struct {
	id           string
	L            *lua.LState
	Dbg          *debugger.Debugger
	Out          *bytes.Buffer
	conditionMet bool
	interactive  bool
	testMode     bool
}

// NewMockSession creates a MockSession with base Lua libraries opened.
func NewMockSession() *MockSession {
	out := &bytes.Buffer{}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	return &MockSession{
		id:       uuid.New().String(),
		L:        L,
		Dbg:      debugger.New(out, nil),
		Out:      out,
		testMode: true,
	}
}

// Close releases the mock session's Lua state.
func (s *MockSession) Close() {
	s.L.Close()
}

// SetInteractive marks the mock session as interactive.
func (s *MockSession) SetInteractive(interactive bool) {
	s.interactive = interactive
}

// ID returns the mock session's identifier.
func (s *MockSession) ID() string { return s.id }

// LState returns the mock session's Lua state.
func (s *MockSession) LState() *lua.LState { return s.L }

// Debugger returns the mock session's debugger.
func (s *MockSession) Debugger() breaktypes.Debugger { return s.Dbg }

// ConditionMet returns the reentrancy guard value.
func (s *MockSession) ConditionMet() bool { return s.conditionMet }

// SetConditionMet sets the reentrancy guard value.
func (s *MockSession) SetConditionMet(met bool) { s.conditionMet = met }

// Writer returns the mock session's output buffer.
func (s *MockSession) Writer() io.Writer { return s.Out }

// Printf writes formatted output to the mock session's buffer.
func (s *MockSession) Printf(format string, args ...interface{}) {
	fmt.Fprintf(s.Out, format, args...)
}

// IsInteractive reports the mock session's interactive flag.
func (s *MockSession) IsInteractive() bool { return s.interactive }

// IsTestMode reports true; mock sessions always run in test mode.
func (s *MockSession) IsTestMode() bool { return s.testMode }
