package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"luabreak/internal/commands"
	"luabreak/internal/debugger"
	"luabreak/pkg/breaktypes"
)

// modeFixture is a minimal command fixture for toggler tests.
type modeFixture struct {
	name     string
	module   string
	exported bool
}

func (c *modeFixture) Name() string        { return c.name }
func (c *modeFixture) Module() string      { return c.module }
func (c *modeFixture) Exported() bool      { return c.exported }
func (c *modeFixture) Description() string { return "fixture" }
func (c *modeFixture) Usage() string       { return c.name + "()" }
func (c *modeFixture) HelpInfo() breaktypes.HelpInfo {
	return breaktypes.HelpInfo{Command: commands.FullName(c)}
}
func (c *modeFixture) LuaFunc(_ breaktypes.Session) lua.LGFunction {
	return func(_ *lua.LState) int { return 0 }
}

var registerModeFixturesOnce sync.Once

// registerModeFixtures installs the toggler test commands into the global
// command registry. The registry is process-global, so registration happens
// once and tests reset the mode bits they touch.
func registerModeFixtures(t *testing.T) {
	t.Helper()
	registerModeFixturesOnce.Do(func() {
		for _, cmd := range []breaktypes.Command{
			&modeFixture{name: "alpha", module: "toggle", exported: true},
			&modeFixture{name: "beta", module: "toggle", exported: true},
			&modeFixture{name: "shadow", module: "toggle", exported: false},
			&modeFixture{name: "gamma", module: "elsewhere", exported: true},
		} {
			if err := commands.GlobalRegistry.Register(cmd); err != nil {
				t.Fatalf("failed to register fixture: %v", err)
			}
		}
	})
}

func resetModes(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, commands.GlobalRegistry.SetDebugMode(name, breaktypes.CommandDebugMode{}))
	}
}

func newDebugModeService(t *testing.T) *DebugModeService {
	t.Helper()
	registerModeFixtures(t)
	svc := NewDebugModeService()
	require.NoError(t, svc.Initialize())
	return svc
}

func entryNames(entries []breaktypes.DebugModeEntry) []string {
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func TestDebugModeService_NotInitialized(t *testing.T) {
	svc := NewDebugModeService()

	_, err := svc.Get("*", "")
	assert.Error(t, err)

	err = svc.Set("*", "", breaktypes.CommandDebugMode{}, false, nil)
	assert.Error(t, err)
}

func TestDebugModeService_Get(t *testing.T) {
	svc := newDebugModeService(t)

	entries, err := svc.Get("*", "toggle")
	require.NoError(t, err)
	assert.Equal(t, []string{"toggle.alpha", "toggle.beta"}, entryNames(entries),
		"private helpers are excluded under a module filter")
	for _, e := range entries {
		assert.False(t, e.HiddenFromDebugger)
		assert.False(t, e.StepThrough)
	}
}

func TestDebugModeService_Get_PatternFilter(t *testing.T) {
	svc := newDebugModeService(t)

	entries, err := svc.Get("a*", "toggle")
	require.NoError(t, err)
	assert.Equal(t, []string{"toggle.alpha"}, entryNames(entries))
}

func TestDebugModeService_Get_UnknownModule(t *testing.T) {
	svc := newDebugModeService(t)

	_, err := svc.Get("*", "missing")

	var notFound *debugger.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDebugModeService_Set(t *testing.T) {
	svc := newDebugModeService(t)
	defer resetModes(t, "toggle.alpha", "toggle.beta")

	err := svc.Set("*", "toggle", breaktypes.CommandDebugMode{HiddenFromDebugger: true}, false, nil)
	require.NoError(t, err)

	for _, name := range []string{"toggle.alpha", "toggle.beta"} {
		mode, ok := commands.GlobalRegistry.DebugMode(name)
		require.True(t, ok)
		assert.True(t, mode.HiddenFromDebugger, name)
		assert.False(t, mode.StepThrough, name)
	}

	mode, ok := commands.GlobalRegistry.DebugMode("toggle.shadow")
	require.True(t, ok)
	assert.False(t, mode.HiddenFromDebugger, "commands absent from the export list are never mutated")
}

func TestDebugModeService_Set_OmittedBitsReset(t *testing.T) {
	svc := newDebugModeService(t)
	defer resetModes(t, "toggle.alpha")

	require.NoError(t, svc.Set("alpha", "toggle", breaktypes.CommandDebugMode{HiddenFromDebugger: true}, false, nil))
	require.NoError(t, svc.Set("alpha", "toggle", breaktypes.CommandDebugMode{StepThrough: true}, false, nil))

	mode, _ := commands.GlobalRegistry.DebugMode("toggle.alpha")
	assert.False(t, mode.HiddenFromDebugger, "the mode is replaced wholesale; omitted bits reset to false")
	assert.True(t, mode.StepThrough)
}

func TestDebugModeService_Set_DryRun(t *testing.T) {
	svc := newDebugModeService(t)

	var reported []string
	report := func(name string, mode breaktypes.CommandDebugMode) {
		reported = append(reported, name)
	}

	err := svc.Set("*", "toggle", breaktypes.CommandDebugMode{HiddenFromDebugger: true}, true, report)
	require.NoError(t, err)

	assert.Equal(t, []string{"toggle.alpha", "toggle.beta"}, reported)
	for _, name := range reported {
		mode, _ := commands.GlobalRegistry.DebugMode(name)
		assert.False(t, mode.HiddenFromDebugger, "dry-run must not apply changes")
	}
}

func TestDebugModeService_Set_UnknownModule(t *testing.T) {
	svc := newDebugModeService(t)

	err := svc.Set("*", "missing", breaktypes.CommandDebugMode{}, false, nil)

	var notFound *debugger.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
