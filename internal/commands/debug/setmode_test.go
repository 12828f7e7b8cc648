package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"luabreak/internal/commands"
	"luabreak/pkg/breaktypes"
)

// resetDebugModes restores the mode bits of the debug module's commands,
// which live in the process-global command registry.
func resetDebugModes(t *testing.T) {
	t.Helper()
	for _, cmd := range commands.GlobalRegistry.GetAll() {
		if cmd.Module() == "debug" {
			require.NoError(t, commands.GlobalRegistry.SetDebugMode(
				commands.FullName(cmd), breaktypes.CommandDebugMode{}))
		}
	}
}

func TestGetMode_ListsDebugModule(t *testing.T) {
	sess, _ := newTestSession(t)

	require.NoError(t, sess.RunString(`
		names = {}
		for _, row in ipairs(debug.getmode("*", "debug")) do
			names[#names + 1] = row.name
			assert(row.hidden == false)
			assert(row.step == false)
		end
	`))

	names := sess.LState().GetGlobal("names").(*lua.LTable)
	var got []string
	names.ForEach(func(_, v lua.LValue) {
		got = append(got, v.String())
	})
	assert.Equal(t, []string{"debug.breakpoint", "debug.disable", "debug.enable", "debug.getmode", "debug.setmode"}, got)
}

func TestGetMode_UnknownModule(t *testing.T) {
	sess, _ := newTestSession(t)

	err := sess.RunString(`debug.getmode("*", "missing")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSetMode_AppliesBits(t *testing.T) {
	sess, _ := newTestSession(t)
	defer resetDebugModes(t)

	require.NoError(t, sess.RunString(`debug.setmode{pattern="get*", module="debug", hidden=true, step=true}`))

	mode, ok := commands.GlobalRegistry.DebugMode("debug.getmode")
	require.True(t, ok)
	assert.True(t, mode.HiddenFromDebugger)
	assert.True(t, mode.StepThrough)

	mode, _ = commands.GlobalRegistry.DebugMode("debug.setmode")
	assert.False(t, mode.HiddenFromDebugger, "non-matching commands are untouched")
}

func TestSetMode_OmittedBitsReset(t *testing.T) {
	sess, _ := newTestSession(t)
	defer resetDebugModes(t)

	require.NoError(t, sess.RunString(`
		debug.setmode{pattern="getmode", module="debug", hidden=true}
		debug.setmode{pattern="getmode", module="debug", step=true}
	`))

	mode, _ := commands.GlobalRegistry.DebugMode("debug.getmode")
	assert.False(t, mode.HiddenFromDebugger, "omitted bits reset to false")
	assert.True(t, mode.StepThrough)
}

func TestSetMode_DryRun(t *testing.T) {
	sess, out := newTestSession(t)

	require.NoError(t, sess.RunString(`debug.setmode{pattern="*", module="debug", hidden=true, confirm=true}`))

	assert.Contains(t, out.String(), "would set debug.breakpoint: hidden=true step=false")
	for _, cmd := range commands.GlobalRegistry.GetAll() {
		if cmd.Module() != "debug" {
			continue
		}
		mode, _ := commands.GlobalRegistry.DebugMode(commands.FullName(cmd))
		assert.False(t, mode.HiddenFromDebugger, "dry-run must not apply changes")
	}
}

func TestSetMode_RoundTripThroughGetMode(t *testing.T) {
	sess, _ := newTestSession(t)
	defer resetDebugModes(t)

	require.NoError(t, sess.RunString(`
		debug.setmode{pattern="enable", module="debug", hidden=true}
		row = debug.getmode("enable", "debug")[1]
	`))

	row := sess.LState().GetGlobal("row").(*lua.LTable)
	assert.Equal(t, lua.LString("debug.enable"), row.RawGetString("name"))
	assert.Equal(t, lua.LTrue, row.RawGetString("hidden"))
	assert.Equal(t, lua.LFalse, row.RawGetString("step"))
}

func TestSetMode_HiddenCommandSkipsInterception(t *testing.T) {
	sess, _ := newTestSession(t)
	defer resetDebugModes(t)

	require.NoError(t, commands.GlobalRegistry.SetDebugMode("debug.breakpoint",
		breaktypes.CommandDebugMode{HiddenFromDebugger: true}))

	require.NoError(t, sess.RunString(`r = breakpoint(true, nil, 4)`))

	assert.Equal(t, lua.LNumber(4), sess.LState().GetGlobal("r"))
	assert.Equal(t, int64(0), sess.Debugger().BreaksRequested(),
		"a hidden command never reaches breakpoint interception")
	assert.False(t, sess.ConditionMet())
}
