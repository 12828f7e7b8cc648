package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"luabreak/internal/debugger"
	"luabreak/pkg/breaktypes"
)

// fakeCommand is a minimal command fixture.
type fakeCommand struct {
	name     string
	module   string
	exported bool
}

func (c *fakeCommand) Name() string        { return c.name }
func (c *fakeCommand) Module() string      { return c.module }
func (c *fakeCommand) Exported() bool      { return c.exported }
func (c *fakeCommand) Description() string { return "fixture" }
func (c *fakeCommand) Usage() string       { return c.name + "()" }
func (c *fakeCommand) HelpInfo() breaktypes.HelpInfo {
	return breaktypes.HelpInfo{Command: FullName(c)}
}
func (c *fakeCommand) LuaFunc(_ breaktypes.Session) lua.LGFunction {
	return func(_ *lua.LState) int { return 0 }
}

func newTestRegistry(t *testing.T, cmds ...breaktypes.Command) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, cmd := range cmds {
		require.NoError(t, r.Register(cmd))
	}
	return r
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "debug.breakpoint", FullName(&fakeCommand{name: "breakpoint", module: "debug"}))
	assert.Equal(t, "print", FullName(&fakeCommand{name: "print"}))
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(&fakeCommand{name: "breakpoint", module: "debug", exported: true}))

	err := r.Register(&fakeCommand{name: "breakpoint", module: "debug"})
	assert.Error(t, err, "duplicate full name")

	err = r.Register(&fakeCommand{name: ""})
	assert.Error(t, err, "empty name")

	got, ok := r.Get("debug.breakpoint")
	require.True(t, ok)
	assert.Equal(t, "breakpoint", got.Name())
}

func TestRegistry_GetAll_Sorted(t *testing.T) {
	r := newTestRegistry(t,
		&fakeCommand{name: "setmode", module: "debug", exported: true},
		&fakeCommand{name: "breakpoint", module: "debug", exported: true},
		&fakeCommand{name: "enable", module: "debug", exported: true},
	)

	var names []string
	for _, cmd := range r.GetAll() {
		names = append(names, FullName(cmd))
	}
	assert.Equal(t, []string{"debug.breakpoint", "debug.enable", "debug.setmode"}, names)
}

func TestRegistry_ModuleExports(t *testing.T) {
	r := newTestRegistry(t,
		&fakeCommand{name: "breakpoint", module: "debug", exported: true},
		&fakeCommand{name: "enable", module: "debug", exported: true},
		&fakeCommand{name: "shadow", module: "debug", exported: false},
	)

	exports, loaded := r.ModuleExports("debug")
	assert.True(t, loaded)
	assert.Equal(t, []string{"breakpoint", "enable"}, exports, "private helpers stay off the export list")

	exports, loaded = r.ModuleExports("missing")
	assert.False(t, loaded)
	assert.Empty(t, exports)
}

func TestRegistry_Match(t *testing.T) {
	r := newTestRegistry(t,
		&fakeCommand{name: "getmode", module: "debug", exported: true},
		&fakeCommand{name: "setmode", module: "debug", exported: true},
		&fakeCommand{name: "shadow", module: "debug", exported: false},
		&fakeCommand{name: "getmode", module: "other", exported: true},
	)

	tests := []struct {
		name      string
		pattern   string
		module    string
		want      []string
		wantError bool
	}{
		{
			name:    "glob across modules",
			pattern: "get*",
			want:    []string{"debug.getmode", "other.getmode"},
		},
		{
			name:    "empty pattern means everything",
			pattern: "",
			want:    []string{"debug.getmode", "debug.setmode", "debug.shadow", "other.getmode"},
		},
		{
			name:    "module filter excludes private helpers",
			pattern: "*",
			module:  "debug",
			want:    []string{"debug.getmode", "debug.setmode"},
		},
		{
			name:    "private helper invisible even by exact name",
			pattern: "shadow",
			module:  "debug",
			want:    nil,
		},
		{
			name:      "unknown module",
			pattern:   "*",
			module:    "missing",
			wantError: true,
		},
		{
			name:      "malformed pattern",
			pattern:   "[",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, err := r.Match(tt.pattern, tt.module)
			if tt.wantError {
				require.Error(t, err)
				if tt.module != "" {
					var notFound *debugger.NotFoundError
					assert.ErrorAs(t, err, &notFound)
				}
				return
			}
			require.NoError(t, err)

			var names []string
			for _, cmd := range matched {
				names = append(names, FullName(cmd))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestRegistry_DebugMode(t *testing.T) {
	r := newTestRegistry(t, &fakeCommand{name: "breakpoint", module: "debug", exported: true})

	mode, ok := r.DebugMode("debug.breakpoint")
	require.True(t, ok)
	assert.False(t, mode.HiddenFromDebugger)
	assert.False(t, mode.StepThrough)

	require.NoError(t, r.SetDebugMode("debug.breakpoint", breaktypes.CommandDebugMode{HiddenFromDebugger: true}))
	mode, _ = r.DebugMode("debug.breakpoint")
	assert.True(t, mode.HiddenFromDebugger)

	_, ok = r.DebugMode("debug.missing")
	assert.False(t, ok)

	err := r.SetDebugMode("debug.missing", breaktypes.CommandDebugMode{})
	var notFound *debugger.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
