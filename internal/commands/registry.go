// Package commands provides command registration and lookup for luabreak.
// It manages a global registry of script-visible commands together with the
// per-command debugger metadata (debug-mode bits and module export lists)
// that the host owns authoritatively.
package commands

import (
	"fmt"
	"path"
	"sort"
	"sync"

	"luabreak/internal/debugger"
	"luabreak/pkg/breaktypes"
)

// entry couples a command with its host-owned debugger metadata.
type entry struct {
	cmd  breaktypes.Command
	mode breaktypes.CommandDebugMode
}

// Registry manages command registration and lookup. It provides thread-safe
// registration and retrieval of commands by their full (module-qualified)
// name, and is the authoritative store for CommandDebugMode metadata.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates a new command registry with an empty command map.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// FullName returns the module-qualified name a command is installed under.
func FullName(cmd breaktypes.Command) string {
	if cmd.Module() == "" {
		return cmd.Name()
	}
	return cmd.Module() + "." + cmd.Name()
}

// Register adds a command to the registry. Returns an error if the command
// name is empty or if a command with the same full name is already
// registered.
func (r *Registry) Register(cmd breaktypes.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cmd.Name() == "" {
		return fmt.Errorf("command name cannot be empty")
	}

	full := FullName(cmd)
	if _, exists := r.entries[full]; exists {
		return fmt.Errorf("command %s already registered", full)
	}

	r.entries[full] = &entry{cmd: cmd}
	return nil
}

// Get retrieves a command by full name.
func (r *Registry) Get(fullName string) (breaktypes.Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, exists := r.entries[fullName]
	if !exists {
		return nil, false
	}
	return e.cmd, true
}

// GetAll returns all registered commands, ordered by full name.
func (r *Registry) GetAll() []breaktypes.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	cmds := make([]breaktypes.Command, 0, len(names))
	for _, name := range names {
		cmds = append(cmds, r.entries[name].cmd)
	}
	return cmds
}

// ModuleExports returns the export list of a module: the names of its
// exported commands. The second return reports whether the module is loaded
// at all (has any registered command, exported or not).
func (r *Registry) ModuleExports(module string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loaded := false
	var exports []string
	for _, e := range r.entries {
		if e.cmd.Module() != module {
			continue
		}
		loaded = true
		if e.cmd.Exported() {
			exports = append(exports, e.cmd.Name())
		}
	}
	sort.Strings(exports)
	return exports, loaded
}

// Match returns the commands whose name matches the glob pattern, ordered by
// full name. With a module filter, commands absent from that module's export
// list are excluded: private helpers are never reported or mutated through
// pattern matching. An unknown module is a NotFoundError.
func (r *Registry) Match(pattern string, module string) ([]breaktypes.Command, error) {
	if pattern == "" {
		pattern = "*"
	}

	if module != "" {
		if _, loaded := r.ModuleExports(module); !loaded {
			return nil, &debugger.NotFoundError{Kind: "module", Name: module}
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []breaktypes.Command
	for _, e := range r.entries {
		if module != "" {
			if e.cmd.Module() != module || !e.cmd.Exported() {
				continue
			}
		}
		ok, err := path.Match(pattern, e.cmd.Name())
		if err != nil {
			return nil, fmt.Errorf("invalid name pattern %q: %w", pattern, err)
		}
		if ok {
			matched = append(matched, e.cmd)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return FullName(matched[i]) < FullName(matched[j])
	})
	return matched, nil
}

// DebugMode returns the debug-mode metadata of a command by full name.
func (r *Registry) DebugMode(fullName string) (breaktypes.CommandDebugMode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[fullName]
	if !exists {
		return breaktypes.CommandDebugMode{}, false
	}
	return e.mode, true
}

// SetDebugMode replaces the debug-mode metadata of a command by full name.
func (r *Registry) SetDebugMode(fullName string, mode breaktypes.CommandDebugMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[fullName]
	if !exists {
		return &debugger.NotFoundError{Kind: "command", Name: fullName}
	}
	e.mode = mode
	return nil
}

// GlobalRegistry is the global command registry instance. Commands register
// themselves with this instance during initialization.
var GlobalRegistry = NewRegistry()
