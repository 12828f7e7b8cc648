package services

import (
	"fmt"

	"luabreak/internal/commands"
	"luabreak/internal/debugger"
	"luabreak/internal/logger"
	"luabreak/pkg/breaktypes"
)

// DebugModeService implements the per-command debugger-visibility toggler
// over the command registry's metadata. The registry owns the authoritative
// values; this service never caches them beyond a single get or set call.
type DebugModeService struct {
	initialized bool
}

// NewDebugModeService creates a new DebugModeService instance.
func NewDebugModeService() *DebugModeService {
	return &DebugModeService{}
}

// Name returns the service name "debugmode" for registration.
func (s *DebugModeService) Name() string {
	return "debugmode"
}

// Initialize sets up the DebugModeService for operation.
func (s *DebugModeService) Initialize() error {
	s.initialized = true
	logger.ServiceOperation("debugmode", "initialize", "service ready")
	return nil
}

// Get enumerates the debug-mode bits of loaded commands matching the name
// pattern. With a module filter, commands absent from that module's export
// list are excluded. Any metadata access error aborts the whole call.
func (s *DebugModeService) Get(pattern string, module string) ([]breaktypes.DebugModeEntry, error) {
	if !s.initialized {
		return nil, fmt.Errorf("debugmode service not initialized")
	}

	matched, err := commands.GlobalRegistry.Match(pattern, module)
	if err != nil {
		return nil, err
	}

	entries := make([]breaktypes.DebugModeEntry, 0, len(matched))
	for _, cmd := range matched {
		full := commands.FullName(cmd)
		mode, ok := commands.GlobalRegistry.DebugMode(full)
		if !ok {
			return nil, &debugger.ContractViolationError{
				Detail: fmt.Sprintf("command %s has no debug-mode metadata", full),
			}
		}
		entries = append(entries, breaktypes.DebugModeEntry{
			Name:               full,
			HiddenFromDebugger: mode.HiddenFromDebugger,
			StepThrough:        mode.StepThrough,
		})
	}
	return entries, nil
}

// Set applies the given debug-mode bits to every command matching the name
// pattern, with the same module filtering rule as Get. Omitted bits are
// false by construction: the mode is replaced wholesale, there is no
// "leave unchanged" state.
//
// All matches and their metadata are resolved before the first write, so a
// failure never leaves a partial application behind. When dryRun is set the
// intended changes are reported through report without being applied.
func (s *DebugModeService) Set(pattern string, module string, mode breaktypes.CommandDebugMode, dryRun bool, report func(name string, mode breaktypes.CommandDebugMode)) error {
	if !s.initialized {
		return fmt.Errorf("debugmode service not initialized")
	}

	matched, err := commands.GlobalRegistry.Match(pattern, module)
	if err != nil {
		return err
	}

	// Resolve everything up front: partial application of debug-mode
	// changes is unsafe to continue silently.
	names := make([]string, 0, len(matched))
	for _, cmd := range matched {
		full := commands.FullName(cmd)
		if _, ok := commands.GlobalRegistry.DebugMode(full); !ok {
			return &debugger.ContractViolationError{
				Detail: fmt.Sprintf("command %s has no debug-mode metadata", full),
			}
		}
		names = append(names, full)
	}

	for _, name := range names {
		if report != nil {
			report(name, mode)
		}
		if dryRun {
			continue
		}
		if err := commands.GlobalRegistry.SetDebugMode(name, mode); err != nil {
			return err
		}
		logger.Debug("Debug mode applied", "command", name,
			"hidden", mode.HiddenFromDebugger, "step", mode.StepThrough)
	}
	return nil
}
