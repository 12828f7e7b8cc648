package debugger

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"luabreak/internal/logger"
	"luabreak/pkg/breaktypes"
)

// breakpoint is the debugger-owned record behind a breakpoint handle.
type breakpoint struct {
	id      string
	command string
	enabled bool
	action  breaktypes.BreakpointAction
}

// Debugger implements the host debugger facade for one session. Breakpoints
// bind to command names; when the engine dispatches a command, Intercept runs
// the actions of every enabled breakpoint bound to that name, and an action
// requesting a break suspends the session at the inspection prompt.
//
// All state is per session. The hosting engine guarantees that script
// execution within a session is strictly sequential, so Intercept never runs
// concurrently with itself; the mutex protects registration and queries
// issued from tests or from the suspended prompt.
type Debugger struct {
	mu sync.RWMutex

	breakpoints map[string]*breakpoint
	removedSubs map[string]func(breaktypes.BreakpointInfo)

	suspended       bool
	breaksRequested atomic.Int64

	// inScopedEval marks frames that belong to condition evaluation. While
	// set, interception is skipped so the evaluation stays invisible to the
	// debugger's own machinery.
	inScopedEval bool

	out      io.Writer
	prompter Prompter
	log      *log.Logger

	// Hooks wired by the engine: scoped expression evaluation and stack
	// reporting for the inspection prompt.
	evalFn  func(expr string) ([]string, error)
	stackFn func() []string
}

// New creates a Debugger writing prompt output to out. A nil prompter means
// every requested break auto-continues, which is the non-interactive and
// test default.
func New(out io.Writer, prompter Prompter) *Debugger {
	return &Debugger{
		breakpoints: make(map[string]*breakpoint),
		removedSubs: make(map[string]func(breaktypes.BreakpointInfo)),
		out:         out,
		prompter:    prompter,
		log:         logger.NewStyledLogger("Debugger"),
	}
}

// SetEvaluator wires the scoped expression evaluator used by the inspection
// prompt's print command.
func (d *Debugger) SetEvaluator(fn func(expr string) ([]string, error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.evalFn = fn
}

// SetStackReporter wires the call stack reporter used by the inspection
// prompt's where command.
func (d *Debugger) SetStackReporter(fn func() []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stackFn = fn
}

// SetPrompter replaces the inspection prompt reader.
func (d *Debugger) SetPrompter(p Prompter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prompter = p
}

// RegisterBreakpoint binds a breakpoint to a command name and returns its
// handle. Registration while the session is suspended is a structural
// precondition violation and fails with ResourceBusyError.
func (d *Debugger) RegisterBreakpoint(commandName string, action breaktypes.BreakpointAction) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.suspended {
		return "", &ResourceBusyError{Operation: "register breakpoint"}
	}
	if commandName == "" {
		return "", fmt.Errorf("breakpoint command name cannot be empty")
	}
	if action == nil {
		return "", fmt.Errorf("breakpoint action cannot be nil")
	}

	bp := &breakpoint{
		id:      uuid.New().String(),
		command: commandName,
		enabled: true,
		action:  action,
	}
	d.breakpoints[bp.id] = bp
	logger.BreakpointOperation("register", bp.id, bp.command)
	return bp.id, nil
}

// EnableBreakpoint sets the breakpoint's enabled flag.
func (d *Debugger) EnableBreakpoint(id string) error {
	return d.setEnabled(id, true)
}

// DisableBreakpoint clears the breakpoint's enabled flag.
func (d *Debugger) DisableBreakpoint(id string) error {
	return d.setEnabled(id, false)
}

func (d *Debugger) setEnabled(id string, enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	bp, exists := d.breakpoints[id]
	if !exists {
		return &NotFoundError{Kind: "breakpoint", Name: id}
	}
	bp.enabled = enabled
	logger.BreakpointOperation(fmt.Sprintf("enabled=%t", enabled), bp.id, bp.command)
	return nil
}

// RemoveBreakpoint deletes a breakpoint and notifies removal subscribers
// synchronously. The host allows ad-hoc removal of any breakpoint, including
// ones other components consider permanent; subscribers reconcile.
func (d *Debugger) RemoveBreakpoint(id string) error {
	d.mu.Lock()
	bp, exists := d.breakpoints[id]
	if !exists {
		d.mu.Unlock()
		return &NotFoundError{Kind: "breakpoint", Name: id}
	}
	delete(d.breakpoints, id)
	info := breaktypes.BreakpointInfo{ID: bp.id, Command: bp.command, Enabled: bp.enabled}
	subs := make([]func(breaktypes.BreakpointInfo), 0, len(d.removedSubs))
	for _, fn := range d.removedSubs {
		subs = append(subs, fn)
	}
	d.mu.Unlock()

	logger.BreakpointOperation("remove", info.ID, info.Command)
	for _, fn := range subs {
		fn(info)
	}
	return nil
}

// QueryBreakpoint reports a breakpoint's enabled flag and existence.
func (d *Debugger) QueryBreakpoint(id string) (enabled bool, exists bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	bp, ok := d.breakpoints[id]
	if !ok {
		return false, false
	}
	return bp.enabled, true
}

// SubscribeRemoved registers a removal callback and returns a subscription
// ID. Callbacks run synchronously on the removing goroutine.
func (d *Debugger) SubscribeRemoved(fn func(bp breaktypes.BreakpointInfo)) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	subID := uuid.New().String()
	d.removedSubs[subID] = fn
	return subID
}

// UnsubscribeRemoved drops a removal subscription.
func (d *Debugger) UnsubscribeRemoved(subID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.removedSubs, subID)
}

// Suspended reports whether the session is stopped at the inspection prompt.
func (d *Debugger) Suspended() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.suspended
}

// BreaksRequested counts actual suspensions requested since session start.
func (d *Debugger) BreaksRequested() int64 {
	return d.breaksRequested.Load()
}

// RunHidden executes fn with interception disabled, so frames created by fn
// stay invisible to breakpoints and stepping. Used for condition evaluation.
func (d *Debugger) RunHidden(fn func() error) error {
	d.mu.Lock()
	prev := d.inScopedEval
	d.inScopedEval = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.inScopedEval = prev
		d.mu.Unlock()
	}()
	return fn()
}

// Intercept runs the breakpoint actions bound to commandName. It is called
// by the engine before every command body. An action requesting a break
// suspends the session; the returned error is the prompt outcome, with
// *QuitError signalling session abort.
func (d *Debugger) Intercept(commandName string) error {
	d.mu.RLock()
	if d.inScopedEval {
		d.mu.RUnlock()
		return nil
	}
	matched := make([]*breakpoint, 0, 1)
	for _, bp := range d.breakpoints {
		if bp.command == commandName && bp.enabled {
			matched = append(matched, bp)
		}
	}
	d.mu.RUnlock()

	for _, bp := range matched {
		breakRequested, err := bp.action()
		if err != nil {
			return err
		}
		if breakRequested {
			if err := d.suspend(bp); err != nil {
				return err
			}
		}
	}
	return nil
}

// suspend parks the session at the inspection prompt until the user
// continues or quits. With no prompter attached the break is still counted
// but execution resumes immediately.
func (d *Debugger) suspend(bp *breakpoint) error {
	d.mu.Lock()
	if d.suspended {
		d.mu.Unlock()
		return &ResourceBusyError{Operation: "suspend"}
	}
	d.suspended = true
	prompter := d.prompter
	d.mu.Unlock()

	d.breaksRequested.Add(1)

	defer func() {
		d.mu.Lock()
		d.suspended = false
		d.mu.Unlock()
	}()

	d.log.Debug("session suspended", "breakpoint", bp.id, "command", bp.command)
	if prompter == nil {
		return nil
	}
	return d.promptLoop(prompter)
}
