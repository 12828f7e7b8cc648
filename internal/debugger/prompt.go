package debugger

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Prompter reads one inspection prompt command. Implementations return
// io.EOF when no further input is available, which the prompt loop treats as
// an implicit continue.
type Prompter interface {
	ReadCommand() (string, error)
	Close() error
}

// ReadlinePrompter is the interactive Prompter used when a human is attached
// to the session.
type ReadlinePrompter struct {
	rl *readline.Instance
}

// NewReadlinePrompter creates a readline-backed Prompter.
func NewReadlinePrompter() (*ReadlinePrompter, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptStyle.Render("[BRK]> "),
		InterruptPrompt: "^C",
	})
	if err != nil {
		return nil, err
	}
	return &ReadlinePrompter{rl: rl}, nil
}

// ReadCommand reads one line from the prompt.
func (p *ReadlinePrompter) ReadCommand() (string, error) {
	line, err := p.rl.Readline()
	if err != nil {
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		return "", err
	}
	return line, nil
}

// Close releases the readline instance.
func (p *ReadlinePrompter) Close() error {
	return p.rl.Close()
}

// promptLoop drives the inspection prompt while the session is suspended.
// Recognized commands: c/continue, p <expr>, where, help, q/quit.
func (d *Debugger) promptLoop(prompter Prompter) error {
	fmt.Fprintln(d.out, promptStyle.Render("Entering debugger. Type 'help' for commands."))

	for {
		line, err := prompter.ReadCommand()
		if err != nil {
			// No more input; resume execution rather than wedging the host.
			return nil
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "c", "continue":
			return nil
		case "q", "quit":
			return &QuitError{Reason: "quit from inspection prompt"}
		case "p", "print":
			d.handlePrint(strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, fields[0]), " ")))
		case "where", "w":
			d.handleWhere()
		case "help", "h", "?":
			d.printHelp()
		default:
			fmt.Fprintln(d.out, errorStyle.Render(fmt.Sprintf("unknown command %q, type 'help'", fields[0])))
		}
	}
}

func (d *Debugger) handlePrint(expr string) {
	d.mu.RLock()
	evalFn := d.evalFn
	d.mu.RUnlock()

	if expr == "" {
		fmt.Fprintln(d.out, errorStyle.Render("usage: p <expression>"))
		return
	}
	if evalFn == nil {
		fmt.Fprintln(d.out, errorStyle.Render("expression evaluation is not available"))
		return
	}

	results, err := evalFn(expr)
	if err != nil {
		if IsQuit(err) {
			// The abort signal must not be swallowed by the print command,
			// but here the session is already suspended; report and stay.
			fmt.Fprintln(d.out, errorStyle.Render("session abort requested during evaluation"))
			return
		}
		fmt.Fprintln(d.out, errorStyle.Render(err.Error()))
		return
	}
	if len(results) == 0 {
		fmt.Fprintln(d.out, "nil")
		return
	}
	for _, r := range results {
		fmt.Fprintln(d.out, r)
	}
}

func (d *Debugger) handleWhere() {
	d.mu.RLock()
	stackFn := d.stackFn
	d.mu.RUnlock()

	if stackFn == nil {
		fmt.Fprintln(d.out, errorStyle.Render("stack reporting is not available"))
		return
	}
	for _, frame := range stackFn() {
		fmt.Fprintln(d.out, frame)
	}
}

func (d *Debugger) printHelp() {
	fmt.Fprintln(d.out, "  c, continue   resume execution")
	fmt.Fprintln(d.out, "  p <expr>      evaluate an expression in the break scope")
	fmt.Fprintln(d.out, "  where         show the call stack")
	fmt.Fprintln(d.out, "  q, quit       terminate the debugging session")
}
