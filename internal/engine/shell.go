package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"

	"luabreak/internal/logger"
)

var shellErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

// RunShell drives the interactive read-eval loop for the session. It
// returns nil when the user exits normally and the abort signal when a
// debugging session was terminated from the inspection prompt.
func (s *Session) RunShell(prompt string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start shell: %w", err)
	}
	defer func() {
		if err := rl.Close(); err != nil {
			logger.Debug("failed to close readline", "error", err)
		}
	}()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" {
			return nil
		}

		if err := s.RunString(line); err != nil {
			if quit := quitOf(err); quit != nil {
				s.Printf("%s\n", shellErrorStyle.Render(quit.Error()))
				return quit
			}
			s.Printf("%s\n", shellErrorStyle.Render(err.Error()))
		}
	}
}
