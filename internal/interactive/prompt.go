// Package interactive presents update prompts on the terminal.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/adamancini/appupdater/internal/update"
)

// NoChoice is returned when no action was selected.
const NoChoice = -1

// Prompter shows update.Prompt values and reads the chosen action.
type Prompter struct {
	in          io.Reader
	out         io.Writer
	scanner     *bufio.Scanner
	interactive bool
	assumeYes   bool

	title    lipgloss.Style
	critical lipgloss.Style
	action   lipgloss.Style
}

// NewPrompter creates a prompter reading stdin and writing stderr.
// Choices are only read when stdin is a terminal.
func NewPrompter() *Prompter {
	p := NewPrompterWithIO(os.Stdin, os.Stderr)
	p.interactive = IsTerminal()
	return p
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	r := lipgloss.NewRenderer(out)
	return &Prompter{
		in:          in,
		out:         out,
		scanner:     bufio.NewScanner(in),
		interactive: true,
		title:       r.NewStyle().Bold(true),
		critical:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		action:      r.NewStyle().Faint(true),
	}
}

// SetAssumeYes makes every prompt choose its first action without asking.
func (p *Prompter) SetAssumeYes(v bool) {
	p.assumeYes = v
}

// IsTerminal checks if stdin is a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Present implements update.Dialog. It returns the index of the chosen
// action, or NoChoice. Prompts with a single action are notices and
// return 0 without reading input.
func (p *Prompter) Present(pr update.Prompt) (int, error) {
	style := p.title
	if pr.Critical {
		style = p.critical
	}
	_, _ = fmt.Fprintln(p.out, style.Render(pr.Title))
	if pr.Description != "" {
		_, _ = fmt.Fprintln(p.out, pr.Description)
	}

	switch {
	case len(pr.Actions) == 0:
		return NoChoice, nil
	case len(pr.Actions) == 1:
		return 0, nil
	case p.assumeYes:
		_, _ = fmt.Fprintln(p.out, p.action.Render("-> "+pr.Actions[0]))
		return 0, nil
	case !p.interactive:
		_, _ = fmt.Fprintln(p.out, p.action.Render("(not a terminal, nothing selected)"))
		return NoChoice, nil
	}

	_, _ = fmt.Fprintln(p.out)
	for i, a := range pr.Actions {
		_, _ = fmt.Fprintf(p.out, "  %d) %s\n", i+1, a)
	}
	_, _ = fmt.Fprintf(p.out, "Choose [1-%d]: ", len(pr.Actions))

	if !p.scanner.Scan() {
		return NoChoice, p.scanner.Err()
	}
	choice := parseChoice(p.scanner.Text(), pr.Actions)
	if choice == NoChoice {
		_, _ = fmt.Fprintln(p.out, "Invalid response, skipping.")
	}
	return choice, nil
}

// parseChoice accepts a 1-based number or an action name.
func parseChoice(input string, actions []string) int {
	input = strings.TrimSpace(input)
	if input == "" {
		return NoChoice
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(actions) {
			return n - 1
		}
		return NoChoice
	}
	for i, a := range actions {
		if strings.EqualFold(input, a) {
			return i
		}
	}
	return NoChoice
}
