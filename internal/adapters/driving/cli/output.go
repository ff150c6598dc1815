package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2F80ED"))
	fileStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#27AE9F"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7A8494"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6FCF97"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EB5757"))
)

// printer writes plain text, or styled text when stdout is a terminal.
type printer struct {
	w      io.Writer
	styled bool
}

func newPrinter(cmd *cobra.Command) *printer {
	w := cmd.OutOrStdout()
	return &printer{w: w, styled: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

func (p *printer) heading(text string) {
	fmt.Fprintln(p.w, p.render(headingStyle, text))
}

func (p *printer) muted(format string, args ...any) {
	fmt.Fprintln(p.w, p.render(mutedStyle, fmt.Sprintf(format, args...)))
}

func (p *printer) check(ok bool, text string) {
	if ok {
		fmt.Fprintln(p.w, p.render(okStyle, "✓ ")+text)
		return
	}
	fmt.Fprintln(p.w, p.render(failStyle, "✗ ")+text)
}

// context prints retrieved context, highlighting "[File: ...]" headers.
func (p *printer) context(text string) {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "[File: ") {
			line = p.render(fileStyle, line)
		}
		fmt.Fprintln(p.w, line)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
