package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/maxvaer/credfuzz/internal/scanner"
)

// TextWriter writes one human-readable line per attempt.
type TextWriter struct {
	out     *Target
	found   lipgloss.Style
	failed  lipgloss.Style
	errored lipgloss.Style
	dim     lipgloss.Style
}

// NewTextWriter creates a text writer. color enables ANSI styling.
func NewTextWriter(out *Target, color bool) *TextWriter {
	r := lipgloss.NewRenderer(out)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &TextWriter{
		out:     out,
		found:   r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		failed:  r.NewStyle().Foreground(lipgloss.Color("8")),
		errored: r.NewStyle().Foreground(lipgloss.Color("11")),
		dim:     r.NewStyle().Faint(true),
	}
}

func (t *TextWriter) WriteHeader() error { return nil }

func (t *TextWriter) WriteAttempt(a *scanner.Attempt) error {
	_, err := fmt.Fprintln(t.out, t.format(a))
	return err
}

func (t *TextWriter) format(a *scanner.Attempt) string {
	switch a.Class() {
	case scanner.ClassError:
		return t.errored.Render(fmt.Sprintf("%s error with '%s': %v", a.Class().Prefix(), a.Candidate, a.Error))

	case scanner.ClassSuccess:
		var b strings.Builder
		fmt.Fprintf(&b, "%s FOUND: %s | [%d]", a.Class().Prefix(), a.Candidate, a.StatusCode)
		if a.RedirectURL != "" {
			fmt.Fprintf(&b, " redirected to: %s", a.RedirectURL)
		}
		fmt.Fprintf(&b, " | length=%d | size=%d", a.Length, a.Size)
		line := t.found.Render(b.String())
		if c := a.Confirm; c != nil {
			if c.Error != nil {
				line += t.dim.Render(fmt.Sprintf(" | follow-up error: %v", c.Error))
			} else {
				line += t.dim.Render(fmt.Sprintf(" | follow-up [%d] length=%d size=%d", c.StatusCode, c.Length, c.Size))
			}
		}
		return line

	default:
		return t.failed.Render(fmt.Sprintf("%s %s | [%d] length=%d | size=%d",
			a.Class().Prefix(), a.Candidate, a.StatusCode, a.Length, a.Size))
	}
}

func (t *TextWriter) WriteFooter(stats Stats) error {
	_, err := fmt.Fprintln(t.out, Summary(stats))
	return err
}

func (t *TextWriter) Close() error {
	return t.out.Close()
}

// Summary renders the one-line end-of-run report.
func Summary(stats Stats) string {
	found := "none"
	if len(stats.Found) > 0 {
		found = strings.Join(stats.Found, ", ")
	}
	state := "done"
	switch {
	case stats.Interrupted:
		state = "interrupted"
	case len(stats.Found) > 0:
		state = "stopped on success"
	}
	return fmt.Sprintf("[*] %s: %d/%d attempted | %d failed | %d errors | found: %s | %s | %.1f req/s",
		state,
		stats.Attempts, stats.Candidates,
		stats.Failed,
		stats.Errors,
		found,
		stats.Duration.Round(time.Millisecond),
		stats.RequestsPerSec,
	)
}
