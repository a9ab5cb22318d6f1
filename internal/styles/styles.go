package styles

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWidth = 80

var (
	stdout, renderer = newOutputs(os.Stdout)

	ERROR = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("9")).
			String()
	}
	WARNING = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("11")).
			String()
	}
	// HEADING styles section titles in usage and listings
	HEADING = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("12")).
			Bold().
			String()
	}
	// HINT styles hint text with dimmed appearance (e.g., "Run 'compgen -h' ...")
	HINT = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("244")).
			String()
	}

	// TableTitle frames the title above the run history table.
	TableTitle = renderer.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			PaddingBottom(1)
)

// newOutputs drops colors when f is not a terminal or NO_COLOR is set.
func newOutputs(f *os.File) (*termenv.Output, *lipgloss.Renderer) {
	if !isTerminal(f) || os.Getenv("NO_COLOR") != "" {
		r := lipgloss.NewRenderer(f)
		r.SetColorProfile(termenv.Ascii)
		return termenv.NewOutput(f, termenv.WithProfile(termenv.Ascii)), r
	}
	return termenv.NewOutput(f), lipgloss.NewRenderer(f)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the width of the terminal on stdout, or 80 when stdout is
// not a terminal.
func Width() int {
	if !isTerminal(os.Stdout) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
