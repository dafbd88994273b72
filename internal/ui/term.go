package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/javiermolinar/horario/internal/timetable"
)

// Color definitions for consistent styling across the UI.
var (
	// Placed sessions: bold cyan
	colorPlaced = color.New(color.FgCyan, color.Bold)

	// Pending sessions: yellow, work still to do
	colorPending = color.New(color.FgYellow)

	// Insight/results: yellow to make it pop
	colorInsight = color.New(color.FgYellow)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Stats and clean reports: green
	colorStats = color.New(color.FgGreen)

	// Blocking problems: bold red
	colorError = color.New(color.FgRed, color.Bold)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)

	colorKind = map[timetable.ConflictKind]*color.Color{
		timetable.KindProfessor: color.New(color.FgMagenta, color.Bold),
		timetable.KindRoom:      color.New(color.FgBlue, color.Bold),
		timetable.KindCell:      color.New(color.FgRed),
		timetable.KindBounds:    color.New(color.FgRed, color.Faint),
	}
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isTerminal reports whether stdin is interactive.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

func formatPlaced(s string) string {
	return colorPlaced.Sprint(s)
}

func formatPending(s string) string {
	return colorPending.Sprint(s)
}

func formatInsight(s string) string {
	return colorInsight.Sprint(s)
}

func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

func formatStats(s string) string {
	return colorStats.Sprint(s)
}

func formatError(s string) string {
	return colorError.Sprint(s)
}

func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}

// formatKind pads a conflict kind to a fixed column and colors it.
func formatKind(kind timetable.ConflictKind, width int) string {
	text := string(kind)
	for len(text) < width {
		text += " "
	}
	if c, ok := colorKind[kind]; ok {
		return c.Sprint(text)
	}
	return text
}
