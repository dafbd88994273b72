package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/summary"
	"github.com/javiermolinar/horario/internal/timetable"
	"github.com/javiermolinar/horario/internal/tui/view"
	"github.com/javiermolinar/horario/internal/validator"
)

// kindWidth is the width of the conflict kind column.
const kindWidth = 10

// FormatHours formats a whole number of hours.
func FormatHours(hours int) string {
	return fmt.Sprintf("%dh", hours)
}

// LoadBar creates an ASCII bar showing how much of a day is taught.
func LoadBar(hours, capacity, width int) string {
	if capacity <= 0 {
		return "[" + strings.Repeat("░", width) + "]"
	}
	filled := min((hours*width)/capacity, width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s", formatPlaced(bar), formatStats(fmt.Sprintf("%2d/%dh", hours, capacity)))
}

// RenderGrid draws the weekly grid of tt as a bordered table.
func RenderGrid(g *grid.Grid, tt *timetable.Timetable) string {
	l := view.BuildLayout(g, tt.Placements)
	headers := l.Headers()
	rows := l.Rows()

	headerStyles := make([]lipgloss.Style, len(headers))
	cellStyles := make([][]lipgloss.Style, len(rows))
	cell := lipgloss.NewStyle().Padding(0, 1)
	for i := range headerStyles {
		headerStyles[i] = cell.Bold(!color.NoColor)
	}
	for r := range rows {
		cellStyles[r] = make([]lipgloss.Style, len(rows[r]))
		for c := range rows[r] {
			cellStyles[r][c] = cell
		}
	}

	return view.RenderTable(view.TableViewState{
		Headers:      headers,
		HeaderStyles: headerStyles,
		Content:      view.TableContent{Rows: rows, CellStyles: cellStyles},
		BorderStyle:  lipgloss.NewStyle(),
	})
}

// PrintPlacements lists placements with their IDs.
func PrintPlacements(w io.Writer, ps []*timetable.Placement) {
	if len(ps) == 0 {
		fmt.Fprintln(w, formatMuted("  No placements."))
		return
	}
	for _, p := range ps {
		fmt.Fprintf(w, "  #%-4d %s  %s-%s  %-8s g%d  room %-6s %s\n",
			p.ID, p.Day.Short(), p.Start, p.End, p.CourseID, p.Group, p.RoomID, formatMuted(p.ProfessorID))
	}
}

// PrintReport prints a validation report. Conflicts carry a kind column.
func PrintReport(w io.Writer, r validator.Report) {
	if len(r.Conflicts) == 0 {
		fmt.Fprintln(w, formatStats("No conflicts."))
	} else {
		fmt.Fprintln(w, formatHeader(fmt.Sprintf("Conflicts (%d)", len(r.Conflicts))))
		for _, c := range r.Conflicts {
			fmt.Fprintf(w, "  %s %s\n", formatKind(c.Kind, kindWidth), c.Message)
		}
	}

	if len(r.MissingCourses) > 0 {
		fmt.Fprintln(w, formatHeader(fmt.Sprintf("Missing courses (%d)", len(r.MissingCourses))))
		for _, c := range r.MissingCourses {
			fmt.Fprintf(w, "  %-8s %s (cycle %d, %s)\n", c.ID, c.Name, c.Cycle, FormatHours(c.WeeklyHours))
		}
	}
	if len(r.Incomplete) > 0 {
		fmt.Fprintln(w, formatHeader("Groups short of hours"))
		for _, c := range r.Incomplete {
			fmt.Fprintf(w, "  %-8s g%d  %s\n", c.CourseID, c.Group,
				formatPending(fmt.Sprintf("%d/%dh placed", c.PlacedHours, c.RequiredHours)))
		}
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, formatHeader("Warnings"))
		for _, wn := range r.Warnings {
			fmt.Fprintf(w, "  %s\n", formatMuted(wn.Message))
		}
	}

	if r.Clean() {
		fmt.Fprintln(w, formatStats("Ready to publish."))
	} else {
		fmt.Fprintln(w, formatError("Not publishable."))
	}
}

// PrintSummary prints per-day load, course hours, and cycle coverage.
func PrintSummary(w io.Writer, s *summary.Summary, dayCapacity int) {
	fmt.Fprintln(w, formatHeader(fmt.Sprintf("Timetable %s (%s)", s.Period, s.Status)))
	fmt.Fprintln(w, strings.Repeat("─", 40))

	for _, d := range s.Days {
		fmt.Fprintf(w, "  %s %s\n", d.Day.Short(), LoadBar(d.Hours, dayCapacity, 20))
	}

	if len(s.Courses) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, formatHeader("Courses"))
		for _, c := range s.Courses {
			mark := formatPending("…")
			if c.Complete() {
				mark = formatStats("✓")
			}
			fmt.Fprintf(w, "  %s %-8s c%-2d %-28s %2d/%-2dh placed  %2dh planned\n",
				mark, c.CourseID, c.Cycle, truncate(c.Name, 28), c.Placed, c.Required, c.Planned)
		}
	}

	if len(s.Cycles) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, formatHeader("Cycles"))
		for _, c := range s.Cycles {
			fmt.Fprintf(w, "  cycle %-2d %d/%d courses placed\n", c.Cycle, c.Placed, c.InScope)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total: %s  |  Pending sessions: %s\n",
		formatStats(FormatHours(s.TotalHours)), formatPending(fmt.Sprint(s.PendingSessions)))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// PrintInsightWrapped formats and prints insight text preserving structure.
func PrintInsightWrapped(w io.Writer, text string, width int) {
	text = stripMarkdownCodeBlocks(text)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			fmt.Fprintln(w)
			continue
		}

		prefix, content, contentWidth, header := parseInsightLine(trimmed, width)
		if header {
			fmt.Fprintln(w)
			fmt.Fprintln(w, formatHeader("  "+content))
			continue
		}
		wrapAndPrint(w, content, prefix, contentWidth)
	}
}

// parseInsightLine returns how a line of insight text should be printed.
func parseInsightLine(trimmed string, width int) (prefix, content string, contentWidth int, isHeader bool) {
	prefix = "  "
	content = trimmed
	contentWidth = width - 2

	switch {
	case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
		prefix = "    • "
		content = trimmed[2:]
		contentWidth = width - 6

	case strings.HasPrefix(trimmed, "#"):
		content = strings.TrimLeft(trimmed, "# ")
		isHeader = true

	case strings.HasPrefix(trimmed, ">"):
		content = strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))
		prefix = "  │ "
		contentWidth = width - 4

	case isNumberedItem(trimmed):
		idx := strings.Index(trimmed, ".")
		prefix = "  " + trimmed[:idx+1] + " "
		content = strings.TrimSpace(trimmed[idx+1:])
		contentWidth = width - len(prefix)

	case strings.HasSuffix(trimmed, ":") && len(trimmed) < 40:
		// "SUMMARY:" style section labels from the evaluator
		content = strings.TrimSuffix(trimmed, ":")
		isHeader = true
	}

	return prefix, content, contentWidth, isHeader
}

// isNumberedItem checks if a line starts with one or two digits and a period.
func isNumberedItem(s string) bool {
	if len(s) < 3 || s[0] < '1' || s[0] > '9' {
		return false
	}
	if s[1] == '.' {
		return true
	}
	return s[1] >= '0' && s[1] <= '9' && len(s) > 3 && s[2] == '.'
}

// wrapAndPrint wraps text to width and prints it, indenting continuation
// lines under the first.
func wrapAndPrint(w io.Writer, text, prefix string, width int) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}

	indent := strings.Repeat(" ", lipgloss.Width(prefix))
	lead := prefix
	line := ""
	for _, word := range words {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= width:
			line += " " + word
		default:
			fmt.Fprintln(w, formatInsight(lead+line))
			lead = indent
			line = word
		}
	}
	fmt.Fprintln(w, formatInsight(lead+line))
}

// stripMarkdownCodeBlocks removes ```...``` fences and their content.
func stripMarkdownCodeBlocks(text string) string {
	var result []string
	inCodeBlock := false
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if !inCodeBlock {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
