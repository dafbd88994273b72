package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/horario/internal/catalog"
	"github.com/javiermolinar/horario/internal/tui/view"
)

// maxReportLines caps the problems listed under the grid.
const maxReportLines = 5

// View renders the board.
func (m Model) View() string {
	if m.loading {
		return "Loading timetable..."
	}

	sections := []string{m.renderTitle(), m.renderGrid()}
	switch m.mode {
	case ModeSession:
		sections = append(sections, m.renderSessions())
	case ModeRoom:
		sections = append(sections, m.renderRooms())
	default:
		sections = append(sections, m.renderReport())
	}
	sections = append(sections, m.renderFooter())

	out := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return view.TruncateLines(out, m.width)
}

func (m Model) renderTitle() string {
	if m.tt == nil {
		return m.styles.Title.Render("horario")
	}
	title := m.styles.Title.Render(fmt.Sprintf("horario %s", m.tt.Period))
	info := fmt.Sprintf(" %s · %d placements · %d pending", m.tt.Status, len(m.tt.Placements), len(m.pending))
	return title + m.styles.Muted.Render(info)
}

func (m Model) renderGrid() string {
	l := m.layout
	headers := l.Headers()
	headerStyles := make([]lipgloss.Style, len(headers))
	for i := range headerStyles {
		headerStyles[i] = m.styles.Header
	}

	rows := l.Rows()
	cellStyles := make([][]lipgloss.Style, len(rows))
	for r := range rows {
		cellStyles[r] = make([]lipgloss.Style, len(rows[r]))
		cellStyles[r][0] = m.styles.HourCol
		for c := 1; c < len(rows[r]); c++ {
			cellStyles[r][c] = m.cellStyle(r, c-1)
		}
	}

	return view.RenderTable(view.TableViewState{
		Headers:      headers,
		HeaderStyles: headerStyles,
		Content:      view.TableContent{Rows: rows, CellStyles: cellStyles},
		BorderStyle:  m.styles.Border,
	})
}

func (m Model) cellStyle(row, col int) lipgloss.Style {
	if row == m.cursor.Row && col == m.cursor.Col {
		return m.styles.Cursor
	}
	cell := m.layout.Cells[row][col]
	switch cell.Kind {
	case view.CellClash:
		return m.styles.Clash
	case view.CellStart, view.CellCont:
		shade := int(cell.Placement.ID % 2)
		if c, ok := m.eng.Catalog().Course(cell.Placement.CourseID); ok && c.Kind == catalog.KindElective {
			return m.styles.Elective[shade]
		}
		return m.styles.Mandatory[shade]
	default:
		return m.styles.Empty
	}
}

func (m Model) renderSessions() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("Pending sessions") + "\n")
	for i, s := range m.pending {
		line := fmt.Sprintf("%s g%d  %dh", s.CourseID, s.Group, s.Duration)
		if _, g, _, ok := m.plan.Session(s.ID); ok {
			line += fmt.Sprintf("  %s  %d students", g.ProfessorID, g.StudentCount)
		}
		b.WriteString(m.selectorLine(line, i == m.sessionIdx))
	}
	return b.String()
}

func (m Model) renderRooms() string {
	var b strings.Builder
	target := fmt.Sprintf("%s %s", m.layout.Days[m.cursor.Col].Short(), m.layout.Hours[m.cursor.Row])
	b.WriteString(m.styles.Header.Render("Room for "+target) + "\n")
	for i, r := range m.rooms {
		line := fmt.Sprintf("%s  %s  seats %d", r.ID, r.Code, r.Capacity)
		b.WriteString(m.selectorLine(line, i == m.roomIdx))
	}
	return b.String()
}

func (m Model) selectorLine(text string, selected bool) string {
	if selected {
		return m.styles.Selected.Render("> "+text) + "\n"
	}
	return m.styles.Item.Render("  "+text) + "\n"
}

func (m Model) renderReport() string {
	if m.err != nil {
		return m.styles.Error.Render("Error: " + m.err.Error())
	}
	if m.report == nil {
		return m.styles.Muted.Render("Not validated yet")
	}

	r := m.report
	if r.Clean() {
		line := m.styles.OK.Render("Ready to publish")
		if n := len(r.Incomplete); n > 0 {
			line += m.styles.Warning.Render(fmt.Sprintf(" · %d groups short of hours", n))
		}
		return line
	}

	var lines []string
	lines = append(lines, m.styles.Error.Render(fmt.Sprintf("%d conflicts · %d missing courses",
		len(r.Conflicts), len(r.MissingCourses))))
	for _, c := range r.Conflicts {
		lines = append(lines, fmt.Sprintf("  %-9s %s", c.Kind, c.Message))
	}
	for _, c := range r.MissingCourses {
		lines = append(lines, fmt.Sprintf("  %-9s %s %s", "missing", c.ID, c.Name))
	}
	if len(lines) > maxReportLines+1 {
		more := len(lines) - maxReportLines - 1
		lines = append(lines[:maxReportLines+1], m.styles.Muted.Render(fmt.Sprintf("  ... %d more (y copies all)", more)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	footer := m.help.View(m.keys)
	if m.statusMsg != "" {
		footer = m.styles.Warning.Render(m.statusMsg) + "\n" + footer
	}
	return footer
}
