package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/horario/internal/tui/theme"
)

// Styles holds the lipgloss styles of the board, derived from a palette.
type Styles struct {
	Title     lipgloss.Style
	Header    lipgloss.Style
	HourCol   lipgloss.Style
	Empty     lipgloss.Style
	Cursor    lipgloss.Style
	Mandatory [2]lipgloss.Style // base and alternate shade
	Elective  [2]lipgloss.Style
	Clash     lipgloss.Style
	Border    lipgloss.Style

	Selected lipgloss.Style
	Item     lipgloss.Style
	Muted    lipgloss.Style
	OK       lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
}

// NewStyles builds styles from p.
func NewStyles(p *theme.Palette) Styles {
	cell := lipgloss.NewStyle().Padding(0, 1)
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(p.TextOnAccent).Background(p.Accent).Padding(0, 1),
		Header:  cell.Bold(true).Foreground(p.Accent),
		HourCol: cell.Foreground(p.FgMuted),
		Empty:   cell.Foreground(p.Fg),
		Cursor:  cell.Bold(true).Foreground(p.Fg).Background(p.BgSelection),
		Mandatory: [2]lipgloss.Style{
			cell.Foreground(p.TextOnMandatory).Background(p.MandatoryBg),
			cell.Foreground(p.TextOnMandatory).Background(p.MandatoryBgAlt),
		},
		Elective: [2]lipgloss.Style{
			cell.Foreground(p.TextOnElective).Background(p.ElectiveBg),
			cell.Foreground(p.TextOnElective).Background(p.ElectiveBgAlt),
		},
		Clash:  cell.Bold(true).Foreground(p.TextOnConflict).Background(p.Conflict),
		Border: lipgloss.NewStyle().Foreground(p.Accent),

		Selected: lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Item:     lipgloss.NewStyle().Foreground(p.Fg),
		Muted:    lipgloss.NewStyle().Foreground(p.FgMuted),
		OK:       lipgloss.NewStyle().Foreground(p.Elective),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(p.Conflict),
		Warning:  lipgloss.NewStyle().Foreground(p.Warning),
	}
}
