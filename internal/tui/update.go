package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/horario/internal/engine"
	"github.com/javiermolinar/horario/internal/timetable"
	"github.com/javiermolinar/horario/internal/tui/commands"
	"github.com/javiermolinar/horario/internal/validator"
)

const statusTimeout = 4 * time.Second

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case commands.SnapshotMsg:
		m.loading = false
		m.err = nil
		m.setSnapshot(msg.Timetable, msg.Plan)
		return m, nil

	case commands.PlacedMsg:
		m.mode = ModeGrid
		return m.withStatus(fmt.Sprintf("Placed %s", msg.Placement), commands.Load(m.eng, m.timetableID))

	case commands.RemovedMsg:
		return m.withStatus(fmt.Sprintf("Removed %s", msg.Placement), commands.Load(m.eng, m.timetableID))

	case commands.ReportMsg:
		var next tea.Cmd
		if msg.Advisory {
			next = commands.Listen(m.reports)
			if msg.TimetableID != m.timetableID {
				return m, next
			}
		}
		if msg.Err != nil {
			m.err = msg.Err
			return m, next
		}
		report := msg.Report
		m.report = &report
		m.reportText = formatReport(m.tt, report)
		return m, next

	case commands.ErrMsg:
		m.loading = false
		if engine.IsRejection(msg.Err) {
			return m.withStatus("Rejected: "+msg.Err.Error(), nil)
		}
		m.err = msg.Err
		return m, nil

	case commands.StatusMsgCmd:
		return m.withStatus(msg.Msg, nil)

	case commands.ClearStatusMsg:
		m.statusMsg = ""
		return m, nil
	}
	return m, nil
}

func (m Model) withStatus(s string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.statusMsg = s
	return m, tea.Batch(cmd, commands.ClearStatusAfter(statusTimeout))
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if msg.String() == "q" && m.mode != ModeGrid {
			m.mode = ModeGrid
			return m, nil
		}
		return m, tea.Quit
	}

	switch m.mode {
	case ModeSession:
		return m.handleSessionKeys(msg)
	case ModeRoom:
		return m.handleRoomKeys(msg)
	default:
		return m.handleGridKeys(msg)
	}
}

func (m Model) handleGridKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor.Row > 0 {
			m.cursor.Row--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor.Row < len(m.layout.Hours)-1 {
			m.cursor.Row++
		}
	case key.Matches(msg, m.keys.Left):
		if m.cursor.Col > 0 {
			m.cursor.Col--
		}
	case key.Matches(msg, m.keys.Right):
		if m.cursor.Col < len(m.layout.Days)-1 {
			m.cursor.Col++
		}

	case key.Matches(msg, m.keys.Place):
		if m.tt == nil {
			return m, nil
		}
		if !m.tt.IsDraft() {
			return m.withStatus("Timetable is confirmed", nil)
		}
		if len(m.pending) == 0 {
			return m.withStatus("Nothing pending", nil)
		}
		m.mode = ModeSession

	case key.Matches(msg, m.keys.Remove):
		p := m.cursorPlacement()
		if p == nil {
			return m.withStatus("No placement here", nil)
		}
		if m.tt != nil && !m.tt.IsDraft() {
			return m.withStatus("Timetable is confirmed", nil)
		}
		return m, commands.Remove(m.eng, m.timetableID, p.ID)

	case key.Matches(msg, m.keys.Validate):
		return m.withStatus("Validating...", commands.Validate(m.eng, m.timetableID))

	case key.Matches(msg, m.keys.Copy):
		if m.reportText == "" {
			return m.withStatus("No report yet, press v", nil)
		}
		if err := clipboard.WriteAll(m.reportText); err != nil {
			return m.withStatus(fmt.Sprintf("Copy failed: %v", err), nil)
		}
		return m.withStatus("Copied report", nil)
	}
	return m, nil
}

func (m Model) handleSessionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeGrid
	case key.Matches(msg, m.keys.Up):
		if m.sessionIdx > 0 {
			m.sessionIdx--
		}
	case key.Matches(msg, m.keys.Down):
		if m.sessionIdx < len(m.pending)-1 {
			m.sessionIdx++
		}
	case key.Matches(msg, m.keys.Place):
		m.roomIdx = m.preferredRoom()
		m.mode = ModeRoom
	}
	return m, nil
}

func (m Model) handleRoomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeSession
	case key.Matches(msg, m.keys.Up):
		if m.roomIdx > 0 {
			m.roomIdx--
		}
	case key.Matches(msg, m.keys.Down):
		if m.roomIdx < len(m.rooms)-1 {
			m.roomIdx++
		}
	case key.Matches(msg, m.keys.Place):
		req, err := m.placeRequest()
		if err != nil {
			m.mode = ModeGrid
			return m.withStatus(err.Error(), nil)
		}
		return m, commands.Place(m.eng, req)
	}
	return m, nil
}

func (m Model) placeRequest() (engine.PlaceRequest, error) {
	if m.sessionIdx >= len(m.pending) {
		return engine.PlaceRequest{}, errors.New("no session selected")
	}
	if m.roomIdx >= len(m.rooms) {
		return engine.PlaceRequest{}, errors.New("catalog has no rooms")
	}
	return engine.PlaceRequest{
		TimetableID: m.timetableID,
		SessionID:   m.pending[m.sessionIdx].ID,
		Day:         m.layout.Days[m.cursor.Col],
		Start:       m.layout.Hours[m.cursor.Row].String(),
		RoomID:      m.rooms[m.roomIdx].ID,
	}, nil
}

// formatReport renders a report as plain text for the clipboard.
func formatReport(tt *timetable.Timetable, r validator.Report) string {
	var b strings.Builder
	if tt != nil {
		fmt.Fprintf(&b, "Timetable %s (%s)", tt.Period, tt.Status)
	} else {
		b.WriteString("Timetable")
	}
	if r.Clean() && len(r.Incomplete) == 0 && len(r.Warnings) == 0 {
		b.WriteString(": no problems\n")
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(r.FormatErrors())
	for _, c := range r.Incomplete {
		fmt.Fprintf(&b, "- %s group %d: %d/%dh placed\n", c.CourseID, c.Group, c.PlacedHours, c.RequiredHours)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "- warning: %s\n", w.Message)
	}
	return b.String()
}
