// Package tui provides the interactive timetable board.
package tui

import (
	"sort"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/horario/internal/catalog"
	"github.com/javiermolinar/horario/internal/engine"
	"github.com/javiermolinar/horario/internal/planner"
	"github.com/javiermolinar/horario/internal/timetable"
	"github.com/javiermolinar/horario/internal/tui/commands"
	"github.com/javiermolinar/horario/internal/tui/theme"
	"github.com/javiermolinar/horario/internal/tui/view"
	"github.com/javiermolinar/horario/internal/validator"
)

// Mode is the current interaction mode.
type Mode int

const (
	ModeGrid    Mode = iota
	ModeSession      // choosing the pending session to place
	ModeRoom         // choosing the room
)

// Position is a cursor position in the grid.
type Position struct {
	Row int // index into the slot hours
	Col int // index into the grid days
}

// Model is the board model.
type Model struct {
	eng         *engine.Engine
	timetableID int64
	reports     commands.Reports

	keys   keyMap
	help   help.Model
	styles Styles

	tt      *timetable.Timetable
	plan    *planner.Plan
	layout  view.Layout
	pending []*planner.Session
	rooms   []catalog.Room

	mode       Mode
	cursor     Position
	sessionIdx int
	roomIdx    int

	report     *validator.Report
	reportText string
	statusMsg  string
	err        error
	loading    bool

	width  int
	height int
}

// Option configures a Model.
type Option func(*Model)

// WithTheme selects the color theme by name.
func WithTheme(name string) Option {
	return func(m *Model) {
		t, err := theme.Load(name)
		if err != nil {
			return
		}
		m.styles = NewStyles(theme.NewPalette(t))
	}
}

// WithReports subscribes the board to advisory engine reports.
func WithReports(r commands.Reports) Option {
	return func(m *Model) { m.reports = r }
}

// New creates a board for one timetable.
func New(eng *engine.Engine, timetableID int64, opts ...Option) Model {
	m := Model{
		eng:         eng,
		timetableID: timetableID,
		keys:        defaultKeys(),
		help:        help.New(),
		styles:      NewStyles(theme.NewPalette(nil)),
		layout:      view.BuildLayout(eng.Grid(), nil),
		rooms:       sortedRooms(eng.Catalog().Rooms()),
		loading:     true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init loads the timetable and starts listening for reports.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		commands.Load(m.eng, m.timetableID),
		commands.Validate(m.eng, m.timetableID),
		commands.Listen(m.reports),
	)
}

// Run starts the board and blocks until the user quits.
func Run(eng *engine.Engine, timetableID int64, opts ...Option) error {
	p := tea.NewProgram(New(eng, timetableID, opts...), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// setSnapshot installs freshly loaded state and clamps the selectors.
func (m *Model) setSnapshot(tt *timetable.Timetable, plan *planner.Plan) {
	m.tt, m.plan = tt, plan
	m.layout = view.BuildLayout(m.eng.Grid(), tt.Placements)
	m.pending = placeable(plan)
	if m.sessionIdx >= len(m.pending) {
		m.sessionIdx = max(len(m.pending)-1, 0)
	}
	if len(m.pending) == 0 && m.mode != ModeGrid {
		m.mode = ModeGrid
	}
}

// placeable returns pending sessions of submitted course plans ordered by
// course and group.
func placeable(plan *planner.Plan) []*planner.Session {
	var out []*planner.Session
	for _, s := range plan.PendingSessions() {
		if cp, ok := plan.Course(s.CourseID); ok && cp.Submitted {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CourseID != out[j].CourseID {
			return out[i].CourseID < out[j].CourseID
		}
		return out[i].Group < out[j].Group
	})
	return out
}

func sortedRooms(rooms []catalog.Room) []catalog.Room {
	out := append([]catalog.Room(nil), rooms...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Capacity != out[j].Capacity {
			return out[i].Capacity < out[j].Capacity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// preferredRoom returns the index of the smallest room that seats the
// selected session's group, or 0.
func (m Model) preferredRoom() int {
	if m.sessionIdx >= len(m.pending) {
		return 0
	}
	_, g, _, ok := m.plan.Session(m.pending[m.sessionIdx].ID)
	if !ok {
		return 0
	}
	for i, r := range m.rooms {
		if r.Capacity >= g.StudentCount {
			return i
		}
	}
	return 0
}

func (m Model) cursorPlacement() *timetable.Placement {
	if m.cursor.Row >= len(m.layout.Cells) || m.cursor.Col >= len(m.layout.Days) {
		return nil
	}
	return m.layout.Cells[m.cursor.Row][m.cursor.Col].Placement
}
