// Package commands provides board command constructors and message types.
package commands

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/horario/internal/engine"
	"github.com/javiermolinar/horario/internal/planner"
	"github.com/javiermolinar/horario/internal/timetable"
	"github.com/javiermolinar/horario/internal/validator"
)

// SnapshotMsg carries a freshly loaded timetable and its plan.
type SnapshotMsg struct {
	Timetable *timetable.Timetable
	Plan      *planner.Plan
}

// PlacedMsg is sent when a session was committed.
type PlacedMsg struct {
	Placement *timetable.Placement
}

// RemovedMsg is sent when a placement was removed.
type RemovedMsg struct {
	Placement *timetable.Placement
}

// ReportMsg carries a validation report, either requested with v or
// delivered by the engine after a mutation.
type ReportMsg struct {
	TimetableID int64
	Report      validator.Report
	Err         error
	Advisory    bool
}

// ErrMsg is sent when an operation fails.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// Reports buffers advisory reports from the engine until the board reads
// them. Handler is meant for engine.WithReportHandler.
type Reports chan ReportMsg

// NewReports creates a report buffer.
func NewReports() Reports {
	return make(Reports, 16)
}

// Handler forwards engine reports. Reports are dropped when the buffer is
// full; a newer one will follow the next mutation.
func (r Reports) Handler(timetableID int64, report validator.Report, err error) {
	select {
	case r <- ReportMsg{TimetableID: timetableID, Report: report, Err: err, Advisory: true}:
	default:
	}
}

// Listen waits for the next advisory report.
func Listen(r Reports) tea.Cmd {
	if r == nil {
		return nil
	}
	return func() tea.Msg {
		return <-r
	}
}

// Load reads the timetable and plan.
func Load(eng *engine.Engine, timetableID int64) tea.Cmd {
	return func() tea.Msg {
		tt, plan, err := eng.Snapshot(context.Background(), timetableID)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return SnapshotMsg{Timetable: tt, Plan: plan}
	}
}

// Place commits a session.
func Place(eng *engine.Engine, req engine.PlaceRequest) tea.Cmd {
	return func() tea.Msg {
		p, err := eng.Place(context.Background(), req)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return PlacedMsg{Placement: p}
	}
}

// Remove deletes a placement.
func Remove(eng *engine.Engine, timetableID, placementID int64) tea.Cmd {
	return func() tea.Msg {
		p, err := eng.Remove(context.Background(), timetableID, placementID)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return RemovedMsg{Placement: p}
	}
}

// Validate runs the full sweep on demand.
func Validate(eng *engine.Engine, timetableID int64) tea.Cmd {
	return func() tea.Msg {
		report, err := eng.Validate(context.Background(), timetableID)
		return ReportMsg{TimetableID: timetableID, Report: report, Err: err}
	}
}

// ClearStatusAfter clears the status line after d.
func ClearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
