package commands

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/javiermolinar/horario/internal/catalog"
	"github.com/javiermolinar/horario/internal/db"
	"github.com/javiermolinar/horario/internal/engine"
	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/period"
	"github.com/javiermolinar/horario/internal/planner"
	"github.com/javiermolinar/horario/internal/timetable"
	"github.com/javiermolinar/horario/internal/validator"
)

// newBoardEngine returns an engine with a draft 2025-I timetable where ALG
// (one 2h session) and FIS (one 2h session) are submitted.
func newBoardEngine(t *testing.T) (*engine.Engine, int64, []string) {
	t.Helper()
	c, err := catalog.New(
		[]catalog.Course{
			{ID: "ALG", Name: "Algoritmos", Cycle: 1, WeeklyHours: 2, Kind: catalog.KindMandatory},
			{ID: "FIS", Name: "Fisica", Cycle: 1, WeeklyHours: 2, Kind: catalog.KindMandatory},
		},
		[]catalog.Professor{{ID: "P1", Name: "Ada"}, {ID: "P2", Name: "Alan"}},
		[]catalog.Room{{ID: "R1", Code: "A-101", Capacity: 40}, {ID: "R2", Code: "A-102", Capacity: 40}},
	)
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	repo, err := db.New(filepath.Join(t.TempDir(), "board.db"))
	if err != nil {
		t.Fatalf("db.New failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	eng := engine.New(repo, c, grid.Default())
	ctx := context.Background()
	tt, err := eng.Create(ctx, period.Period{Year: 2025, Term: period.TermI})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var sessions []string
	for course, prof := range map[string]string{"ALG": "P1", "FIS": "P2"} {
		if _, err := eng.PlanCourse(ctx, tt.ID, course, 1); err != nil {
			t.Fatalf("PlanCourse failed: %v", err)
		}
		_, err := eng.UpdatePlan(ctx, tt.ID, func(p *planner.Plan) error {
			if err := p.AssignGroup(course, 1, prof, 20); err != nil {
				return err
			}
			cp, _ := p.Course(course)
			sessions = append(sessions, cp.Groups[0].Sessions[0].ID)
			return p.Submit(course)
		})
		if err != nil {
			t.Fatalf("UpdatePlan failed: %v", err)
		}
	}
	return eng, tt.ID, sessions
}

func TestLoadReturnsSnapshot(t *testing.T) {
	eng, id, _ := newBoardEngine(t)

	msg := Load(eng, id)()
	snap, ok := msg.(SnapshotMsg)
	if !ok {
		t.Fatalf("msg = %T, want SnapshotMsg", msg)
	}
	if snap.Timetable.ID != id || len(snap.Plan.PendingSessions()) != 2 {
		t.Errorf("snapshot = %+v, want two pending sessions", snap)
	}
}

func TestLoadMissingTimetable(t *testing.T) {
	eng, _, _ := newBoardEngine(t)

	msg := Load(eng, 999)()
	errMsg, ok := msg.(ErrMsg)
	if !ok || !errors.Is(errMsg.Err, timetable.ErrNotFound) {
		t.Fatalf("msg = %#v, want ErrMsg wrapping ErrNotFound", msg)
	}
}

func TestPlaceAndRemove(t *testing.T) {
	eng, id, sessions := newBoardEngine(t)

	msg := Place(eng, engine.PlaceRequest{TimetableID: id, SessionID: sessions[0], Day: grid.Monday, Start: "09:00", RoomID: "R1"})()
	placed, ok := msg.(PlacedMsg)
	if !ok {
		t.Fatalf("msg = %#v, want PlacedMsg", msg)
	}

	msg = Place(eng, engine.PlaceRequest{TimetableID: id, SessionID: sessions[1], Day: grid.Monday, Start: "10:00", RoomID: "R2"})()
	errMsg, ok := msg.(ErrMsg)
	if !ok || !errors.Is(errMsg.Err, timetable.ErrCellOccupied) {
		t.Fatalf("msg = %#v, want ErrMsg wrapping ErrCellOccupied", msg)
	}

	msg = Remove(eng, id, placed.Placement.ID)()
	if removed, ok := msg.(RemovedMsg); !ok || removed.Placement.ID != placed.Placement.ID {
		t.Fatalf("msg = %#v, want RemovedMsg for #%d", msg, placed.Placement.ID)
	}
}

func TestValidateReportsMissingCourses(t *testing.T) {
	eng, id, _ := newBoardEngine(t)

	msg := Validate(eng, id)()
	rep, ok := msg.(ReportMsg)
	if !ok {
		t.Fatalf("msg = %T, want ReportMsg", msg)
	}
	if rep.Err != nil || rep.Advisory {
		t.Errorf("report = %+v, want on-demand report without error", rep)
	}
	if len(rep.Report.MissingCourses) != 2 {
		t.Errorf("missing = %+v, want ALG and FIS", rep.Report.MissingCourses)
	}
}

func TestReportsHandlerDropsWhenFull(t *testing.T) {
	r := make(Reports, 1)
	r.Handler(1, validator.Report{}, nil)
	r.Handler(2, validator.Report{}, nil)

	msg := Listen(r)()
	rep, ok := msg.(ReportMsg)
	if !ok || rep.TimetableID != 1 || !rep.Advisory {
		t.Fatalf("msg = %#v, want first advisory report", msg)
	}
	if len(r) != 0 {
		t.Errorf("buffer holds %d reports, want 0", len(r))
	}
}

func TestListenNil(t *testing.T) {
	if Listen(nil) != nil {
		t.Error("Listen(nil) must return a nil command")
	}
}
