package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/javiermolinar/horario/internal/catalog"
	"github.com/javiermolinar/horario/internal/db"
	"github.com/javiermolinar/horario/internal/engine"
	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/period"
	"github.com/javiermolinar/horario/internal/planner"
	"github.com/javiermolinar/horario/internal/timetable"
)

var term2025I = period.Period{Year: 2025, Term: period.TermI}

const catalogYAML = `
courses:
  - id: ALG
    name: Algoritmos
    cycle: 3
    weekly_hours: 4
    kind: mandatory
  - id: FIS
    name: Fisica II
    cycle: 3
    weekly_hours: 2
    kind: mandatory
  - id: CAL1
    name: Calculo I
    cycle: 1
    weekly_hours: 5
    kind: mandatory
  - id: BD
    name: Bases de Datos
    cycle: 4
    weekly_hours: 4
    kind: mandatory
  - id: ETI
    name: Etica
    cycle: 3
    weekly_hours: 2
    kind: elective
professors:
  - id: PX
    name: Professor X
  - id: PY
    name: Professor Y
  - id: PZ
    name: Professor Z
rooms:
  - id: R1
    code: A-101
    capacity: 30
  - id: R2
    code: A-102
    capacity: 30
  - id: R3
    code: B-201
    capacity: 60
`

// writeCatalog stores the test catalog in dir and returns its path.
func writeCatalog(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(catalogYAML), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	return path
}

// openEngine loads the catalog file and opens the database at dbPath. The
// repository is closed when the test ends; close it earlier to reopen.
func openEngine(t *testing.T, catalogPath, dbPath string) (*engine.Engine, *db.SQLite) {
	t.Helper()
	src, err := catalog.Load(catalogPath)
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	repo, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return engine.New(repo, src, grid.Default()), repo
}

// newEngine returns an engine over a fresh database.
func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	dir := t.TempDir()
	eng, _ := openEngine(t, writeCatalog(t, dir), filepath.Join(dir, "test.db"))
	t.Cleanup(eng.Wait)
	return eng
}

func mustCreate(t *testing.T, eng *engine.Engine, p period.Period) *timetable.Timetable {
	t.Helper()
	tt, err := eng.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("Create(%s) failed: %v", p, err)
	}
	return tt
}

// planCourse plans courseID with one group per professor. Each group is
// split into sessions of the given durations and the course is submitted.
// It returns the session IDs per group.
func planCourse(t *testing.T, eng *engine.Engine, ttID int64, courseID string, professors []string, durations ...int) [][]string {
	t.Helper()
	ctx := context.Background()
	if _, err := eng.PlanCourse(ctx, ttID, courseID, len(professors)); err != nil {
		t.Fatalf("PlanCourse(%s) failed: %v", courseID, err)
	}

	ids := make([][]string, len(professors))
	_, err := eng.UpdatePlan(ctx, ttID, func(p *planner.Plan) error {
		cp, _ := p.Course(courseID)
		for i, g := range cp.Groups {
			if len(durations) > 1 {
				if _, err := p.SplitSession(courseID, g.Sessions[0].ID, durations...); err != nil {
					return err
				}
			}
			if err := p.AssignGroup(courseID, g.ID, professors[i], 25); err != nil {
				return err
			}
			for _, s := range g.Sessions {
				ids[i] = append(ids[i], s.ID)
			}
		}
		return p.Submit(courseID)
	})
	if err != nil {
		t.Fatalf("planning %s failed: %v", courseID, err)
	}
	return ids
}

func place(eng *engine.Engine, ttID int64, sessionID string, day grid.Day, start, room string) (*timetable.Placement, error) {
	return eng.Place(context.Background(), engine.PlaceRequest{
		TimetableID: ttID,
		SessionID:   sessionID,
		Day:         day,
		Start:       start,
		RoomID:      room,
	})
}

func mustPlace(t *testing.T, eng *engine.Engine, ttID int64, sessionID string, day grid.Day, start, room string) *timetable.Placement {
	t.Helper()
	p, err := place(eng, ttID, sessionID, day, start, room)
	if err != nil {
		t.Fatalf("Place(%s %s %s) failed: %v", day, start, room, err)
	}
	return p
}
