// Package engine places planned sessions on the timetable grid and drives
// the timetable lifecycle. All mutations of one timetable are serialized.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/javiermolinar/horario/internal/catalog"
	"github.com/javiermolinar/horario/internal/eventlog"
	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/period"
	"github.com/javiermolinar/horario/internal/planner"
	"github.com/javiermolinar/horario/internal/timetable"
	"github.com/javiermolinar/horario/internal/validator"
)

// PublishBlockedError is returned when a timetable fails validation on
// publish. It carries the full report so the caller can resolve and retry.
type PublishBlockedError struct {
	Report validator.Report
}

func (e *PublishBlockedError) Error() string {
	return fmt.Sprintf("%v: %d conflicts, %d missing courses",
		timetable.ErrPublishBlocked, len(e.Report.Conflicts), len(e.Report.MissingCourses))
}

func (e *PublishBlockedError) Unwrap() error {
	return timetable.ErrPublishBlocked
}

// ReportHandler receives advisory validation results after each placement
// attempt or removal. It is called from a background goroutine.
type ReportHandler func(timetableID int64, report validator.Report, err error)

// Option configures an Engine.
type Option func(*Engine)

// WithEventLog sets the event logger.
func WithEventLog(l *eventlog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithReportHandler enables advisory revalidation and sets its receiver.
func WithReportHandler(h ReportHandler) Option {
	return func(e *Engine) { e.onReport = h }
}

// Engine coordinates the repository, catalog, and grid.
type Engine struct {
	repo timetable.Repository
	src  catalog.Source
	grid *grid.Grid
	log  *eventlog.Logger

	locks keyedMutex

	onReport ReportHandler
	flight   singleflight.Group
	genMu    sync.Mutex
	gens     map[int64]uint64
	pending  sync.WaitGroup
}

// New creates an Engine.
func New(repo timetable.Repository, src catalog.Source, g *grid.Grid, opts ...Option) *Engine {
	if g == nil {
		g = grid.Default()
	}
	e := &Engine{
		repo: repo,
		src:  src,
		grid: g,
		gens: make(map[int64]uint64),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Grid returns the grid the engine places on.
func (e *Engine) Grid() *grid.Grid {
	return e.grid
}

// Catalog returns the catalog the engine reads from.
func (e *Engine) Catalog() catalog.Source {
	return e.src
}

// PlaceRequest identifies a pending session and its target.
type PlaceRequest struct {
	TimetableID int64
	SessionID   string
	Day         grid.Day
	Start       string // "HH:MM"
	RoomID      string
}

// Place commits a pending session to the grid, or rejects it leaving state
// unchanged. Either outcome schedules an advisory revalidation.
func (e *Engine) Place(ctx context.Context, req PlaceRequest) (*timetable.Placement, error) {
	unlock := e.locks.Lock(req.TimetableID)
	defer unlock()

	p, err := e.place(ctx, req)
	if err != nil {
		e.log.Log(eventlog.PlacementRejected, map[string]any{
			"timetable_id": req.TimetableID,
			"session_id":   req.SessionID,
			"day":          req.Day.String(),
			"start":        req.Start,
			"room_id":      req.RoomID,
			"reason":       err.Error(),
		})
	} else {
		e.log.Log(eventlog.PlacementCommitted, map[string]any{
			"timetable_id": p.TimetableID,
			"placement_id": p.ID,
			"session_id":   p.SessionID,
			"course_id":    p.CourseID,
			"group":        p.Group,
			"day":          p.Day.String(),
			"start":        p.Start,
			"end":          p.End,
			"room_id":      p.RoomID,
		})
	}

	e.revalidate(req.TimetableID)
	return p, err
}

func (e *Engine) place(ctx context.Context, req PlaceRequest) (*timetable.Placement, error) {
	tt, err := e.repo.GetTimetable(ctx, req.TimetableID)
	if err != nil {
		return nil, err
	}
	if !tt.IsDraft() {
		return nil, fmt.Errorf("timetable %s: %w", tt.Period, timetable.ErrNotDraft)
	}

	plan, err := e.repo.LoadPlan(ctx, tt.ID)
	if err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}
	candidate, err := e.candidate(plan, req)
	if err != nil {
		return nil, err
	}

	if err := Check(e.grid, tt.Placements, candidate); err != nil {
		return nil, err
	}

	if err := e.repo.AddPlacement(ctx, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// Candidate builds the placement a request would create without checking
// it against existing placements.
func (e *Engine) Candidate(plan *planner.Plan, req PlaceRequest) (*timetable.Placement, error) {
	return e.candidate(plan, req)
}

func (e *Engine) candidate(plan *planner.Plan, req PlaceRequest) (*timetable.Placement, error) {
	s, g, cp, ok := plan.Session(req.SessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", req.SessionID, timetable.ErrNotFound)
	}
	if s.Placed {
		return nil, fmt.Errorf("session %s: %w", req.SessionID, planner.ErrSessionPlaced)
	}
	if !cp.Submitted {
		return nil, fmt.Errorf("%s: %w", cp.CourseID, planner.ErrPlanNotSubmitted)
	}
	if _, ok := e.src.Room(req.RoomID); !ok {
		return nil, fmt.Errorf("room %s: %w", req.RoomID, timetable.ErrNotFound)
	}

	if _, err := e.grid.OccupiedSlots(req.Day, req.Start, s.Duration); err != nil {
		return nil, err
	}
	end, err := grid.ComputeEndTime(req.Start, s.Duration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", timetable.ErrOutOfGrid, err)
	}

	return &timetable.Placement{
		TimetableID: req.TimetableID,
		SessionID:   s.ID,
		CourseID:    cp.CourseID,
		Group:       g.ID,
		ProfessorID: g.ProfessorID,
		RoomID:      req.RoomID,
		Day:         req.Day,
		Start:       req.Start,
		End:         end,
		Duration:    s.Duration,
	}, nil
}

// Check tests candidate against existing placements. Cells must lie in
// the grid. A candidate touching no occupied cell passes without further
// checks; otherwise the first professor, room, or cell conflict is returned.
func Check(g *grid.Grid, existing []*timetable.Placement, candidate *timetable.Placement) error {
	cells, err := candidate.Cells(g)
	if err != nil {
		return err
	}

	occupied := grid.NewCellSet()
	for _, p := range existing {
		pc, err := p.Cells(g)
		if err != nil {
			// out-of-grid rows still block the time they claim
			occupied = nil
			break
		}
		occupied.Add(pc...)
	}
	if occupied != nil {
		if _, hit := occupied.Intersects(cells); !hit {
			return nil
		}
	}

	return timetable.CheckOverlap(existing, candidate)
}

// Remove deletes a placement. Its session returns to pending unless it was
// re-planned in the meantime.
func (e *Engine) Remove(ctx context.Context, timetableID, placementID int64) (*timetable.Placement, error) {
	unlock := e.locks.Lock(timetableID)
	defer unlock()

	p, err := e.repo.RemovePlacement(ctx, timetableID, placementID)
	if err != nil {
		return nil, err
	}
	e.log.Log(eventlog.PlacementRemoved, map[string]any{
		"timetable_id": timetableID,
		"placement_id": placementID,
		"session_id":   p.SessionID,
		"course_id":    p.CourseID,
	})

	e.revalidate(timetableID)
	return p, nil
}

// Plan returns the session plan of a draft timetable.
func (e *Engine) Plan(ctx context.Context, timetableID int64) (*planner.Plan, error) {
	if _, err := e.draft(ctx, timetableID); err != nil {
		return nil, err
	}
	return e.repo.LoadPlan(ctx, timetableID)
}

// SavePlan replaces the session plan of a draft timetable.
func (e *Engine) SavePlan(ctx context.Context, timetableID int64, plan *planner.Plan) error {
	unlock := e.locks.Lock(timetableID)
	defer unlock()

	if _, err := e.draft(ctx, timetableID); err != nil {
		return err
	}
	return e.repo.SavePlan(ctx, timetableID, plan)
}

// UpdatePlan loads the plan, applies fn, and saves the result, all while
// holding the timetable lock. Nothing is saved if fn fails.
func (e *Engine) UpdatePlan(ctx context.Context, timetableID int64, fn func(*planner.Plan) error) (*planner.Plan, error) {
	unlock := e.locks.Lock(timetableID)
	defer unlock()

	if _, err := e.draft(ctx, timetableID); err != nil {
		return nil, err
	}
	plan, err := e.repo.LoadPlan(ctx, timetableID)
	if err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}
	if err := fn(plan); err != nil {
		return nil, err
	}
	if err := e.repo.SavePlan(ctx, timetableID, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// PlanCourse plans a catalog course with the given number of groups.
func (e *Engine) PlanCourse(ctx context.Context, timetableID int64, courseID string, groups int) (*planner.CoursePlan, error) {
	course, ok := e.src.Course(courseID)
	if !ok {
		return nil, fmt.Errorf("course %s: %w", courseID, timetable.ErrNotFound)
	}

	var cp *planner.CoursePlan
	_, err := e.UpdatePlan(ctx, timetableID, func(p *planner.Plan) error {
		var err error
		cp, err = p.PlanGroups(course, groups)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// Snapshot returns a timetable together with its plan. It works on
// confirmed timetables too and takes no lock.
func (e *Engine) Snapshot(ctx context.Context, timetableID int64) (*timetable.Timetable, *planner.Plan, error) {
	tt, err := e.repo.GetTimetable(ctx, timetableID)
	if err != nil {
		return nil, nil, err
	}
	plan, err := e.repo.LoadPlan(ctx, timetableID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading plan: %w", err)
	}
	return tt, plan, nil
}

// PendingCourses returns the in-period courses still waiting for the grid.
func (e *Engine) PendingCourses(ctx context.Context, timetableID int64) ([]catalog.Course, error) {
	tt, plan, err := e.Snapshot(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	return planner.PendingCourses(e.src.CoursesForPeriod(tt.Period), plan, tt.PlacedCourses()), nil
}

// Validate sweeps the timetable for conflicts and missing courses.
func (e *Engine) Validate(ctx context.Context, timetableID int64) (validator.Report, error) {
	tt, plan, err := e.Snapshot(ctx, timetableID)
	if err != nil {
		return validator.Report{}, err
	}

	report := validator.Validate(e.grid, tt, plan, e.src)
	e.log.Log(eventlog.ValidationCompleted, map[string]any{
		"timetable_id": timetableID,
		"conflicts":    len(report.Conflicts),
		"missing":      len(report.MissingCourses),
		"incomplete":   len(report.Incomplete),
		"warnings":     len(report.Warnings),
	})
	return report, nil
}

// Create starts a draft timetable for a period.
func (e *Engine) Create(ctx context.Context, p period.Period) (*timetable.Timetable, error) {
	tt, err := timetable.New(p)
	if err != nil {
		return nil, err
	}
	if err := e.repo.CreateTimetable(ctx, tt); err != nil {
		return nil, err
	}
	e.log.Log(eventlog.TimetableCreated, map[string]any{
		"timetable_id": tt.ID,
		"period":       p.String(),
	})
	return tt, nil
}

// Delete removes a timetable with its placements and plan.
func (e *Engine) Delete(ctx context.Context, timetableID int64) error {
	unlock := e.locks.Lock(timetableID)
	defer unlock()

	if err := e.repo.DeleteTimetable(ctx, timetableID); err != nil {
		return err
	}
	e.log.Log(eventlog.TimetableDeleted, map[string]any{"timetable_id": timetableID})
	return nil
}

// Get returns a timetable with its placements.
func (e *Engine) Get(ctx context.Context, timetableID int64) (*timetable.Timetable, error) {
	return e.repo.GetTimetable(ctx, timetableID)
}

// Find returns the timetable of a period.
func (e *Engine) Find(ctx context.Context, p period.Period) (*timetable.Timetable, error) {
	return e.repo.FindTimetable(ctx, p)
}

// List returns all timetables.
func (e *Engine) List(ctx context.Context) ([]*timetable.Timetable, error) {
	return e.repo.ListTimetables(ctx)
}

// Publish confirms a draft timetable if it validates clean. A dirty report
// returns *PublishBlockedError and the timetable stays a draft.
func (e *Engine) Publish(ctx context.Context, timetableID int64) (*timetable.Timetable, error) {
	unlock := e.locks.Lock(timetableID)
	defer unlock()

	if _, err := e.draft(ctx, timetableID); err != nil {
		return nil, err
	}

	report, err := e.Validate(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	if !report.Clean() {
		e.log.Log(eventlog.PublishBlocked, map[string]any{
			"timetable_id": timetableID,
			"conflicts":    len(report.Conflicts),
			"missing":      len(report.MissingCourses),
		})
		return nil, &PublishBlockedError{Report: report}
	}

	if err := e.repo.UpdateStatus(ctx, timetableID, timetable.StatusDraft, timetable.StatusConfirmed); err != nil {
		return nil, err
	}
	e.log.Log(eventlog.PublishConfirmed, map[string]any{"timetable_id": timetableID})

	return e.repo.GetTimetable(ctx, timetableID)
}

func (e *Engine) draft(ctx context.Context, timetableID int64) (*timetable.Timetable, error) {
	tt, err := e.repo.GetTimetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	if !tt.IsDraft() {
		return nil, fmt.Errorf("timetable %s: %w", tt.Period, timetable.ErrNotDraft)
	}
	return tt, nil
}

// IsRejection reports whether err is a recoverable placement rejection
// rather than a storage failure.
func IsRejection(err error) bool {
	var conflict *timetable.ConflictError
	return errors.As(err, &conflict) ||
		errors.Is(err, timetable.ErrOutOfGrid) ||
		errors.Is(err, timetable.ErrNotDraft) ||
		errors.Is(err, timetable.ErrNotFound) ||
		errors.Is(err, planner.ErrSessionPlaced) ||
		errors.Is(err, planner.ErrPlanNotSubmitted)
}
