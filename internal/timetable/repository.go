package timetable

import (
	"context"

	"github.com/javiermolinar/horario/internal/period"
	"github.com/javiermolinar/horario/internal/planner"
)

// Repository defines the storage interface for timetables.
type Repository interface {
	// CreateTimetable adds a new timetable and sets its ID.
	// Returns ErrDuplicateTimetable if one already exists for the period.
	CreateTimetable(ctx context.Context, t *Timetable) error

	// GetTimetable retrieves a timetable with its placements.
	GetTimetable(ctx context.Context, id int64) (*Timetable, error)

	// FindTimetable retrieves the timetable of a period.
	FindTimetable(ctx context.Context, p period.Period) (*Timetable, error)

	// ListTimetables returns all timetables without placements, newest period first.
	ListTimetables(ctx context.Context) ([]*Timetable, error)

	// DeleteTimetable removes a timetable together with its placements and plan.
	DeleteTimetable(ctx context.Context, id int64) error

	// AddPlacement atomically re-checks the timetable is a draft, re-checks
	// overlaps against committed placements, inserts the placement, and marks
	// its session placed. Sets p.ID on success.
	AddPlacement(ctx context.Context, p *Placement) error

	// RemovePlacement atomically deletes a placement of a draft timetable.
	// The session returns to pending only if no other placement references
	// it and it still exists in the plan.
	RemovePlacement(ctx context.Context, timetableID, placementID int64) (*Placement, error)

	// UpdateStatus moves a timetable from one status to another.
	// Returns ErrNotDraft if the current status is not from.
	UpdateStatus(ctx context.Context, id int64, from, to Status) error

	// LoadPlan returns the session plan of a timetable. A timetable with no
	// plan yields an empty one.
	LoadPlan(ctx context.Context, timetableID int64) (*planner.Plan, error)

	// SavePlan replaces the session plan of a draft timetable.
	SavePlan(ctx context.Context, timetableID int64, plan *planner.Plan) error

	// Close releases any resources held by the repository.
	Close() error
}
