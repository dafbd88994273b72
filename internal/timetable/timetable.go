// Package timetable defines the core domain types for horario: timetables,
// placements, and the storage contract that persists them.
package timetable

import (
	"errors"
	"fmt"
	"time"

	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/period"
)

// Domain errors.
var (
	ErrCellOccupied       = errors.New("cell already occupied")
	ErrRoomConflict       = errors.New("room double-booked")
	ErrProfessorConflict  = errors.New("professor double-booked")
	ErrDuplicateTimetable = errors.New("timetable already exists for period")
	ErrPublishBlocked     = errors.New("publish blocked")
	ErrNotFound           = errors.New("not found")
	ErrNotDraft           = errors.New("timetable is not a draft")
	ErrOutOfGrid          = grid.ErrOutOfGrid
)

// Status is the lifecycle state of a timetable.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
)

// Valid returns true if the status is known.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusConfirmed:
		return true
	default:
		return false
	}
}

// Timetable is the weekly schedule of one academic period.
type Timetable struct {
	ID          int64
	Period      period.Period
	Status      Status
	Placements  []*Placement
	CreatedAt   time.Time
	ConfirmedAt *time.Time
}

// New creates a draft timetable for p.
func New(p period.Period) (*Timetable, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Timetable{
		Period:    p,
		Status:    StatusDraft,
		CreatedAt: time.Now(),
	}, nil
}

// IsDraft returns true while the timetable accepts edits.
func (t *Timetable) IsDraft() bool {
	return t.Status == StatusDraft
}

// Placement returns the placement with the given ID.
func (t *Timetable) Placement(id int64) (*Placement, bool) {
	for _, p := range t.Placements {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// PlacedCourses returns the set of course IDs with at least one placement.
func (t *Timetable) PlacedCourses() map[string]bool {
	placed := make(map[string]bool)
	for _, p := range t.Placements {
		placed[p.CourseID] = true
	}
	return placed
}

// Placement is a session committed to a day, hour range, and room.
type Placement struct {
	ID          int64
	TimetableID int64
	SessionID   string
	CourseID    string
	Group       int
	ProfessorID string
	RoomID      string
	Day         grid.Day
	Start       string // "HH:MM"
	End         string // "HH:MM"
	Duration    int    // hours
}

// Cells returns the grid cells the placement covers.
func (p *Placement) Cells(g *grid.Grid) ([]grid.Cell, error) {
	return g.OccupiedSlots(p.Day, p.Start, p.Duration)
}

// Overlaps reports whether two placements share time on the same day.
func (p *Placement) Overlaps(other *Placement) bool {
	return p.Day == other.Day && grid.TimesOverlap(p.Start, p.End, other.Start, other.End)
}

func (p *Placement) String() string {
	return fmt.Sprintf("%s g%d %s %s-%s room %s", p.CourseID, p.Group, p.Day.Short(), p.Start, p.End, p.RoomID)
}

// ConflictKind names the constraint a placement violates.
type ConflictKind string

const (
	KindCell      ConflictKind = "cell"
	KindRoom      ConflictKind = "room"
	KindProfessor ConflictKind = "professor"
	KindBounds    ConflictKind = "bounds"
)

// ConflictError is returned when a placement is rejected because of an
// existing one.
type ConflictError struct {
	Kind      ConflictKind
	Placement *Placement // the existing placement in the way
	Message   string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Unwrap returns the sentinel for the conflict kind.
func (e *ConflictError) Unwrap() error {
	switch e.Kind {
	case KindRoom:
		return ErrRoomConflict
	case KindProfessor:
		return ErrProfessorConflict
	case KindBounds:
		return ErrOutOfGrid
	default:
		return ErrCellOccupied
	}
}

// NewConflict builds a ConflictError describing why candidate cannot sit
// next to existing.
func NewConflict(kind ConflictKind, candidate, existing *Placement) *ConflictError {
	var msg string
	switch kind {
	case KindProfessor:
		msg = fmt.Sprintf("professor %s already teaches %s group %d on %s %s-%s",
			candidate.ProfessorID, existing.CourseID, existing.Group, existing.Day.Short(), existing.Start, existing.End)
	case KindRoom:
		msg = fmt.Sprintf("room %s is taken by %s group %d on %s %s-%s",
			candidate.RoomID, existing.CourseID, existing.Group, existing.Day.Short(), existing.Start, existing.End)
	default:
		msg = fmt.Sprintf("%s %s-%s is occupied by %s group %d",
			existing.Day.Short(), existing.Start, existing.End, existing.CourseID, existing.Group)
	}
	return &ConflictError{Kind: kind, Placement: existing, Message: msg}
}

// CheckOverlap returns the first conflict between candidate and existing
// placements. Professor clashes are reported before room clashes, and any
// remaining overlap is a cell clash since the grid is single-occupancy.
func CheckOverlap(existing []*Placement, candidate *Placement) error {
	var room, cell *Placement
	for _, p := range existing {
		if p.ID == candidate.ID && candidate.ID != 0 {
			continue
		}
		if !p.Overlaps(candidate) {
			continue
		}
		if candidate.ProfessorID != "" && p.ProfessorID == candidate.ProfessorID {
			return NewConflict(KindProfessor, candidate, p)
		}
		if room == nil && p.RoomID == candidate.RoomID {
			room = p
		}
		if cell == nil {
			cell = p
		}
	}
	if room != nil {
		return NewConflict(KindRoom, candidate, room)
	}
	if cell != nil {
		return NewConflict(KindCell, candidate, cell)
	}
	return nil
}
