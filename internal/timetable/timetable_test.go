package timetable

import (
	"errors"
	"testing"

	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/period"
)

func placement(id int64, prof, room string, day grid.Day, start, end string) *Placement {
	return &Placement{
		ID:          id,
		CourseID:    "C" + prof,
		Group:       1,
		ProfessorID: prof,
		RoomID:      room,
		Day:         day,
		Start:       start,
		End:         end,
		Duration:    grid.TimeToMinutes(end)/60 - grid.TimeToMinutes(start)/60,
	}
}

func TestNew(t *testing.T) {
	tt, err := New(period.Period{Year: 2025, Term: period.TermII})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !tt.IsDraft() {
		t.Errorf("status = %s, want draft", tt.Status)
	}
	if _, err := New(period.Period{Year: 2025, Term: "III"}); err == nil {
		t.Error("invalid term should fail")
	}
}

func TestCheckOverlap(t *testing.T) {
	existing := []*Placement{
		placement(1, "PX", "R1", grid.Monday, "09:00", "11:00"),
		placement(2, "PY", "R2", grid.Monday, "10:00", "12:00"),
	}

	tests := []struct {
		name      string
		candidate *Placement
		wantKind  ConflictKind
		wantErr   error
		wantWith  int64
	}{
		{
			name:      "free",
			candidate: placement(0, "PZ", "R3", grid.Tuesday, "09:00", "11:00"),
		},
		{
			name:      "touching end is free",
			candidate: placement(0, "PX", "R1", grid.Monday, "12:00", "13:00"),
		},
		{
			name:      "professor before room",
			candidate: placement(0, "PY", "R1", grid.Monday, "10:00", "11:00"),
			wantKind:  KindProfessor,
			wantErr:   ErrProfessorConflict,
			wantWith:  2,
		},
		{
			name:      "room",
			candidate: placement(0, "PZ", "R2", grid.Monday, "11:00", "12:00"),
			wantKind:  KindRoom,
			wantErr:   ErrRoomConflict,
			wantWith:  2,
		},
		{
			name:      "cell",
			candidate: placement(0, "PZ", "R3", grid.Monday, "09:00", "10:00"),
			wantKind:  KindCell,
			wantErr:   ErrCellOccupied,
			wantWith:  1,
		},
		{
			name:      "same placement is skipped",
			candidate: placement(1, "PX", "R1", grid.Monday, "09:00", "11:00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOverlap(existing, tt.candidate)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CheckOverlap() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CheckOverlap() = %v, want %v", err, tt.wantErr)
			}
			var conflict *ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("error %T is not a ConflictError", err)
			}
			if conflict.Kind != tt.wantKind || conflict.Placement.ID != tt.wantWith {
				t.Errorf("conflict = %s with #%d, want %s with #%d",
					conflict.Kind, conflict.Placement.ID, tt.wantKind, tt.wantWith)
			}
		})
	}
}

func TestPlacementCells(t *testing.T) {
	g := grid.Default()
	p := placement(1, "PX", "R1", grid.Friday, "21:00", "23:00")
	cells, err := p.Cells(g)
	if err != nil {
		t.Fatalf("Cells failed: %v", err)
	}
	if len(cells) != 2 || cells[0] != (grid.Cell{Day: grid.Friday, Hour: 21}) {
		t.Errorf("cells = %v", cells)
	}

	late := placement(2, "PX", "R1", grid.Friday, "22:00", "00:00")
	late.Duration = 2
	if _, err := late.Cells(g); !errors.Is(err, ErrOutOfGrid) {
		t.Errorf("late block error = %v, want ErrOutOfGrid", err)
	}
}

func TestConflictErrorUnwrap(t *testing.T) {
	err := &ConflictError{Kind: KindBounds}
	if !errors.Is(err, ErrOutOfGrid) {
		t.Error("bounds conflict should match ErrOutOfGrid")
	}
}

func TestPlacedCourses(t *testing.T) {
	tt := &Timetable{Placements: []*Placement{
		placement(1, "PX", "R1", grid.Monday, "09:00", "10:00"),
		placement(2, "PY", "R1", grid.Monday, "10:00", "11:00"),
	}}
	placed := tt.PlacedCourses()
	if !placed["CPX"] || !placed["CPY"] || len(placed) != 2 {
		t.Errorf("placed = %v", placed)
	}
	if _, ok := tt.Placement(2); !ok {
		t.Error("Placement(2) not found")
	}
	if _, ok := tt.Placement(9); ok {
		t.Error("Placement(9) should not exist")
	}
}
