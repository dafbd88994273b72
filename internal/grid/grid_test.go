package grid

import (
	"errors"
	"testing"
)

func TestComputeEndTime(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		duration int
		want     string
		wantErr  error
	}{
		{name: "whole hour", start: "09:00", duration: 2, want: "11:00"},
		{name: "minutes carry", start: "09:30", duration: 2, want: "11:30"},
		{name: "late block", start: "21:00", duration: 2, want: "23:00"},
		{name: "ends at midnight", start: "22:00", duration: 2, want: "24:00"},
		{name: "crosses midnight", start: "23:00", duration: 2, wantErr: ErrPastMidnight},
		{name: "zero duration", start: "09:00", duration: 0, wantErr: ErrInvalidDuration},
		{name: "bad start", start: "9:00", duration: 1, wantErr: ErrInvalidTimeFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeEndTime(tt.start, tt.duration)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ComputeEndTime(%q, %d) error = %v, want %v", tt.start, tt.duration, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeEndTime(%q, %d) unexpected error: %v", tt.start, tt.duration, err)
			}
			if got != tt.want {
				t.Errorf("ComputeEndTime(%q, %d) = %q, want %q", tt.start, tt.duration, got, tt.want)
			}
		})
	}
}

func TestComputeEndMinutes_FractionalDuration(t *testing.T) {
	got, err := ComputeEndMinutes(TimeToMinutes("10:45"), 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if MinutesToTime(got) != "12:15" {
		t.Errorf("end = %s, want 12:15", MinutesToTime(got))
	}
}

func TestDefaultGridHours(t *testing.T) {
	g := Default()
	hours := g.Hours()
	if len(hours) != 17 {
		t.Fatalf("len(Hours()) = %d, want 17", len(hours))
	}
	if hours[0].String() != "07:00" || hours[16].String() != "23:00" {
		t.Errorf("hours range = %s..%s, want 07:00..23:00", hours[0], hours[16])
	}
	if len(g.Days()) != 6 {
		t.Errorf("len(Days()) = %d, want 6", len(g.Days()))
	}
}

func TestOccupiedSlots(t *testing.T) {
	g := Default()

	cells, err := g.OccupiedSlots(Tuesday, "09:00", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Cell{{Tuesday, 9}, {Tuesday, 10}, {Tuesday, 11}}
	if len(cells) != len(want) {
		t.Fatalf("len(cells) = %d, want %d", len(cells), len(want))
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cells[%d] = %v, want %v", i, cells[i], want[i])
		}
	}
}

func TestOccupiedSlots_Rejections(t *testing.T) {
	g := Default()

	tests := []struct {
		name     string
		day      Day
		start    string
		duration int
	}{
		{name: "ends after 23:00", day: Monday, start: "22:00", duration: 2},
		{name: "starts at 23:00", day: Monday, start: "23:00", duration: 1},
		{name: "before 07:00", day: Monday, start: "06:00", duration: 2},
		{name: "half hour start", day: Monday, start: "09:30", duration: 1},
		{name: "zero duration", day: Monday, start: "09:00", duration: 0},
		{name: "sunday", day: Day(6), start: "09:00", duration: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.OccupiedSlots(tt.day, tt.start, tt.duration)
			if !errors.Is(err, ErrOutOfGrid) {
				t.Errorf("error = %v, want ErrOutOfGrid", err)
			}
		})
	}
}

func TestOccupiedSlots_LastSlot(t *testing.T) {
	cells, err := Default().OccupiedSlots(Saturday, "22:00", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 1 || cells[0] != (Cell{Saturday, 22}) {
		t.Errorf("cells = %v, want [Sat 22:00]", cells)
	}
}

func TestNew(t *testing.T) {
	g, err := New([]string{"friday", "monday", "Lunes"}, "08:00", "20:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	days := g.Days()
	if len(days) != 2 || days[0] != Monday || days[1] != Friday {
		t.Errorf("days = %v, want [monday friday]", days)
	}
	if g.HasDay(Tuesday) {
		t.Error("expected Tuesday not to be a teaching day")
	}
	if !g.Contains(Cell{Friday, 19}) || g.Contains(Cell{Friday, 20}) {
		t.Error("Contains does not respect day end")
	}

	if _, err := New([]string{"monday"}, "08:30", "20:00"); err == nil {
		t.Error("expected error for non whole-hour bound")
	}
	if _, err := New([]string{"sunday"}, "08:00", "20:00"); err == nil {
		t.Error("expected error for sunday")
	}
	if _, err := New(nil, "08:00", "20:00"); err == nil {
		t.Error("expected error for empty days")
	}
}

func TestParseDay(t *testing.T) {
	tests := map[string]Day{
		"monday":    Monday,
		"Mon":       Monday,
		"miércoles": Wednesday,
		"sabado":    Saturday,
		" FRIDAY ":  Friday,
	}
	for in, want := range tests {
		got, err := ParseDay(in)
		if err != nil {
			t.Errorf("ParseDay(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDay(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseDay("sunday"); err == nil {
		t.Error("expected error for sunday")
	}
}

func TestParseHour(t *testing.T) {
	for in, want := range map[string]Hour{"09:00": 9, "9": 9, "17:00": 17} {
		got, err := ParseHour(in)
		if err != nil || got != want {
			t.Errorf("ParseHour(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseHour("09:30"); err == nil {
		t.Error("expected error for 09:30")
	}
}

func TestCellSetIntersects(t *testing.T) {
	s := NewCellSet(Cell{Monday, 9}, Cell{Monday, 10})
	if c, ok := s.Intersects([]Cell{{Monday, 11}, {Monday, 10}}); !ok || c != (Cell{Monday, 10}) {
		t.Errorf("Intersects = %v, %v; want Mon 10:00, true", c, ok)
	}
	if _, ok := s.Intersects([]Cell{{Tuesday, 9}}); ok {
		t.Error("expected no intersection")
	}
}

func TestTimesOverlap(t *testing.T) {
	tests := []struct {
		s1, e1, s2, e2 string
		want           bool
	}{
		{"09:00", "11:00", "10:00", "12:00", true},
		{"09:00", "11:00", "11:00", "12:00", false},
		{"09:00", "11:00", "07:00", "09:00", false},
		{"09:00", "11:00", "09:00", "10:00", true},
	}
	for _, tt := range tests {
		if got := TimesOverlap(tt.s1, tt.e1, tt.s2, tt.e2); got != tt.want {
			t.Errorf("TimesOverlap(%s-%s, %s-%s) = %v, want %v", tt.s1, tt.e1, tt.s2, tt.e2, got, tt.want)
		}
	}
	if got := OverlapMinutes("09:00", "11:00", "10:00", "12:00"); got != 60 {
		t.Errorf("OverlapMinutes = %d, want 60", got)
	}
}
