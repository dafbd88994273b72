// Package grid models the weekly timetable grid: days, hour slots, and the
// cells a block of time covers.
package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrOutOfGrid is returned when a block does not fit inside the grid.
var ErrOutOfGrid = errors.New("block does not fit in the grid")

// Day is a teaching day. Sunday is never part of the grid.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var dayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

var dayAliases = map[string]Day{
	"mon": Monday, "lunes": Monday, "lun": Monday,
	"tue": Tuesday, "martes": Tuesday, "mar": Tuesday,
	"wed": Wednesday, "miercoles": Wednesday, "miércoles": Wednesday, "mie": Wednesday,
	"thu": Thursday, "jueves": Thursday, "jue": Thursday,
	"fri": Friday, "viernes": Friday, "vie": Friday,
	"sat": Saturday, "sabado": Saturday, "sábado": Saturday, "sab": Saturday,
}

// AllDays returns Monday through Saturday in order.
func AllDays() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
}

// ParseDay parses an English or Spanish day name or abbreviation.
func ParseDay(s string) (Day, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range dayNames {
		if s == name {
			return Day(i), nil
		}
	}
	if d, ok := dayAliases[s]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("invalid day %q", s)
}

// Valid reports whether d is one of the six grid days.
func (d Day) Valid() bool {
	return d >= Monday && d <= Saturday
}

// String returns the lowercase English name, used for storage and config.
func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("day(%d)", int(d))
	}
	return dayNames[d]
}

// Short returns a three letter label such as "Mon".
func (d Day) Short() string {
	if !d.Valid() {
		return "???"
	}
	name := dayNames[d]
	return strings.ToUpper(name[:1]) + name[1:3]
}

// Hour is the start label of a one hour slot (7 means 07:00-08:00).
type Hour int

// ParseHour accepts "09:00", "9:00" or "9". Minutes must be zero.
func ParseHour(s string) (Hour, error) {
	s = strings.TrimSpace(s)
	if h, ok := strings.CutSuffix(s, ":00"); ok {
		s = h
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 23 {
		return 0, fmt.Errorf("invalid hour %q", s)
	}
	return Hour(n), nil
}

// String returns the HH:MM label of the slot start.
func (h Hour) String() string {
	return fmt.Sprintf("%02d:00", int(h))
}

// Minutes returns the slot start in minutes since midnight.
func (h Hour) Minutes() int {
	return int(h) * 60
}

// Cell is a single day/hour coordinate of the grid.
type Cell struct {
	Day  Day
	Hour Hour
}

func (c Cell) String() string {
	return c.Day.Short() + " " + c.Hour.String()
}

// CellSet is a set of occupied cells.
type CellSet map[Cell]struct{}

// NewCellSet builds a set from cells.
func NewCellSet(cells ...Cell) CellSet {
	s := make(CellSet, len(cells))
	s.Add(cells...)
	return s
}

// Add inserts cells into the set.
func (s CellSet) Add(cells ...Cell) {
	for _, c := range cells {
		s[c] = struct{}{}
	}
}

// Has reports whether c is in the set.
func (s CellSet) Has(c Cell) bool {
	_, ok := s[c]
	return ok
}

// Intersects returns the first of cells that is already in the set.
func (s CellSet) Intersects(cells []Cell) (Cell, bool) {
	for _, c := range cells {
		if s.Has(c) {
			return c, true
		}
	}
	return Cell{}, false
}

// Grid is the configured set of teaching days and the daily hour range.
type Grid struct {
	days     []Day
	dayStart int // minutes
	dayEnd   int // minutes
}

// Default returns the Monday-Saturday, 07:00-23:00 grid.
func Default() *Grid {
	return &Grid{
		days:     AllDays(),
		dayStart: 7 * 60,
		dayEnd:   23 * 60,
	}
}

// New creates a Grid from day names and HH:MM bounds.
// Bounds must fall on whole hours.
func New(days []string, dayStart, dayEnd string) (*Grid, error) {
	if err := ValidateTime(dayStart); err != nil {
		return nil, fmt.Errorf("day start: %w", err)
	}
	if err := ValidateTime(dayEnd); err != nil {
		return nil, fmt.Errorf("day end: %w", err)
	}
	start, end := TimeToMinutes(dayStart), TimeToMinutes(dayEnd)
	if start%60 != 0 || end%60 != 0 {
		return nil, errors.New("grid bounds must be whole hours")
	}
	if start >= end {
		return nil, errors.New("day start must be before day end")
	}

	g := &Grid{dayStart: start, dayEnd: end}
	seen := make(map[Day]bool)
	for _, name := range days {
		d, err := ParseDay(name)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			g.days = append(g.days, d)
		}
	}
	if len(g.days) == 0 {
		return nil, errors.New("grid needs at least one day")
	}
	// keep canonical order regardless of config order
	ordered := g.days[:0]
	for _, d := range AllDays() {
		if seen[d] {
			ordered = append(ordered, d)
		}
	}
	g.days = ordered
	return g, nil
}

// Days returns the grid days in order.
func (g *Grid) Days() []Day {
	return append([]Day(nil), g.days...)
}

// Hours returns every hour label from day start to day end inclusive.
// The default grid has 17 labels, 07:00 through 23:00.
func (g *Grid) Hours() []Hour {
	hours := make([]Hour, 0, (g.dayEnd-g.dayStart)/60+1)
	for m := g.dayStart; m <= g.dayEnd; m += 60 {
		hours = append(hours, Hour(m/60))
	}
	return hours
}

// DayStart returns the grid start as HH:MM.
func (g *Grid) DayStart() string {
	return MinutesToTime(g.dayStart)
}

// DayEnd returns the grid end as HH:MM.
func (g *Grid) DayEnd() string {
	return MinutesToTime(g.dayEnd)
}

// HasDay reports whether d is a teaching day of this grid.
func (g *Grid) HasDay(d Day) bool {
	for _, gd := range g.days {
		if gd == d {
			return true
		}
	}
	return false
}

// Contains reports whether a cell can hold teaching time.
func (g *Grid) Contains(c Cell) bool {
	m := c.Hour.Minutes()
	return g.HasDay(c.Day) && m >= g.dayStart && m < g.dayEnd
}

// OccupiedSlots returns the contiguous cells a block covers, one per hour
// of duration. The block must start on a whole hour and end no later than
// the grid end on the same day.
func (g *Grid) OccupiedSlots(day Day, start string, durationHours int) ([]Cell, error) {
	if !g.HasDay(day) {
		return nil, fmt.Errorf("%w: %s is not a teaching day", ErrOutOfGrid, day)
	}
	if err := ValidateTime(start); err != nil {
		return nil, fmt.Errorf("%w: start time: %v", ErrOutOfGrid, err)
	}
	if durationHours <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrOutOfGrid, ErrInvalidDuration)
	}

	startMin := TimeToMinutes(start)
	if startMin%60 != 0 {
		return nil, fmt.Errorf("%w: %s is not on a slot boundary", ErrOutOfGrid, start)
	}
	if startMin < g.dayStart {
		return nil, fmt.Errorf("%w: %s is before %s", ErrOutOfGrid, start, g.DayStart())
	}
	endMin, err := ComputeEndMinutes(startMin, durationHours*60)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutOfGrid, err)
	}
	if endMin > g.dayEnd {
		return nil, fmt.Errorf("%w: %s-%s ends after %s",
			ErrOutOfGrid, start, MinutesToTime(endMin), g.DayEnd())
	}

	cells := make([]Cell, 0, durationHours)
	for m := startMin; m < endMin; m += 60 {
		cells = append(cells, Cell{Day: day, Hour: Hour(m / 60)})
	}
	return cells, nil
}
