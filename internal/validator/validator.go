// Package validator sweeps a whole timetable for conflicts and coverage
// gaps. It is the authoritative gate before publishing.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/javiermolinar/horario/internal/catalog"
	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/planner"
	"github.com/javiermolinar/horario/internal/timetable"
)

// Conflict describes two placements that cannot coexist, or a single
// placement that does not fit the grid (Second is zero then).
type Conflict struct {
	Kind    timetable.ConflictKind
	First   int64
	Second  int64
	Day     grid.Day
	Start   string
	End     string
	Message string
}

// String returns a formatted conflict line.
func (c Conflict) String() string {
	return fmt.Sprintf("[%s] %s", c.Kind, c.Message)
}

// Coverage reports a planned group whose placed hours fall short.
type Coverage struct {
	CourseID      string
	Group         int
	RequiredHours int
	PlacedHours   int
}

// Warning is an advisory issue that does not block publishing.
type Warning struct {
	PlacementID int64
	Message     string
}

// Report is the result of a full timetable sweep.
type Report struct {
	Conflicts      []Conflict
	MissingCourses []catalog.Course
	Incomplete     []Coverage
	Warnings       []Warning
}

// Clean reports whether the timetable may be published.
func (r Report) Clean() bool {
	return len(r.Conflicts) == 0 && len(r.MissingCourses) == 0
}

// FormatErrors returns the blocking problems of the report as text.
func (r Report) FormatErrors() string {
	if r.Clean() {
		return ""
	}

	var b strings.Builder
	if len(r.Conflicts) > 0 {
		b.WriteString("Conflicts:\n")
		for _, c := range r.Conflicts {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	if len(r.MissingCourses) > 0 {
		b.WriteString("Missing courses:\n")
		for _, c := range r.MissingCourses {
			fmt.Fprintf(&b, "- %s %s (cycle %d, %dh)\n", c.ID, c.Name, c.Cycle, c.WeeklyHours)
		}
	}
	return b.String()
}

// Validate runs the full sweep over tt. plan may be nil.
// The result depends only on its inputs, so two runs over the same state
// return identical reports.
func Validate(g *grid.Grid, tt *timetable.Timetable, plan *planner.Plan, src catalog.Source) Report {
	if plan == nil {
		plan = planner.New()
	}

	placements := append([]*timetable.Placement(nil), tt.Placements...)
	sort.Slice(placements, func(i, j int) bool {
		return placements[i].ID < placements[j].ID
	})

	var report Report
	report.Conflicts = checkConflicts(g, placements)
	report.MissingCourses = missingCourses(tt, plan, src)
	report.Incomplete = incompleteGroups(placements, plan)
	report.Warnings = capacityWarnings(placements, plan, src)
	return report
}

func checkConflicts(g *grid.Grid, placements []*timetable.Placement) []Conflict {
	var conflicts []Conflict

	for _, p := range placements {
		if _, err := p.Cells(g); err != nil {
			conflicts = append(conflicts, Conflict{
				Kind:    timetable.KindBounds,
				First:   p.ID,
				Day:     p.Day,
				Start:   p.Start,
				End:     p.End,
				Message: fmt.Sprintf("#%d %s: %v", p.ID, p, err),
			})
		}
	}

	for i := 0; i < len(placements); i++ {
		for j := i + 1; j < len(placements); j++ {
			a, b := placements[i], placements[j]
			if !a.Overlaps(b) {
				continue
			}

			start, end := a.Start, a.End
			if b.Start > start {
				start = b.Start
			}
			if b.End < end {
				end = b.End
			}
			base := Conflict{First: a.ID, Second: b.ID, Day: a.Day, Start: start, End: end}

			samePerson := a.ProfessorID != "" && a.ProfessorID == b.ProfessorID
			sameRoom := a.RoomID == b.RoomID
			if samePerson {
				c := base
				c.Kind = timetable.KindProfessor
				c.Message = fmt.Sprintf("professor %s teaches #%d %s and #%d %s on %s %s-%s",
					a.ProfessorID, a.ID, a.CourseID, b.ID, b.CourseID, a.Day.Short(), start, end)
				conflicts = append(conflicts, c)
			}
			if sameRoom {
				c := base
				c.Kind = timetable.KindRoom
				c.Message = fmt.Sprintf("room %s holds #%d %s and #%d %s on %s %s-%s",
					a.RoomID, a.ID, a.CourseID, b.ID, b.CourseID, a.Day.Short(), start, end)
				conflicts = append(conflicts, c)
			}
			if !samePerson && !sameRoom {
				c := base
				c.Kind = timetable.KindCell
				c.Message = fmt.Sprintf("#%d %s and #%d %s share %s %s-%s",
					a.ID, a.CourseID, b.ID, b.CourseID, a.Day.Short(), start, end)
				conflicts = append(conflicts, c)
			}
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		ci, cj := conflicts[i], conflicts[j]
		if ci.First != cj.First {
			return ci.First < cj.First
		}
		if ci.Second != cj.Second {
			return ci.Second < cj.Second
		}
		return ci.Kind < cj.Kind
	})
	return conflicts
}

// missingCourses lists in-scope courses with zero placements. Mandatory
// courses of active cycles are always in scope; electives only once they
// have a plan in this timetable.
func missingCourses(tt *timetable.Timetable, plan *planner.Plan, src catalog.Source) []catalog.Course {
	placed := tt.PlacedCourses()

	var missing []catalog.Course
	for _, c := range src.CoursesForPeriod(tt.Period) {
		if placed[c.ID] {
			continue
		}
		if !c.IsMandatory() {
			if _, planned := plan.Course(c.ID); !planned {
				continue
			}
		}
		missing = append(missing, c)
	}
	return missing
}

type groupKey struct {
	course string
	group  int
}

func incompleteGroups(placements []*timetable.Placement, plan *planner.Plan) []Coverage {
	placedHours := make(map[groupKey]int)
	for _, p := range placements {
		placedHours[groupKey{p.CourseID, p.Group}] += p.Duration
	}

	var result []Coverage
	for _, id := range plan.CourseIDs() {
		cp := plan.Courses[id]
		for _, g := range cp.Groups {
			got := placedHours[groupKey{id, g.ID}]
			if got < cp.WeeklyHours {
				result = append(result, Coverage{
					CourseID:      id,
					Group:         g.ID,
					RequiredHours: cp.WeeklyHours,
					PlacedHours:   got,
				})
			}
		}
	}
	return result
}

func capacityWarnings(placements []*timetable.Placement, plan *planner.Plan, src catalog.Source) []Warning {
	var warnings []Warning
	for _, p := range placements {
		room, ok := src.Room(p.RoomID)
		if !ok {
			warnings = append(warnings, Warning{
				PlacementID: p.ID,
				Message:     fmt.Sprintf("#%d uses unknown room %s", p.ID, p.RoomID),
			})
			continue
		}
		cp, ok := plan.Course(p.CourseID)
		if !ok {
			continue
		}
		g, ok := cp.Group(p.Group)
		if !ok {
			continue
		}
		if g.StudentCount > room.Capacity {
			warnings = append(warnings, Warning{
				PlacementID: p.ID,
				Message: fmt.Sprintf("#%d %s group %d has %d students, room %s seats %d",
					p.ID, p.CourseID, p.Group, g.StudentCount, room.Code, room.Capacity),
			})
		}
	}
	return warnings
}
