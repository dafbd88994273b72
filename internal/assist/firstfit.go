package assist

import (
	"sort"

	"github.com/javiermolinar/horario/internal/catalog"
	"github.com/javiermolinar/horario/internal/engine"
	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/planner"
	"github.com/javiermolinar/horario/internal/timetable"
)

// FirstFit proposes a placement for every submitted pending session,
// scanning days in grid order, then hours, then rooms from smallest to
// largest among those that seat the group. Sessions are taken longest
// first. The result is deterministic; sessions that fit nowhere are
// reported as issues.
func FirstFit(g *grid.Grid, src catalog.Source, tt *timetable.Timetable, plan *planner.Plan) *Result {
	placed := append([]*timetable.Placement(nil), tt.Placements...)
	rooms := src.Rooms()

	sessions := placeable(plan)
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Duration > sessions[j].Duration
	})

	result := &Result{}
	for _, s := range sessions {
		_, grp, cp, _ := plan.Session(s.ID)
		p, ok := fit(g, placed, roomsFor(rooms, grp.StudentCount), s, grp, cp)
		if !ok {
			result.Issues = append(result.Issues, Issue{
				Index:     -1,
				SessionID: s.ID,
				Message:   "no free cells for " + s.CourseID,
			})
			continue
		}
		placed = append(placed, p)
		result.Suggestions = append(result.Suggestions, Suggestion{
			SessionID: s.ID,
			CourseID:  p.CourseID,
			Group:     p.Group,
			Day:       p.Day,
			Start:     p.Start,
			End:       p.End,
			RoomID:    p.RoomID,
		})
	}
	return result
}

func fit(g *grid.Grid, placed []*timetable.Placement, rooms []catalog.Room, s *planner.Session, grp *planner.Group, cp *planner.CoursePlan) (*timetable.Placement, bool) {
	for _, day := range g.Days() {
		for _, hour := range g.Hours() {
			start := hour.String()
			end, err := grid.ComputeEndTime(start, s.Duration)
			if err != nil {
				continue
			}
			for _, room := range rooms {
				candidate := &timetable.Placement{
					SessionID:   s.ID,
					CourseID:    cp.CourseID,
					Group:       grp.ID,
					ProfessorID: grp.ProfessorID,
					RoomID:      room.ID,
					Day:         day,
					Start:       start,
					End:         end,
					Duration:    s.Duration,
				}
				if engine.Check(g, placed, candidate) == nil {
					return candidate, true
				}
			}
		}
	}
	return nil, false
}

// roomsFor returns the rooms that seat students, smallest first. If none
// is large enough every room is a candidate.
func roomsFor(rooms []catalog.Room, students int) []catalog.Room {
	var fitting []catalog.Room
	for _, r := range rooms {
		if r.Capacity >= students {
			fitting = append(fitting, r)
		}
	}
	if len(fitting) == 0 {
		return rooms
	}
	return fitting
}
