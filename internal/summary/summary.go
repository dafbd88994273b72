// Package summary aggregates hours and coverage for a timetable.
package summary

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/javiermolinar/horario/internal/catalog"
	"github.com/javiermolinar/horario/internal/engine"
	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/llm"
	"github.com/javiermolinar/horario/internal/period"
	"github.com/javiermolinar/horario/internal/planner"
	"github.com/javiermolinar/horario/internal/timetable"
)

// DayLoad is the teaching load of one grid day.
type DayLoad struct {
	Day        grid.Day
	Hours      int
	Placements int
}

// CourseHours compares the hours a course needs with what is planned and
// placed, summed over its groups.
type CourseHours struct {
	CourseID string
	Name     string
	Cycle    int
	Groups   int
	Required int
	Planned  int
	Placed   int
}

// Complete reports whether every required hour is on the grid.
func (c CourseHours) Complete() bool {
	return c.Required > 0 && c.Placed >= c.Required
}

// CycleCoverage counts in-scope courses of a cycle that have at least one
// placement.
type CycleCoverage struct {
	Cycle   int
	InScope int
	Placed  int
}

// Summary holds aggregated timetable data and optional insight.
type Summary struct {
	TimetableID     int64
	Period          period.Period
	Status          timetable.Status
	Days            []DayLoad
	Courses         []CourseHours
	Cycles          []CycleCoverage
	TotalHours      int
	PendingSessions int
	Insight         string
}

// BuildOptions configures the engine-backed summary builder.
type BuildOptions struct {
	TimetableID    int64
	IncludeInsight bool
	Provider       string
	Model          string
	BaseURL        string
}

// Summarize builds summary data from a timetable and its plan. plan may
// be nil.
func Summarize(g *grid.Grid, tt *timetable.Timetable, plan *planner.Plan, src catalog.Source) *Summary {
	if plan == nil {
		plan = planner.New()
	}

	s := &Summary{
		TimetableID:     tt.ID,
		Period:          tt.Period,
		Status:          tt.Status,
		PendingSessions: len(plan.PendingSessions()),
	}

	byDay := make(map[grid.Day]*DayLoad)
	for _, d := range g.Days() {
		byDay[d] = &DayLoad{Day: d}
	}
	placedHours := make(map[string]int)
	for _, p := range tt.Placements {
		s.TotalHours += p.Duration
		placedHours[p.CourseID] += p.Duration
		if load, ok := byDay[p.Day]; ok {
			load.Hours += p.Duration
			load.Placements++
		}
	}
	for _, d := range g.Days() {
		s.Days = append(s.Days, *byDay[d])
	}

	s.Courses = courseHours(tt, plan, src, placedHours)
	s.Cycles = cycleCoverage(tt, plan, src)
	return s
}

// courseHours lists every course that is in scope, planned, or placed.
func courseHours(tt *timetable.Timetable, plan *planner.Plan, src catalog.Source, placed map[string]int) []CourseHours {
	rows := make(map[string]*CourseHours)
	row := func(id string) *CourseHours {
		if r, ok := rows[id]; ok {
			return r
		}
		r := &CourseHours{CourseID: id}
		if c, ok := src.Course(id); ok {
			r.Name = c.Name
			r.Cycle = c.Cycle
			r.Required = c.WeeklyHours
		}
		rows[id] = r
		return r
	}

	for _, c := range src.CoursesForPeriod(tt.Period) {
		if c.IsMandatory() {
			row(c.ID)
		}
	}
	for _, id := range plan.CourseIDs() {
		cp := plan.Courses[id]
		r := row(id)
		r.Groups = len(cp.Groups)
		r.Required = cp.WeeklyHours * len(cp.Groups)
		for _, g := range cp.Groups {
			r.Planned += g.PlannedHours()
		}
	}
	for id, h := range placed {
		row(id).Placed = h
	}

	result := make([]CourseHours, 0, len(rows))
	for _, r := range rows {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Cycle != result[j].Cycle {
			return result[i].Cycle < result[j].Cycle
		}
		return result[i].CourseID < result[j].CourseID
	})
	return result
}

// cycleCoverage uses the same scope rule as publishing: mandatory courses
// of active cycles, plus electives that have a plan.
func cycleCoverage(tt *timetable.Timetable, plan *planner.Plan, src catalog.Source) []CycleCoverage {
	placed := tt.PlacedCourses()
	byCycle := make(map[int]*CycleCoverage)
	for _, cycle := range tt.Period.ActiveCycles() {
		byCycle[cycle] = &CycleCoverage{Cycle: cycle}
	}

	for _, c := range src.CoursesForPeriod(tt.Period) {
		if !c.IsMandatory() {
			if _, ok := plan.Course(c.ID); !ok {
				continue
			}
		}
		cov, ok := byCycle[c.Cycle]
		if !ok {
			continue
		}
		cov.InScope++
		if placed[c.ID] {
			cov.Placed++
		}
	}

	result := make([]CycleCoverage, 0, len(byCycle))
	for _, cycle := range tt.Period.ActiveCycles() {
		result = append(result, *byCycle[cycle])
	}
	return result
}

// BuildSummary loads the timetable and optionally adds insight.
func BuildSummary(ctx context.Context, eng *engine.Engine, opts BuildOptions) (*Summary, error) {
	tt, plan, err := eng.Snapshot(ctx, opts.TimetableID)
	if err != nil {
		return nil, fmt.Errorf("loading timetable: %w", err)
	}

	s := Summarize(eng.Grid(), tt, plan, eng.Catalog())

	if opts.IncludeInsight && len(tt.Placements) > 0 {
		if opts.Model == "" {
			return nil, errors.New("model is required for insight")
		}
		client, err := llm.NewClient(opts.Provider, opts.Model, opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("creating LLM client: %w", err)
		}

		report, err := eng.Validate(ctx, tt.ID)
		if err != nil {
			return nil, err
		}
		insight, err := llm.NewEvaluator(client).EvaluateTimetable(ctx, llm.TimetableFacts{
			Period:      tt.Period.String(),
			Placements:  placementLines(tt.Placements),
			DayHours:    dayHourLines(s.Days),
			Problems:    report.FormatErrors(),
			PendingHint: fmt.Sprintf("%d sessions still pending", s.PendingSessions),
		})
		if err != nil {
			return nil, fmt.Errorf("evaluating timetable: %w", err)
		}
		s.Insight = insight
	}

	return s, nil
}

func placementLines(ps []*timetable.Placement) []string {
	sorted := append([]*timetable.Placement(nil), ps...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Day != sorted[j].Day {
			return sorted[i].Day < sorted[j].Day
		}
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].ID < sorted[j].ID
	})
	lines := make([]string, len(sorted))
	for i, p := range sorted {
		lines[i] = p.String()
	}
	return lines
}

func dayHourLines(days []DayLoad) []string {
	lines := make([]string, len(days))
	for i, d := range days {
		lines[i] = fmt.Sprintf("%s %dh", d.Day.Short(), d.Hours)
	}
	return lines
}
