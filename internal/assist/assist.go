// Package assist proposes placements for pending sessions, either with a
// deterministic first-fit pass or by asking an LLM and checking its answer.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/javiermolinar/horario/internal/engine"
	"github.com/javiermolinar/horario/internal/eventlog"
	"github.com/javiermolinar/horario/internal/grid"
	"github.com/javiermolinar/horario/internal/llm"
	"github.com/javiermolinar/horario/internal/planner"
	"github.com/javiermolinar/horario/internal/timetable"
)

// ErrMaxRetriesExceeded is returned when all retry attempts fail validation.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded, validation still failing")

// Suggestion is a proposed placement of one pending session.
type Suggestion struct {
	SessionID string
	CourseID  string
	Group     int
	Day       grid.Day
	Start     string
	End       string
	RoomID    string
}

func (s Suggestion) String() string {
	return fmt.Sprintf("%s g%d %s %s-%s room %s", s.CourseID, s.Group, s.Day.Short(), s.Start, s.End, s.RoomID)
}

// Issue is a suggestion that would be rejected, or a session no
// suggestion covers.
type Issue struct {
	Index     int // position in the suggestion list, -1 for uncovered sessions
	SessionID string
	Message   string
}

func (i Issue) String() string {
	if i.Index < 0 {
		return fmt.Sprintf("Session %s: %s", i.SessionID, i.Message)
	}
	return fmt.Sprintf("Placement %d (session %s): %s", i.Index, i.SessionID, i.Message)
}

// Result holds checked suggestions.
type Result struct {
	Suggestions []Suggestion
	Warnings    []string
	Issues      []Issue
	Attempts    int
}

// Valid reports whether every suggestion passed the dry run.
func (r *Result) Valid() bool {
	return len(r.Issues) == 0
}

// FormatIssues returns the issues as feedback for the model.
func (r *Result) FormatIssues() string {
	if r.Valid() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Your response had these errors:\n")
	for _, i := range r.Issues {
		fmt.Fprintf(&sb, "- %s\n", i)
	}
	sb.WriteString("\nPlease correct these issues and respond again with valid JSON.")
	return sb.String()
}

// DryRun checks suggestions in order against the timetable. Each accepted
// suggestion occupies its cells for the ones after it. Nothing is stored.
func DryRun(eng *engine.Engine, tt *timetable.Timetable, plan *planner.Plan, suggestions []Suggestion) []Issue {
	scratch := plan.Clone()
	placed := append([]*timetable.Placement(nil), tt.Placements...)

	var issues []Issue
	for i, s := range suggestions {
		candidate, err := eng.Candidate(scratch, engine.PlaceRequest{
			TimetableID: tt.ID,
			SessionID:   s.SessionID,
			Day:         s.Day,
			Start:       s.Start,
			RoomID:      s.RoomID,
		})
		if err == nil {
			err = engine.Check(eng.Grid(), placed, candidate)
		}
		if err != nil {
			issues = append(issues, Issue{Index: i, SessionID: s.SessionID, Message: err.Error()})
			continue
		}
		placed = append(placed, candidate)
		_ = scratch.MarkPlaced(s.SessionID)
	}
	return issues
}

// Rejection is a suggestion the engine refused on apply.
type Rejection struct {
	Suggestion Suggestion
	Err        error
}

// Applied reports the outcome of Apply.
type Applied struct {
	Placed   []*timetable.Placement
	Rejected []Rejection
}

// Apply commits suggestions through the engine one by one. Rejections are
// collected; a storage failure stops the run.
func Apply(ctx context.Context, eng *engine.Engine, timetableID int64, suggestions []Suggestion) (*Applied, error) {
	out := &Applied{}
	for _, s := range suggestions {
		p, err := eng.Place(ctx, engine.PlaceRequest{
			TimetableID: timetableID,
			SessionID:   s.SessionID,
			Day:         s.Day,
			Start:       s.Start,
			RoomID:      s.RoomID,
		})
		if err != nil {
			if !engine.IsRejection(err) {
				return out, fmt.Errorf("placing %s: %w", s, err)
			}
			out.Rejected = append(out.Rejected, Rejection{Suggestion: s, Err: err})
			continue
		}
		out.Placed = append(out.Placed, p)
	}
	return out, nil
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithCompactPrompt selects the short prompt meant for local models.
func WithCompactPrompt(compact bool) Option {
	return func(a *Assistant) { a.compact = compact }
}

// WithEventLog sets the event logger.
func WithEventLog(l *eventlog.Logger) Option {
	return func(a *Assistant) { a.log = l }
}

// Assistant asks an LLM for placements and validates them before handing
// them back.
type Assistant struct {
	eng     *engine.Engine
	client  llm.Client
	compact bool
	log     *eventlog.Logger
}

// New creates an Assistant.
func New(eng *engine.Engine, client llm.Client, opts ...Option) *Assistant {
	a := &Assistant{eng: eng, client: client}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SuggestWithRetry asks the model to place every pending session of a
// draft timetable. Answers that fail the dry run are sent back with the
// error list, up to maxRetries times. When retries run out the last result
// is returned together with ErrMaxRetriesExceeded.
func (a *Assistant) SuggestWithRetry(ctx context.Context, timetableID int64, maxRetries int) (*Result, error) {
	tt, plan, err := a.eng.Snapshot(ctx, timetableID)
	if err != nil {
		return nil, err
	}
	if !tt.IsDraft() {
		return nil, fmt.Errorf("timetable %s: %w", tt.Period, timetable.ErrNotDraft)
	}

	req := buildRequest(a.eng, tt, plan)
	req.UseCompactPrompt = a.compact
	if len(req.Pending) == 0 {
		return &Result{}, nil
	}

	suggester := llm.NewSuggester(a.client)
	messages := suggester.BuildInitialMessages(req)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: "Place every pending session."})

	var result *Result
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := suggester.SuggestWithMessages(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("LLM suggestion (attempt %d): %w", attempt+1, err)
		}

		result = a.check(tt, plan, resp)
		result.Attempts = attempt + 1
		a.log.Log(eventlog.SuggestionAttempted, map[string]any{
			"timetable_id": timetableID,
			"attempt":      attempt + 1,
			"suggestions":  len(result.Suggestions),
			"issues":       len(result.Issues),
		})
		if result.Valid() {
			return result, nil
		}

		if attempt < maxRetries {
			answer, _ := json.Marshal(resp)
			messages = append(messages,
				llm.Message{Role: llm.RoleAssistant, Content: string(answer)},
				llm.Message{Role: llm.RoleUser, Content: result.FormatIssues()},
			)
		}
	}
	return result, ErrMaxRetriesExceeded
}

// check converts the model answer into suggestions and dry-runs them.
// Issue indices refer to positions in the model's answer.
func (a *Assistant) check(tt *timetable.Timetable, plan *planner.Plan, resp *llm.SuggestResponse) *Result {
	result := &Result{Warnings: resp.Warnings}
	var positions []int

	for i, sp := range resp.Placements {
		day, err := grid.ParseDay(sp.Day)
		if err != nil {
			result.Issues = append(result.Issues, Issue{Index: i, SessionID: sp.SessionID, Message: err.Error()})
			continue
		}
		s := Suggestion{SessionID: sp.SessionID, Day: day, Start: sp.Start, RoomID: sp.RoomID}
		if session, g, cp, ok := plan.Session(sp.SessionID); ok {
			s.CourseID, s.Group = cp.CourseID, g.ID
			if end, err := grid.ComputeEndTime(sp.Start, session.Duration); err == nil {
				s.End = end
			}
		}
		result.Suggestions = append(result.Suggestions, s)
		positions = append(positions, i)
	}

	for _, issue := range DryRun(a.eng, tt, plan, result.Suggestions) {
		issue.Index = positions[issue.Index]
		result.Issues = append(result.Issues, issue)
	}
	result.Issues = append(result.Issues, uncovered(plan, result.Suggestions)...)
	return result
}

// uncovered lists submitted pending sessions the suggestions leave out.
func uncovered(plan *planner.Plan, suggestions []Suggestion) []Issue {
	covered := make(map[string]bool, len(suggestions))
	for _, s := range suggestions {
		covered[s.SessionID] = true
	}
	var issues []Issue
	for _, s := range placeable(plan) {
		if !covered[s.ID] {
			issues = append(issues, Issue{Index: -1, SessionID: s.ID, Message: "pending session was not placed"})
		}
	}
	return issues
}

// placeable returns pending sessions whose course plan is submitted.
func placeable(plan *planner.Plan) []*planner.Session {
	var out []*planner.Session
	for _, s := range plan.PendingSessions() {
		if cp, ok := plan.Course(s.CourseID); ok && cp.Submitted {
			out = append(out, s)
		}
	}
	return out
}

func buildRequest(eng *engine.Engine, tt *timetable.Timetable, plan *planner.Plan) llm.SuggestRequest {
	g := eng.Grid()
	src := eng.Catalog()

	req := llm.SuggestRequest{
		Period:   tt.Period.String(),
		DayStart: g.DayStart(),
		DayEnd:   g.DayEnd(),
	}
	for _, d := range g.Days() {
		req.Days = append(req.Days, d.String())
	}
	for _, r := range src.Rooms() {
		req.Rooms = append(req.Rooms, llm.RoomInfo{ID: r.ID, Capacity: r.Capacity})
	}
	for _, p := range tt.Placements {
		req.Existing = append(req.Existing, llm.ExistingPlacement{
			CourseID:    p.CourseID,
			Group:       p.Group,
			ProfessorID: p.ProfessorID,
			RoomID:      p.RoomID,
			Day:         p.Day.String(),
			Start:       p.Start,
			End:         p.End,
		})
	}
	for _, s := range placeable(plan) {
		_, grp, _, _ := plan.Session(s.ID)
		ps := llm.PendingSession{
			SessionID:   s.ID,
			CourseID:    s.CourseID,
			Group:       grp.ID,
			ProfessorID: grp.ProfessorID,
			Students:    grp.StudentCount,
			Duration:    s.Duration,
		}
		if c, ok := src.Course(s.CourseID); ok {
			ps.CourseName, ps.Cycle = c.Name, c.Cycle
		}
		req.Pending = append(req.Pending, ps)
	}
	return req
}
