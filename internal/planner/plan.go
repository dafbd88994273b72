// Package planner turns courses into groups and weekly sessions before
// they are placed on the timetable grid.
package planner

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/javiermolinar/horario/internal/catalog"
)

// Planning errors.
var (
	ErrHoursMismatch     = errors.New("hours mismatch")
	ErrInvalidGroupCount = errors.New("group count must be between 1 and 3")
	ErrInvalidDuration   = errors.New("session duration must be positive")
	ErrSessionPlaced     = errors.New("session is already placed")
	ErrSessionNotFound   = errors.New("session not found")
	ErrCourseNotPlanned  = errors.New("course has no plan")
	ErrGroupNotFound     = errors.New("group not found")
	ErrPlanNotSubmitted  = errors.New("course plan has not been submitted")
	ErrMissingProfessor  = errors.New("group has no professor")
)

// MaxGroups is the largest number of parallel sections a course may have.
const MaxGroups = 3

// HoursMismatchError reports a group whose sessions do not add up to the
// course's weekly hours.
type HoursMismatchError struct {
	CourseID string
	Group    int
	Planned  int
	Required int
}

func (e *HoursMismatchError) Error() string {
	return fmt.Sprintf("%s group %d: %v: planned %dh, course requires %dh",
		e.CourseID, e.Group, ErrHoursMismatch, e.Planned, e.Required)
}

func (e *HoursMismatchError) Unwrap() error {
	return ErrHoursMismatch
}

// Session is one weekly meeting block of a group. Sessions are identified
// by ID, never by duration.
type Session struct {
	ID       string
	CourseID string
	Group    int
	Duration int // hours
	Placed   bool
}

// Group is a parallel section of a course.
type Group struct {
	ID           int
	ProfessorID  string
	StudentCount int
	Sessions     []*Session
}

// PlannedHours returns the sum of session durations, placed or not.
func (g *Group) PlannedHours() int {
	total := 0
	for _, s := range g.Sessions {
		total += s.Duration
	}
	return total
}

// PlacedHours returns the hours of sessions already on the grid.
func (g *Group) PlacedHours() int {
	total := 0
	for _, s := range g.Sessions {
		if s.Placed {
			total += s.Duration
		}
	}
	return total
}

// CoursePlan is the group/session breakdown of one course.
type CoursePlan struct {
	CourseID    string
	WeeklyHours int
	Groups      []*Group
	Submitted   bool
}

// Group returns the group with the given ID.
func (cp *CoursePlan) Group(id int) (*Group, bool) {
	for _, g := range cp.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// HasPlaced reports whether any session of the course is placed.
func (cp *CoursePlan) HasPlaced() bool {
	for _, g := range cp.Groups {
		for _, s := range g.Sessions {
			if s.Placed {
				return true
			}
		}
	}
	return false
}

// HasPending reports whether any session of the course is still unplaced.
func (cp *CoursePlan) HasPending() bool {
	for _, g := range cp.Groups {
		for _, s := range g.Sessions {
			if !s.Placed {
				return true
			}
		}
	}
	return false
}

// Plan maps course IDs to their course plans for one timetable.
type Plan struct {
	Courses map[string]*CoursePlan
}

// New returns an empty plan.
func New() *Plan {
	return &Plan{Courses: make(map[string]*CoursePlan)}
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// CourseIDs returns planned course IDs in sorted order.
func (p *Plan) CourseIDs() []string {
	ids := make([]string, 0, len(p.Courses))
	for id := range p.Courses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Course returns the plan for a course.
func (p *Plan) Course(courseID string) (*CoursePlan, bool) {
	cp, ok := p.Courses[courseID]
	return cp, ok
}

// PlanGroups creates (or replaces) the plan for course with groupCount
// groups. Each group starts with a single session covering all weekly hours.
// A course with placed sessions cannot be re-planned.
func (p *Plan) PlanGroups(course catalog.Course, groupCount int) (*CoursePlan, error) {
	if groupCount < 1 || groupCount > MaxGroups {
		return nil, ErrInvalidGroupCount
	}
	if course.WeeklyHours <= 0 {
		return nil, ErrInvalidDuration
	}
	if existing, ok := p.Courses[course.ID]; ok && existing.HasPlaced() {
		return nil, fmt.Errorf("re-planning %s: %w", course.ID, ErrSessionPlaced)
	}

	cp := &CoursePlan{CourseID: course.ID, WeeklyHours: course.WeeklyHours}
	for i := 1; i <= groupCount; i++ {
		g := &Group{ID: i}
		g.Sessions = []*Session{{
			ID:       NewSessionID(),
			CourseID: course.ID,
			Group:    i,
			Duration: course.WeeklyHours,
		}}
		cp.Groups = append(cp.Groups, g)
	}
	p.Courses[course.ID] = cp
	return cp, nil
}

// DropCourse removes a course plan. Placed sessions block removal.
func (p *Plan) DropCourse(courseID string) error {
	cp, ok := p.Courses[courseID]
	if !ok {
		return ErrCourseNotPlanned
	}
	if cp.HasPlaced() {
		return fmt.Errorf("dropping %s: %w", courseID, ErrSessionPlaced)
	}
	delete(p.Courses, courseID)
	return nil
}

func (p *Plan) group(courseID string, groupID int) (*CoursePlan, *Group, error) {
	cp, ok := p.Courses[courseID]
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", courseID, ErrCourseNotPlanned)
	}
	g, ok := cp.Group(groupID)
	if !ok {
		return nil, nil, fmt.Errorf("%s group %d: %w", courseID, groupID, ErrGroupNotFound)
	}
	return cp, g, nil
}

// AssignGroup sets the professor and student count of a group.
func (p *Plan) AssignGroup(courseID string, groupID int, professorID string, studentCount int) error {
	cp, g, err := p.group(courseID, groupID)
	if err != nil {
		return err
	}
	if studentCount < 0 {
		return errors.New("student count cannot be negative")
	}
	if g.ProfessorID != professorID && cp.groupHasPlaced(g) {
		return fmt.Errorf("changing professor of %s group %d: %w", courseID, groupID, ErrSessionPlaced)
	}
	g.ProfessorID = professorID
	g.StudentCount = studentCount
	return nil
}

func (cp *CoursePlan) groupHasPlaced(g *Group) bool {
	for _, s := range g.Sessions {
		if s.Placed {
			return true
		}
	}
	return false
}

// AddSession appends a new unplaced session to a group.
func (p *Plan) AddSession(courseID string, groupID, duration int) (*Session, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	cp, g, err := p.group(courseID, groupID)
	if err != nil {
		return nil, err
	}
	s := &Session{ID: NewSessionID(), CourseID: courseID, Group: groupID, Duration: duration}
	g.Sessions = append(g.Sessions, s)
	cp.Submitted = false
	return s, nil
}

// find locates a session of a course by identity.
func (p *Plan) find(courseID, sessionID string) (*CoursePlan, *Group, int, error) {
	cp, ok := p.Courses[courseID]
	if !ok {
		return nil, nil, 0, fmt.Errorf("%s: %w", courseID, ErrCourseNotPlanned)
	}
	for _, g := range cp.Groups {
		for i, s := range g.Sessions {
			if s.ID == sessionID {
				return cp, g, i, nil
			}
		}
	}
	return nil, nil, 0, fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
}

// RemoveSession deletes an unplaced session by identity.
func (p *Plan) RemoveSession(courseID, sessionID string) error {
	cp, g, i, err := p.find(courseID, sessionID)
	if err != nil {
		return err
	}
	if g.Sessions[i].Placed {
		return ErrSessionPlaced
	}
	g.Sessions = append(g.Sessions[:i], g.Sessions[i+1:]...)
	cp.Submitted = false
	return nil
}

// SetDuration changes the duration of an unplaced session.
func (p *Plan) SetDuration(courseID, sessionID string, duration int) error {
	if duration <= 0 {
		return ErrInvalidDuration
	}
	cp, g, i, err := p.find(courseID, sessionID)
	if err != nil {
		return err
	}
	if g.Sessions[i].Placed {
		return ErrSessionPlaced
	}
	g.Sessions[i].Duration = duration
	cp.Submitted = false
	return nil
}

// SplitSession replaces an unplaced session with new sessions of the given
// durations. The durations must add up to the original one.
func (p *Plan) SplitSession(courseID, sessionID string, durations ...int) ([]*Session, error) {
	cp, g, i, err := p.find(courseID, sessionID)
	if err != nil {
		return nil, err
	}
	orig := g.Sessions[i]
	if orig.Placed {
		return nil, ErrSessionPlaced
	}
	if len(durations) < 2 {
		return nil, errors.New("split needs at least two durations")
	}
	total := 0
	for _, d := range durations {
		if d <= 0 {
			return nil, ErrInvalidDuration
		}
		total += d
	}
	if total != orig.Duration {
		return nil, fmt.Errorf("split durations sum to %dh, session is %dh", total, orig.Duration)
	}

	parts := make([]*Session, 0, len(durations))
	for _, d := range durations {
		parts = append(parts, &Session{ID: NewSessionID(), CourseID: courseID, Group: g.ID, Duration: d})
	}
	rest := append([]*Session(nil), g.Sessions[i+1:]...)
	g.Sessions = append(append(g.Sessions[:i], parts...), rest...)
	cp.Submitted = false
	return parts, nil
}

// MergeSessions joins unplaced sessions of the same group into one session
// whose duration is their sum.
func (p *Plan) MergeSessions(courseID string, sessionIDs ...string) (*Session, error) {
	if len(sessionIDs) < 2 {
		return nil, errors.New("merge needs at least two sessions")
	}
	var (
		cp    *CoursePlan
		group *Group
		total int
	)
	merge := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		c, g, i, err := p.find(courseID, id)
		if err != nil {
			return nil, err
		}
		if group != nil && g != group {
			return nil, errors.New("cannot merge sessions of different groups")
		}
		if g.Sessions[i].Placed {
			return nil, ErrSessionPlaced
		}
		if merge[id] {
			continue
		}
		cp, group = c, g
		merge[id] = true
		total += g.Sessions[i].Duration
	}

	merged := &Session{ID: NewSessionID(), CourseID: courseID, Group: group.ID, Duration: total}
	kept := make([]*Session, 0, len(group.Sessions))
	inserted := false
	for _, s := range group.Sessions {
		if merge[s.ID] {
			if !inserted {
				kept = append(kept, merged)
				inserted = true
			}
			continue
		}
		kept = append(kept, s)
	}
	group.Sessions = kept
	cp.Submitted = false
	return merged, nil
}

// ValidateGroup checks that a group's sessions add up to weeklyHours.
func ValidateGroup(courseID string, g *Group, weeklyHours int) error {
	if planned := g.PlannedHours(); planned != weeklyHours {
		return &HoursMismatchError{CourseID: courseID, Group: g.ID, Planned: planned, Required: weeklyHours}
	}
	return nil
}

// Submit validates every group of the course and marks the plan ready for
// placement. On error the plan stays unsubmitted.
func (p *Plan) Submit(courseID string) error {
	cp, ok := p.Courses[courseID]
	if !ok {
		return fmt.Errorf("%s: %w", courseID, ErrCourseNotPlanned)
	}
	var errs []error
	for _, g := range cp.Groups {
		if err := ValidateGroup(courseID, g, cp.WeeklyHours); err != nil {
			errs = append(errs, err)
		}
		if g.ProfessorID == "" {
			errs = append(errs, fmt.Errorf("%s group %d: %w", courseID, g.ID, ErrMissingProfessor))
		}
	}
	if len(errs) > 0 {
		cp.Submitted = false
		return errors.Join(errs...)
	}
	cp.Submitted = true
	return nil
}

// Session finds a session anywhere in the plan.
func (p *Plan) Session(sessionID string) (*Session, *Group, *CoursePlan, bool) {
	for _, cp := range p.Courses {
		for _, g := range cp.Groups {
			for _, s := range g.Sessions {
				if s.ID == sessionID {
					return s, g, cp, true
				}
			}
		}
	}
	return nil, nil, nil, false
}

// MarkPlaced flags a session as consumed by a placement.
func (p *Plan) MarkPlaced(sessionID string) error {
	s, _, _, ok := p.Session(sessionID)
	if !ok {
		return fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
	}
	if s.Placed {
		return ErrSessionPlaced
	}
	s.Placed = true
	return nil
}

// Release returns a placed session to the pending list. Unknown sessions
// are ignored, since they may have been re-planned under a new identity.
func (p *Plan) Release(sessionID string) bool {
	s, _, _, ok := p.Session(sessionID)
	if !ok || !s.Placed {
		return false
	}
	s.Placed = false
	return true
}

// Pending returns the unplaced sessions of a course ordered by group.
func (p *Plan) Pending(courseID string) []*Session {
	cp, ok := p.Courses[courseID]
	if !ok {
		return nil
	}
	var pending []*Session
	for _, g := range cp.Groups {
		for _, s := range g.Sessions {
			if !s.Placed {
				pending = append(pending, s)
			}
		}
	}
	return pending
}

// PendingSessions returns every unplaced session ordered by course ID.
func (p *Plan) PendingSessions() []*Session {
	var pending []*Session
	for _, id := range p.CourseIDs() {
		pending = append(pending, p.Pending(id)...)
	}
	return pending
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	c := New()
	for id, cp := range p.Courses {
		ncp := &CoursePlan{CourseID: cp.CourseID, WeeklyHours: cp.WeeklyHours, Submitted: cp.Submitted}
		for _, g := range cp.Groups {
			ng := &Group{ID: g.ID, ProfessorID: g.ProfessorID, StudentCount: g.StudentCount}
			for _, s := range g.Sessions {
				ns := *s
				ng.Sessions = append(ng.Sessions, &ns)
			}
			ncp.Groups = append(ncp.Groups, ng)
		}
		c.Courses[id] = ncp
	}
	return c
}

// PendingCourses returns the courses still waiting for the grid. A course
// is pending when it has no placement and either has no plan or still has
// unplaced sessions. A course that already has placements is never pending.
func PendingCourses(courses []catalog.Course, p *Plan, placed map[string]bool) []catalog.Course {
	var pending []catalog.Course
	for _, c := range courses {
		if placed[c.ID] {
			continue
		}
		cp, ok := p.Courses[c.ID]
		if !ok || cp.HasPending() {
			pending = append(pending, c)
		}
	}
	return pending
}
