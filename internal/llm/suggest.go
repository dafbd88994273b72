package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const suggestPrompt = `You are a university timetabling assistant. You place pending course-group sessions on a weekly grid.

Context:
- Academic period: %s
- Teaching days: %s
- Each day runs from %s to %s in whole-hour cells
- A session of N hours occupies N consecutive cells on one day and must end by %s

Rooms (id, capacity):
%s

%s

%s

HARD RULES (a suggestion breaking any of them is rejected):
1. A grid cell (day, hour) holds at most one session in the whole timetable
2. A professor never teaches two sessions at overlapping times
3. A room never hosts two sessions at overlapping times
4. Start times are whole hours in HH:MM (24-hour) format
5. Use only session_id values and room ids listed above

PREFERENCES:
- Pick a room whose capacity fits the group's students
- Spread the sessions of one group over different days
- Keep courses of the same cycle away from each other's hours

Respond ONLY with valid JSON (no markdown, no explanation):
{
  "placements": [
    {"session_id": "string", "day": "monday", "start": "HH:MM", "room_id": "string"}
  ],
  "warnings": ["string"]
}`

const suggestPromptCompact = `Place pending sessions on a weekly timetable grid. Return JSON only.

Period: %s
Days: %s
Hours: %s to %s (whole hours, sessions must end by %s)

Rooms:
%s

%s

%s

Rules:
- One session per (day, hour) cell across the whole timetable.
- No professor or room in two sessions at once.
- Start is HH:MM on a whole hour.
- "warnings" must be an array of strings.

JSON schema:
{
  "placements": [
    {"session_id": "string", "day": "monday", "start": "HH:MM", "room_id": "string"}
  ],
  "warnings": ["string"]
}`

// PendingSession is a session the model should place.
type PendingSession struct {
	SessionID   string
	CourseID    string
	CourseName  string
	Cycle       int
	Group       int
	ProfessorID string
	Students    int
	Duration    int // hours
}

// ExistingPlacement is a committed placement the model must work around.
type ExistingPlacement struct {
	CourseID    string
	Group       int
	ProfessorID string
	RoomID      string
	Day         string
	Start       string
	End         string
}

// RoomInfo describes a room available for placement.
type RoomInfo struct {
	ID       string
	Capacity int
}

// SuggestRequest is the input for a placement suggestion.
type SuggestRequest struct {
	Period           string
	Days             []string
	DayStart         string
	DayEnd           string
	Rooms            []RoomInfo
	Pending          []PendingSession
	Existing         []ExistingPlacement
	UseCompactPrompt bool // shorter prompt for local models
}

// SuggestResponse is the parsed model answer.
type SuggestResponse struct {
	Placements []SuggestedPlacement `json:"placements"`
	Warnings   []string             `json:"warnings"`
}

// SuggestedPlacement is one proposed placement.
type SuggestedPlacement struct {
	SessionID string `json:"session_id"`
	Day       string `json:"day"`
	Start     string `json:"start"`
	RoomID    string `json:"room_id"`
}

// Suggester asks an LLM to place pending sessions.
type Suggester struct {
	client Client
}

// NewSuggester creates a Suggester with the given client.
func NewSuggester(client Client) *Suggester {
	return &Suggester{client: client}
}

// Suggest returns the model's placements for req.
func (s *Suggester) Suggest(ctx context.Context, req SuggestRequest) (*SuggestResponse, error) {
	return s.SuggestWithMessages(ctx, s.BuildInitialMessages(req))
}

// SuggestWithMessages sends a prepared conversation. Retry loops use it
// to append validation feedback to earlier turns.
func (s *Suggester) SuggestWithMessages(ctx context.Context, messages []Message) (*SuggestResponse, error) {
	var resp SuggestResponse
	if err := s.client.ChatJSON(ctx, messages, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BuildInitialMessages renders the system prompt for req.
func (s *Suggester) BuildInitialMessages(req SuggestRequest) []Message {
	dayStart, dayEnd := req.DayStart, req.DayEnd
	if dayStart == "" {
		dayStart = "07:00"
	}
	if dayEnd == "" {
		dayEnd = "23:00"
	}
	days := strings.Join(req.Days, ", ")

	template := suggestPrompt
	if req.UseCompactPrompt {
		template = suggestPromptCompact
	}
	prompt := fmt.Sprintf(template,
		req.Period,
		days,
		dayStart,
		dayEnd,
		dayEnd,
		formatRooms(req.Rooms),
		formatExisting(req.Existing),
		formatPending(req.Pending),
	)
	return []Message{{Role: RoleSystem, Content: prompt}}
}

func formatRooms(rooms []RoomInfo) string {
	if len(rooms) == 0 {
		return "- none"
	}
	var sb strings.Builder
	for _, r := range rooms {
		fmt.Fprintf(&sb, "- %s (%d seats)\n", r.ID, r.Capacity)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatExisting(ps []ExistingPlacement) string {
	if len(ps) == 0 {
		return "Committed placements: None"
	}

	ps = sortedExisting(ps)
	var sb strings.Builder
	sb.WriteString("Committed placements (cells already taken):\n")
	for _, p := range ps {
		fmt.Fprintf(&sb, "- %s %s-%s: %s g%d, professor %s, room %s\n",
			p.Day, p.Start, p.End, p.CourseID, p.Group, p.ProfessorID, p.RoomID)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatPending(ss []PendingSession) string {
	if len(ss) == 0 {
		return "Pending sessions: None"
	}

	var sb strings.Builder
	sb.WriteString("Pending sessions to place:\n")
	for _, s := range ss {
		fmt.Fprintf(&sb, "- session_id=%s course=%s (%s, cycle %d) group=%d professor=%s students=%d duration=%dh\n",
			s.SessionID, s.CourseID, s.CourseName, s.Cycle, s.Group, s.ProfessorID, s.Students, s.Duration)
	}
	return strings.TrimRight(sb.String(), "\n")
}

var dayOrder = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3, "friday": 4, "saturday": 5,
}

func sortedExisting(ps []ExistingPlacement) []ExistingPlacement {
	sorted := append([]ExistingPlacement(nil), ps...)
	sort.Slice(sorted, func(i, j int) bool {
		di, dj := dayOrder[strings.ToLower(sorted[i].Day)], dayOrder[strings.ToLower(sorted[j].Day)]
		if di != dj {
			return di < dj
		}
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].RoomID < sorted[j].RoomID
	})
	return sorted
}
