package llm

import (
	"context"
	"fmt"
	"strings"
)

const evaluatorSystemPrompt = `You are a university timetable reviewer. Output ONLY the exact format shown - no markdown, no extra text. Be extremely concise.`

const evaluatorUserPrompt = `Review this draft timetable for %s and output EXACTLY this format (no markdown, no code blocks):

LOAD: one sentence on how teaching hours spread across the week.
GAPS: one sentence on courses or groups still missing hours.
RISK: one sentence on the most serious conflict or capacity issue.

NEXT:
- First concrete change to make.
- Second concrete change to make.

Hours per day:
%s

Placements (course gGROUP day start-end room):
%s

Open problems:
%s

%s

Rules:
- Keep each line under 80 characters
- Name specific courses, days, and times from the data
- If a line has nothing to report, write "none"`

// TimetableFacts is the plain-text view of a timetable handed to the model.
type TimetableFacts struct {
	Period      string
	DayHours    []string
	Placements  []string
	Problems    string
	PendingHint string
}

// Evaluator asks an LLM for a short review of a timetable.
type Evaluator struct {
	client Client
}

// NewEvaluator creates a new Evaluator with the given LLM client.
func NewEvaluator(client Client) *Evaluator {
	return &Evaluator{client: client}
}

// EvaluateTimetable returns the model's review of facts.
func (e *Evaluator) EvaluateTimetable(ctx context.Context, facts TimetableFacts) (string, error) {
	return e.client.Chat(ctx, []Message{
		{Role: RoleSystem, Content: evaluatorSystemPrompt},
		{Role: RoleUser, Content: buildEvaluationPrompt(facts)},
	})
}

func buildEvaluationPrompt(f TimetableFacts) string {
	problems := strings.TrimSpace(f.Problems)
	if problems == "" {
		problems = "none"
	}
	return fmt.Sprintf(evaluatorUserPrompt,
		f.Period,
		bulletList(f.DayHours),
		bulletList(f.Placements),
		problems,
		f.PendingHint,
	)
}

func bulletList(lines []string) string {
	if len(lines) == 0 {
		return "- none"
	}
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(l)
	}
	return sb.String()
}
