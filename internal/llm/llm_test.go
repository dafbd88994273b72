package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "raw json object",
			input:    `{"placements": []}`,
			expected: `{"placements": []}`,
		},
		{
			name:     "json with leading text",
			input:    `Here is the response: {"placements": [{"session_id": "s1"}]}`,
			expected: `{"placements": [{"session_id": "s1"}]}`,
		},
		{
			name:     "json in code block",
			input:    "```json\n{\"placements\": []}\n```",
			expected: `{"placements": []}`,
		},
		{
			name:     "json in plain code block",
			input:    "```\n{\"placements\": []}\n```",
			expected: `{"placements": []}`,
		},
		{
			name:     "json array",
			input:    `[{"id": 1}, {"id": 2}]`,
			expected: `[{"id": 1}, {"id": 2}]`,
		},
		{
			name:     "nested json",
			input:    `{"outer": {"inner": {"deep": true}}}`,
			expected: `{"outer": {"inner": {"deep": true}}}`,
		},
		{
			name: "markdown with explanation",
			input: `Here's my analysis:

` + "```json" + `
{
  "placements": [
    {"session_id": "s1", "day": "monday"}
  ]
}
` + "```" + `

Let me know if you need anything else.`,
			expected: `{
  "placements": [
    {"session_id": "s1", "day": "monday"}
  ]
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractJSON(tt.input)
			if got != tt.expected {
				t.Errorf("extractJSON() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var resp SuggestResponse
	err := decodeJSON("Sure:\n```json\n{\"placements\": [{\"session_id\": \"s1\", \"day\": \"monday\", \"start\": \"09:00\", \"room_id\": \"R1\"}]}\n```", &resp)
	if err != nil {
		t.Fatalf("decodeJSON failed: %v", err)
	}
	if len(resp.Placements) != 1 || resp.Placements[0].RoomID != "R1" {
		t.Errorf("placements = %+v", resp.Placements)
	}

	if err := decodeJSON("no json here", &resp); err == nil {
		t.Error("expected error for non-JSON content")
	}
}

// fakeClient answers with canned content and records what it was sent.
type fakeClient struct {
	answer   string
	err      error
	received [][]Message
}

func (f *fakeClient) Chat(_ context.Context, messages []Message) (string, error) {
	f.received = append(f.received, messages)
	return f.answer, f.err
}

func (f *fakeClient) ChatJSON(ctx context.Context, messages []Message, result any) error {
	content, err := f.Chat(ctx, messages)
	if err != nil {
		return err
	}
	return decodeJSON(content, result)
}

func TestEvaluateTimetable(t *testing.T) {
	client := &fakeClient{answer: "LOAD: even"}
	got, err := NewEvaluator(client).EvaluateTimetable(context.Background(), TimetableFacts{
		Period:     "2025-I",
		DayHours:   []string{"Mon 4h"},
		Placements: []string{"ALG g1 Mon 09:00-13:00 room R1"},
	})
	if err != nil {
		t.Fatalf("EvaluateTimetable failed: %v", err)
	}
	if got != "LOAD: even" {
		t.Errorf("got %q", got)
	}

	msgs := client.received[0]
	if len(msgs) != 2 || msgs[0].Role != RoleSystem || msgs[1].Role != RoleUser {
		t.Fatalf("messages = %+v", msgs)
	}
	for _, want := range []string{"2025-I", "- Mon 4h", "ALG g1 Mon 09:00-13:00", "Open problems:\nnone"} {
		if !strings.Contains(msgs[1].Content, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestEvaluateTimetable_ClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("offline")}
	if _, err := NewEvaluator(client).EvaluateTimetable(context.Background(), TimetableFacts{}); err == nil {
		t.Error("expected client error")
	}
}
