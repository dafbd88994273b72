package eventlog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Log(PlacementCommitted, map[string]any{"placement_id": 7, "course": "ALG"})
	l.Log(PlacementRejected, map[string]any{"reason": "room double-booked"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if entry["event"] != PlacementRejected || entry["seq"] != float64(2) {
		t.Errorf("entry = %v", entry)
	}
	if entry["reason"] != "room double-booked" {
		t.Errorf("reason = %v", entry["reason"])
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	l.Log(PublishBlocked, nil)
	if err := l.Close(); err != nil {
		t.Errorf("Close on nil logger: %v", err)
	}
}

func TestConcurrentLog(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Log(ValidationCompleted, map[string]any{"n": i})
		}(i)
	}
	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 20 {
		t.Errorf("got %d lines, want 20", n)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	l.Log(TimetableCreated, map[string]any{"period": "2025-I"})
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	out := string(data)
	for _, want := range []string{"log.start", TimetableCreated, "log.end"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}
