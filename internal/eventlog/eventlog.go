// Package eventlog writes engine events as JSON lines for debugging.
package eventlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// DefaultPath is the log file used by the --debug flag.
const DefaultPath = "horario-debug.log"

// Event names.
const (
	TimetableCreated    = "timetable.created"
	TimetableDeleted    = "timetable.deleted"
	PlacementCommitted  = "placement.committed"
	PlacementRejected   = "placement.rejected"
	PlacementRemoved    = "placement.removed"
	ValidationCompleted = "validation.completed"
	PublishBlocked      = "publish.blocked"
	PublishConfirmed    = "publish.confirmed"
	SuggestionAttempted = "suggestion.attempted"
)

// Logger writes structured entries. A nil Logger discards everything.
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	seq    int
	now    func() time.Time
}

// New returns a Logger writing to w.
func New(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// Open creates (truncating) the log file at path.
func Open(path string) (*Logger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating event log: %w", err)
	}
	l := New(f)
	l.closer = f
	l.Log("log.start", map[string]any{
		"log_file": path,
		"time":     time.Now().Format(time.RFC3339),
	})
	return l, nil
}

// Log writes one entry with a sequence number, timestamp, and event name.
func (l *Logger) Log(event string, data map[string]any) {
	if l == nil || l.w == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	entry := map[string]any{
		"seq":   l.seq,
		"ts":    l.now().Format("15:04:05.000"),
		"event": event,
	}
	for k, v := range data {
		entry[k] = v
	}

	b, err := json.Marshal(entry)
	if err != nil {
		b, _ = json.Marshal(map[string]any{"seq": l.seq, "event": event, "marshal_error": err.Error()})
	}
	_, _ = fmt.Fprintf(l.w, "%s\n", b)
}

// Close flushes the end marker and closes the file, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	l.Log("log.end", map[string]any{"time": time.Now().Format(time.RFC3339)})
	return l.closer.Close()
}
