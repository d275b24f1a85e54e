package log

import (
	"sync"
	"time"
)

// LogEntry is one buffered log record
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LogBuffer is a fixed-capacity ring of log entries. Once full, each new
// entry replaces the oldest one.
type LogBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int
	full    bool
}

// NewLogBuffer creates a buffer holding at most capacity entries
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &LogBuffer{entries: make([]LogEntry, capacity)}
}

// AddEntry appends an entry, evicting the oldest when the buffer is full
func (b *LogBuffer) AddEntry(entry LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.next] = entry
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
}

// Len returns the number of buffered entries
func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.full {
		return len(b.entries)
	}
	return b.next
}

// GetEntries returns up to limit of the most recent entries, oldest first.
// A limit of zero or less returns everything buffered.
func (b *LogBuffer) GetEntries(limit int) []LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var ordered []LogEntry
	if b.full {
		ordered = append(ordered, b.entries[b.next:]...)
	}
	ordered = append(ordered, b.entries[:b.next]...)

	if limit > 0 && limit < len(ordered) {
		ordered = ordered[len(ordered)-limit:]
	}
	return ordered
}
