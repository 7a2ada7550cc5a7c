// Package history keeps an in-memory record of finished recording cycles.
// The last successful transcription stays recoverable from here until the
// process exits; nothing is persisted to disk.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry describes one finished recording cycle
type Entry struct {
	ID       uuid.UUID
	Time     time.Time
	Duration time.Duration
	Bytes    int
	Outcome  string
	Text     string
}

// Log is a bounded, newest-last list of cycle entries
type Log struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
}

// DefaultCapacity bounds how many cycles are kept
const DefaultCapacity = 50

// New creates a new log. capacity <= 0 selects DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Add records a finished cycle, evicting the oldest entry when full
func (l *Log) Add(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}

	l.entries = append(l.entries, entry)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
}

// Entries returns a copy of all recorded entries, oldest first
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Last returns the most recent entry
func (l *Log) Last() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// LastText returns the most recent non-empty transcription text
func (l *Log) LastText() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Text != "" {
			return l.entries[i].Text, true
		}
	}
	return "", false
}

// Len returns the number of recorded entries
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
