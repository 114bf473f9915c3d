package executor

import (
	"sync"
	"time"
)

// AuditEntry is one append-only audit record. Entries are never rewritten
// or deleted, and their timestamps are strictly increasing.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"` // "job", "batch-N", or a field name
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
}

// auditLog serializes appends from concurrent batch workers so the entry
// sequence stays totally ordered by timestamp.
type auditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	last    time.Time
}

func newAuditLog() *auditLog {
	return &auditLog{}
}

func (l *auditLog) append(subject, action, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	// Clock reads can collide under concurrency; bump to keep the
	// sequence strictly increasing.
	if !now.After(l.last) {
		now = l.last.Add(time.Nanosecond)
	}
	l.last = now

	l.entries = append(l.entries, AuditEntry{
		Timestamp: now,
		Subject:   subject,
		Action:    action,
		Detail:    detail,
	})
}

// snapshot returns a copy of all entries appended so far.
func (l *auditLog) snapshot() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
