package portal

import (
	"sync"
	"time"
)

const (
	defaultTrackerTTL        = 30 * time.Minute
	defaultTrackerMaxEntries = 10000
)

// Ticket identifies one submit attempt of a form by one browser.
type Ticket struct {
	Key        string
	Generation uint64
}

// SubmissionTracker keeps a generation counter per (browser, screen). Only the
// most recent ticket of a pair is current; results of older tickets must be
// dropped when they settle.
type SubmissionTracker struct {
	mu         sync.Mutex
	entries    map[string]*trackerEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type trackerEntry struct {
	generation uint64
	touched    time.Time
}

// TrackerOption customizes a SubmissionTracker.
type TrackerOption func(*SubmissionTracker)

// WithTrackerClock injects a clock, for tests.
func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *SubmissionTracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithTrackerLimits bounds memory: idle entries older than ttl are pruned once
// the tracker holds more than maxEntries pairs.
func WithTrackerLimits(ttl time.Duration, maxEntries int) TrackerOption {
	return func(t *SubmissionTracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
		if maxEntries > 0 {
			t.maxEntries = maxEntries
		}
	}
}

func NewSubmissionTracker(opts ...TrackerOption) *SubmissionTracker {
	t := &SubmissionTracker{
		entries:    map[string]*trackerEntry{},
		ttl:        defaultTrackerTTL,
		maxEntries: defaultTrackerMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Begin starts a new submit and supersedes any in-flight one for the pair.
func (t *SubmissionTracker) Begin(browserID, screen string) Ticket {
	key := browserID + "|" + screen

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if len(t.entries) >= t.maxEntries {
		t.pruneLocked(now)
	}

	entry, ok := t.entries[key]
	if !ok {
		entry = &trackerEntry{}
		t.entries[key] = entry
	}
	entry.generation++
	entry.touched = now

	return Ticket{Key: key, Generation: entry.generation}
}

// IsCurrent reports whether no newer submit started since ticket was issued.
func (t *SubmissionTracker) IsCurrent(ticket Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[ticket.Key]
	if !ok {
		return false
	}
	return entry.generation == ticket.Generation
}

// Len returns the number of tracked pairs.
func (t *SubmissionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Prune drops idle pairs and returns how many were removed.
func (t *SubmissionTracker) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pruneLocked(t.now())
}

func (t *SubmissionTracker) pruneLocked(now time.Time) int {
	removed := 0
	for key, entry := range t.entries {
		if now.Sub(entry.touched) > t.ttl {
			delete(t.entries, key)
			removed++
		}
	}
	return removed
}
