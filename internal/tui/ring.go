package tui

import "github.com/studiowebux/pepe/internal/outcome"

// RecentLogCapacity bounds the request log pane: only the most recent
// completions are kept, whatever the run size.
const RecentLogCapacity = 100

// RecentLogRing is a fixed-capacity ring of outcomes in completion order.
// Not safe for concurrent use; the dashboard owns it and feeds it from
// Update only.
type RecentLogRing struct {
	buf   []outcome.Outcome
	next  int
	count int
}

// NewRecentLogRing creates a ring holding up to capacity outcomes.
func NewRecentLogRing(capacity int) *RecentLogRing {
	if capacity < 1 {
		capacity = 1
	}
	return &RecentLogRing{buf: make([]outcome.Outcome, capacity)}
}

// Push records one completed outcome, evicting the oldest when full.
func (r *RecentLogRing) Push(o outcome.Outcome) {
	r.buf[r.next] = o
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Len returns how many outcomes the ring currently holds.
func (r *RecentLogRing) Len() int {
	return r.count
}

// Items returns the held outcomes, newest first.
func (r *RecentLogRing) Items() []outcome.Outcome {
	out := make([]outcome.Outcome, 0, r.count)
	for i := 1; i <= r.count; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

// Reset empties the ring for a fresh run.
func (r *RecentLogRing) Reset() {
	r.next = 0
	r.count = 0
}
