package domain

import (
	"sort"
	"time"
)

// CalendarEvent is the normalised in-memory representation of a single
// calendar entry, independent of which session variant produced it.
// Times are always UTC.
type CalendarEvent struct {
	Subject  string
	Start    time.Time
	End      time.Time
	Location string
	IsAllDay bool
}

// EventBatch is an ordered sequence of events belonging to a single run.
type EventBatch []CalendarEvent

// Window is a half-open time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// DefaultHorizonDays is the forward-looking window used when no --days
// override is given.
const DefaultHorizonDays = 14

// NewWindow returns the forward-looking window [now, now+days).
func NewWindow(now time.Time, days int) Window {
	if days <= 0 {
		days = DefaultHorizonDays
	}
	now = now.UTC()
	return Window{From: now, To: now.AddDate(0, 0, days)}
}

// Contains reports whether t falls within the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// Clamp returns only the events whose start time falls within the window.
// Providers may return adjacent events (month views render whole weeks),
// so the batch is filtered here to uphold the window invariant.
func (b EventBatch) Clamp(w Window) EventBatch {
	out := make(EventBatch, 0, len(b))
	for _, ev := range b {
		if w.Contains(ev.Start) {
			out = append(out, ev)
		}
	}
	return out
}

// SortByStart orders the batch ascending by start time. Events with equal
// start times are ordered by subject so the result is deterministic.
func (b EventBatch) SortByStart() {
	sort.SliceStable(b, func(i, j int) bool {
		if b[i].Start.Equal(b[j].Start) {
			return b[i].Subject < b[j].Subject
		}
		return b[i].Start.Before(b[j].Start)
	})
}
