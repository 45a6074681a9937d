package webcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAriaLabel(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		subject  string
		start    time.Time
		end      time.Time
		location string
		allDay   bool
	}{
		{
			name:     "timed event with location",
			label:    "Standup, 10:00 AM to 10:15 AM, Tuesday, February 3, 2026, Room 1",
			subject:  "Standup",
			start:    time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
			end:      time.Date(2026, 2, 3, 10, 15, 0, 0, time.UTC),
			location: "Room 1",
		},
		{
			name:    "timed event without location",
			label:   "1:1 with Sam, 2:30 PM to 3:00 PM, Friday, February 6, 2026",
			subject: "1:1 with Sam",
			start:   time.Date(2026, 2, 6, 14, 30, 0, 0, time.UTC),
			end:     time.Date(2026, 2, 6, 15, 0, 0, 0, time.UTC),
		},
		{
			name:    "midnight boundary",
			label:   "Night shift, 12:00 AM to 1:00 AM, Monday, February 2, 2026",
			subject: "Night shift",
			start:   time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
			end:     time.Date(2026, 2, 2, 1, 0, 0, 0, time.UTC),
		},
		{
			name:    "noon",
			label:   "Lunch, 12:00 PM to 1:00 PM, Monday, February 2, 2026",
			subject: "Lunch",
			start:   time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC),
			end:     time.Date(2026, 2, 2, 13, 0, 0, 0, time.UTC),
		},
		{
			name:    "all day event",
			label:   "Offsite, all day event, Tuesday, February 3, 2026",
			subject: "Offsite",
			start:   time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
			end:     time.Date(2026, 2, 3, 23, 59, 0, 0, time.UTC),
			allDay:  true,
		},
		{
			name:     "recurring chrome after date is not a location",
			label:    "Weekly sync, 9:00 AM to 9:30 AM, Wednesday, February 4, 2026, recurring event",
			subject:  "Weekly sync",
			start:    time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC),
			end:      time.Date(2026, 2, 4, 9, 30, 0, 0, time.UTC),
			location: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := ParseAriaLabel(tt.label)

			require.True(t, ok)
			assert.Equal(t, tt.subject, ev.Subject)
			assert.True(t, ev.Start.Equal(tt.start), "start: got %v want %v", ev.Start, tt.start)
			assert.True(t, ev.End.Equal(tt.end), "end: got %v want %v", ev.End, tt.end)
			assert.Equal(t, tt.location, ev.Location)
			assert.Equal(t, tt.allDay, ev.IsAllDay)
		})
	}
}

func TestParseAriaLabel_RejectsNonEvents(t *testing.T) {
	labels := []string{
		"",
		"calendar view, February 2026",
		"current time, 10:04 AM",
		"Standup",                           // no date
		"Standup, 10:00 AM to 10:15 AM",     // no date
		"Standup, Tuesday, February, 2026",  // month without day
		"Standup, Tuesday, February 3, 202", // bad year
	}

	for _, label := range labels {
		_, ok := ParseAriaLabel(label)
		assert.False(t, ok, "label %q should not parse", label)
	}
}

func TestParseAriaLabels_Dedupes(t *testing.T) {
	batch := ParseAriaLabels([]string{
		"Standup, 10:00 AM to 10:15 AM, Tuesday, February 3, 2026, Room 1",
		"Standup, 10:00 AM to 10:15 AM, Tuesday, February 3, 2026, Room 1",
		"  Standup, 10:00 AM to 10:15 AM, Tuesday, February 3, 2026, Room 1  ",
		"Retro, 4:00 PM to 5:00 PM, Thursday, February 5, 2026",
		"calendar view, February 2026",
	})

	require.Len(t, batch, 2)
	assert.Equal(t, "Standup", batch[0].Subject)
	assert.Equal(t, "Retro", batch[1].Subject)
}
