package format

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/outcal/internal/core/domain"
)

func sampleBatch() domain.EventBatch {
	return domain.EventBatch{
		{
			Subject: "Standup",
			Start:   time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
			End:     time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC),
		},
		{
			Subject:  "Planning",
			Start:    time.Date(2024, 1, 3, 14, 0, 0, 0, time.UTC),
			End:      time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC),
			Location: "Room 4",
		},
		{
			Subject:  "Offsite",
			Start:    time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			End:      time.Date(2024, 1, 5, 23, 59, 0, 0, time.UTC),
			IsAllDay: true,
		},
	}
}

func TestRender_Deterministic(t *testing.T) {
	batch := sampleBatch()

	for _, kind := range []Kind{Text, ICal, JSON} {
		t.Run(kind.String(), func(t *testing.T) {
			first, err := Render(batch, kind)
			require.NoError(t, err)
			second, err := Render(batch, kind)
			require.NoError(t, err)

			assert.Equal(t, first, second)
		})
	}
}

func TestRenderJSON_KnownBatch(t *testing.T) {
	batch := domain.EventBatch{{
		Subject: "Standup",
		Start:   time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC),
	}}

	out, err := Render(batch, JSON)

	require.NoError(t, err)
	assert.Equal(t,
		`[{"subject":"Standup","start":"2024-01-02T09:00:00Z","end":"2024-01-02T09:15:00Z","location":null,"is_all_day":false}]`,
		out)
}

func TestRenderJSON_RoundTrip(t *testing.T) {
	out, err := Render(sampleBatch(), JSON)
	require.NoError(t, err)

	var decoded []struct {
		Subject  string  `json:"subject"`
		Start    string  `json:"start"`
		End      string  `json:"end"`
		Location *string `json:"location"`
		IsAllDay bool    `json:"is_all_day"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 3)

	assert.Equal(t, "Standup", decoded[0].Subject)
	assert.Nil(t, decoded[0].Location)
	require.NotNil(t, decoded[1].Location)
	assert.Equal(t, "Room 4", *decoded[1].Location)
	assert.True(t, decoded[2].IsAllDay)

	start, err := time.Parse(time.RFC3339, decoded[0].Start)
	require.NoError(t, err)
	assert.True(t, start.Equal(sampleBatch()[0].Start))
}

func TestRenderJSON_EmptyBatch(t *testing.T) {
	out, err := Render(nil, JSON)

	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestRenderText(t *testing.T) {
	out, err := Render(sampleBatch(), Text)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], "Standup")
	assert.Contains(t, lines[0], "09:00")
	assert.Contains(t, lines[1], "Planning @ Room 4")
	assert.Contains(t, lines[2], "(all day)")
	assert.Contains(t, lines[2], "Offsite")
}

func TestRenderText_EmptyBatch(t *testing.T) {
	out, err := Render(nil, Text)

	require.NoError(t, err)
	assert.Equal(t, "No upcoming events.\n", out)
}

func TestRenderICal_RoundTrip(t *testing.T) {
	out, err := Render(sampleBatch(), ICal)
	require.NoError(t, err)

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "SUMMARY:Standup")
	assert.Contains(t, out, "LOCATION:Room 4")

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.NotEmpty(t, ev.Id())
	}

	// Events keep batch order in the serialised document.
	sum := events[0].GetProperty(ics.ComponentPropertySummary)
	require.NotNil(t, sum)
	assert.Equal(t, "Standup", sum.Value)
}

func TestRenderICal_StableUIDs(t *testing.T) {
	ev := domain.CalendarEvent{
		Subject: "Standup",
		Start:   time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC),
	}

	assert.Equal(t, eventUID(ev), eventUID(ev))

	other := ev
	other.Subject = "Retro"
	assert.NotEqual(t, eventUID(ev), eventUID(other))
}
