package meeting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImport_MinuteTimestamps(t *testing.T) {
	data := []byte(`[
		{"id": "evt-1", "title": "Standup",
		 "startTime": "2024-01-15T09:00Z", "endTime": "2024-01-15T09:30Z",
		 "participants": ["a@example.com", "b@example.com"]}
	]`)

	events, err := ParseImport(data)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), events[0].StartTime.Time)
}

func TestParseImport_ExportEnvelope(t *testing.T) {
	data := []byte(`{
		"exportedAt": "2026-08-01T10:00:00Z",
		"meetings": [
			{"id": "evt-1", "title": "Standup", "rank": 3000,
			 "startTime": "2024-01-15T09:00:00Z", "endTime": "2024-01-15T09:30:00Z",
			 "participants": ["a@example.com", "b@example.com"]}
		]
	}`)

	events, err := ParseImport(data)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 3000, events[0].Rank)
}

func TestParseImport_Malformed(t *testing.T) {
	_, err := ParseImport([]byte(`{"not": "an array"`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseImport_BadTimestamp(t *testing.T) {
	_, err := ParseImport([]byte(`[{"id": "x", "startTime": "yesterday-ish"}]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func event(id string, participants ...string) RawEvent {
	return RawEvent{
		ID:           id,
		Title:        "Meeting " + id,
		StartTime:    EventTime{time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)},
		EndTime:      EventTime{time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		Participants: participants,
	}
}

func TestFilterImportable(t *testing.T) {
	allDay := event("all-day", "a@example.com", "b@example.com")
	allDay.AllDay = true

	transparent := event("ooo", "a@example.com", "b@example.com")
	transparent.Transparency = "transparent"

	holiday := event("holiday", "a@example.com", "b@example.com")
	holiday.Title = "Summer Holiday"

	solo := event("solo", "me@example.com")

	roomOnly := event("room", "me@example.com", "room-4a@resource.calendar.google.com")

	keep := event("keep", "a@example.com", "b@example.com")

	got := FilterImportable([]RawEvent{allDay, transparent, holiday, solo, roomOnly, keep})

	require.Len(t, got, 1)
	assert.Equal(t, "keep", got[0].ID)
}

func TestNormalize_Defaults(t *testing.T) {
	events := []RawEvent{
		event("a", "x@example.com", "y@example.com"),
		event("b", "x@example.com", "y@example.com"),
	}

	got := Normalize(events)
	require.Len(t, got, 2)

	// Sequential ranks for fresh imports, one hour derived from the
	// start/end pair.
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, 2, got[1].Rank)
	assert.Equal(t, PriorityRegular, got[0].Priority)
	assert.InDelta(t, 1.0, got[0].Duration, 1e-9)
	assert.Equal(t, "Monday", got[0].DayOfWeek)
	assert.Equal(t, "calendar", got[0].Icon)
	assert.Equal(t, "file-text", got[0].PreworkIcon)
	assert.True(t, got[0].ShowActions)
	assert.NotNil(t, got[0].Comments)
}

func TestNormalize_PreservesReimportedAnnotations(t *testing.T) {
	e := event("a", "x@example.com", "y@example.com")
	e.Rank = 4000
	e.Priority = PriorityHigh
	e.Icon = "target"
	hide := false
	e.ShowActions = &hide

	got := Normalize([]RawEvent{e})
	require.Len(t, got, 1)

	assert.Equal(t, 4000, got[0].Rank)
	assert.Equal(t, PriorityHigh, got[0].Priority)
	assert.Equal(t, "target", got[0].Icon)
	assert.False(t, got[0].ShowActions)
}

func TestNormalize_DerivesInconsistentDuration(t *testing.T) {
	e := event("a", "x@example.com", "y@example.com")
	e.Duration = 5.0 // start/end pair says 1h

	got := Normalize([]RawEvent{e})
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].Duration, 1e-9)
}

func TestNormalize_InvalidPriorityFallsBack(t *testing.T) {
	e := event("a", "x@example.com", "y@example.com")
	e.Priority = PriorityLevel("urgent")

	got := Normalize([]RawEvent{e})
	require.Len(t, got, 1)
	assert.Equal(t, PriorityRegular, got[0].Priority)
}

func TestHumanParticipants_ExcludesRooms(t *testing.T) {
	m := Meeting{Participants: []string{
		"a@example.com",
		"room-4a@resource.calendar.google.com",
		"b@example.com",
	}}

	assert.Equal(t, []string{"a@example.com", "b@example.com"}, m.HumanParticipants())
	assert.Equal(t, 2, m.HumanParticipantCount())
}
