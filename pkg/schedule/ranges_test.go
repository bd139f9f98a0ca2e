package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/meetwise-cli/pkg/meeting"
)

var now = time.Date(2026, 8, 12, 14, 30, 0, 0, time.UTC) // a Wednesday

func TestRanges_PlanWindow(t *testing.T) {
	w := Ranges(now, 7)

	assert.Equal(t, time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC), w.Plan.Start)
	assert.Equal(t, time.Date(2026, 8, 19, 23, 59, 59, 999999999, time.UTC), w.Plan.End)

	// A meeting this afternoon is in the plan even though it is before
	// "now"; the window starts at midnight.
	assert.True(t, w.Plan.Contains(time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)))
	assert.True(t, w.Plan.Contains(w.Plan.End))
	assert.False(t, w.Plan.Contains(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)))
}

func TestRanges_ReviewWindow(t *testing.T) {
	w := Ranges(now, 7)

	assert.Equal(t, time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC), w.Review.Start)
	// Review ends yesterday; today's meetings belong to the plan.
	assert.Equal(t, time.Date(2026, 8, 11, 23, 59, 59, 999999999, time.UTC), w.Review.End)
	assert.False(t, w.Review.Contains(now))
}

func TestRanges_RateWindowInclusiveBounds(t *testing.T) {
	w := Ranges(now, 7)

	assert.Equal(t, time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC), w.Rate.Start)
	assert.Equal(t, now, w.Rate.End)
	assert.True(t, w.Rate.Contains(w.Rate.Start))
	assert.True(t, w.Rate.Contains(w.Rate.End))
}

func TestRanges_DayRollover(t *testing.T) {
	before := Ranges(now, 7)
	after := Ranges(now.AddDate(0, 0, 1), 7)

	assert.Equal(t, before.Plan.Start.AddDate(0, 0, 1), after.Plan.Start)
}

func TestRanges_InvalidDaysAheadFallsBack(t *testing.T) {
	w := Ranges(now, 0)
	assert.Equal(t, Ranges(now, DefaultDaysAhead).Plan, w.Plan)
}

func planMeeting(id string, rank int, start time.Time, participants ...string) meeting.Meeting {
	if participants == nil {
		participants = []string{"a@example.com", "b@example.com"}
	}
	return meeting.Meeting{
		ID:           id,
		Rank:         rank,
		StartTime:    start,
		Participants: participants,
	}
}

func TestFilterByRange_ViewRenumbering(t *testing.T) {
	w := Ranges(now, 7)
	inWindow := now.AddDate(0, 0, 1)

	meetings := []meeting.Meeting{
		planMeeting("c", 3000, inWindow),
		planMeeting("a", 1000, inWindow),
		planMeeting("old", 2000, now.AddDate(0, 0, -30)),
		planMeeting("b", 2000, inWindow),
	}

	view := FilterByRange(meetings, w.Plan)
	require.Len(t, view, 3)

	// Rank-sorted and renumbered 1..N for display.
	assert.Equal(t, []string{"a", "b", "c"}, []string{view[0].ID, view[1].ID, view[2].ID})
	assert.Equal(t, []int{1, 2, 3}, []int{view[0].Rank, view[1].Rank, view[2].Rank})

	// The stored set keeps its gapped ranks; the view is a copy.
	assert.Equal(t, 3000, meetings[0].Rank)
	assert.Equal(t, 1000, meetings[1].Rank)
}

func TestFilterByRange_ExcludesPersonalHolds(t *testing.T) {
	w := Ranges(now, 7)
	inWindow := now.AddDate(0, 0, 1)

	meetings := []meeting.Meeting{
		planMeeting("solo", 1000, inWindow, "me@example.com"),
		planMeeting("room", 2000, inWindow, "me@example.com", "4a@resource.calendar.google.com"),
		planMeeting("real", 3000, inWindow),
	}

	view := FilterByRange(meetings, w.Plan)
	require.Len(t, view, 1)
	assert.Equal(t, "real", view[0].ID)
}
