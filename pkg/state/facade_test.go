package state

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/meetwise-cli/credentials"
	"github.com/otherjamesbrown/meetwise-cli/pkg/meeting"
	"github.com/otherjamesbrown/meetwise-cli/pkg/ranking"
	"github.com/otherjamesbrown/meetwise-cli/pkg/schedule"
	"github.com/otherjamesbrown/meetwise-cli/pkg/stats"
	"github.com/otherjamesbrown/meetwise-cli/pkg/store"
)

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, credentials.KeyLength)
	st, err := store.Open(t.TempDir(), &credentials.StaticKeyProvider{Key: key})
	require.NoError(t, err)

	f := New(st, nil)
	require.NoError(t, f.Load(context.Background()))
	return f
}

func stateMeeting(id string, rank int, level meeting.PriorityLevel) meeting.Meeting {
	return meeting.Meeting{
		ID:        id,
		Title:     "Meeting " + id,
		StartTime: time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 8, 10, 10, 0, 0, 0, time.UTC),
		Duration:  1,
		Rank:      rank,
		Priority:  level,
		Comments:  []meeting.Comment{},
	}
}

func TestFacade_LoadDefaults(t *testing.T) {
	f := newTestFacade(t)

	assert.Empty(t, f.Meetings())
	assert.InDelta(t, stats.DefaultTargetHours, f.TargetHours(), 1e-9)
	assert.Equal(t, schedule.DefaultDaysAhead, f.DaysAhead())
	assert.Empty(t, f.WeeklyPriorities())
}

func TestFacade_ImportIsAdditiveOverwriteByID(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	require.NoError(t, f.ImportMeetings(ctx, []meeting.Meeting{
		stateMeeting("a", 1000, meeting.PriorityHigh),
		stateMeeting("b", 2000, meeting.PriorityRegular),
	}))

	// Second import updates "b" and adds "c"; "a" is untouched.
	updated := stateMeeting("b", 2000, meeting.PriorityRegular)
	updated.Title = "Renamed"
	require.NoError(t, f.ImportMeetings(ctx, []meeting.Meeting{
		updated,
		stateMeeting("c", 3000, meeting.PriorityLow),
	}))

	meetings := f.Meetings()
	require.Len(t, meetings, 3)

	byID := map[string]meeting.Meeting{}
	for _, m := range meetings {
		byID[m.ID] = m
	}
	assert.Equal(t, "Meeting a", byID["a"].Title)
	assert.Equal(t, "Renamed", byID["b"].Title)
	assert.Contains(t, byID, "c")
}

func TestFacade_ImportSurvivesReload(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	require.NoError(t, f.ImportMeetings(ctx, []meeting.Meeting{
		stateMeeting("a", 1000, meeting.PriorityRegular),
	}))

	require.NoError(t, f.Load(ctx))
	require.Len(t, f.Meetings(), 1)
	assert.Equal(t, "a", f.Meetings()[0].ID)
}

func TestFacade_ToggleAction(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	st, err := f.ToggleAction(ctx, "evt-1", ActionCancel)
	require.NoError(t, err)
	assert.True(t, st.NeedsCancel)

	st, err = f.ToggleAction(ctx, "evt-1", ActionPrep)
	require.NoError(t, err)
	assert.True(t, st.NeedsCancel)
	assert.True(t, st.PrepRequired)

	// Toggling again clears the flag.
	st, err = f.ToggleAction(ctx, "evt-1", ActionCancel)
	require.NoError(t, err)
	assert.False(t, st.NeedsCancel)

	_, err = f.ToggleAction(ctx, "evt-1", "explode")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFacade_Comments(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	c1, err := f.AddComment(ctx, "evt-1", "first", "me")
	require.NoError(t, err)
	require.NotEmpty(t, c1.ID)

	c2, err := f.AddComment(ctx, "evt-1", "second", "")
	require.NoError(t, err)

	require.NoError(t, f.UpdateComment(ctx, "evt-1", c1.ID, "edited"))

	comments := f.Comments("evt-1")
	require.Len(t, comments, 2)
	assert.Equal(t, "edited", comments[0].Text)
	assert.Equal(t, "second", comments[1].Text)

	require.NoError(t, f.DeleteComment(ctx, "evt-1", c2.ID))
	assert.Len(t, f.Comments("evt-1"), 1)

	_, err = f.AddComment(ctx, "evt-1", "", "me")
	assert.ErrorIs(t, err, ErrValidation)

	err = f.UpdateComment(ctx, "evt-1", "no-such-comment", "x")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFacade_RatingValidation(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.SetRating(ctx, "evt-1", 0, ""), ErrValidation)
	assert.ErrorIs(t, f.SetRating(ctx, "evt-1", 6, ""), ErrValidation)

	require.NoError(t, f.SetRating(ctx, "evt-1", 4, "useful"))
	r, ok := f.Rating("evt-1")
	require.True(t, ok)
	assert.Equal(t, 4, r.Rating)
	assert.Equal(t, "useful", r.Comment)

	// Latest write wins.
	require.NoError(t, f.SetRating(ctx, "evt-1", 2, ""))
	r, _ = f.Rating("evt-1")
	assert.Equal(t, 2, r.Rating)
}

func TestFacade_SettingsPersistImmediately(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	require.NoError(t, f.SetTargetHours(ctx, 32.5))
	require.NoError(t, f.SetDaysAhead(ctx, 14))
	require.NoError(t, f.SetWeeklyPriorities(ctx, "ship v2"))

	assert.ErrorIs(t, f.SetTargetHours(ctx, 0), ErrValidation)
	assert.ErrorIs(t, f.SetDaysAhead(ctx, 0), ErrValidation)

	// A fresh load sees the persisted values.
	require.NoError(t, f.Load(ctx))
	assert.InDelta(t, 32.5, f.TargetHours(), 1e-9)
	assert.Equal(t, 14, f.DaysAhead())
	assert.Equal(t, "ship v2", f.WeeklyPriorities())
}

func TestFacade_MoveThroughEngine(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	require.NoError(t, f.ImportMeetings(ctx, []meeting.Meeting{
		stateMeeting("a", 1000, meeting.PriorityRegular),
		stateMeeting("b", 2000, meeting.PriorityRegular),
		stateMeeting("c", 3000, meeting.PriorityRegular),
	}))

	require.NoError(t, f.Move(ctx, ranking.Move{
		Source:      ranking.Position{Bucket: meeting.PriorityRegular, Index: 2},
		Destination: &ranking.Position{Bucket: meeting.PriorityHigh, Index: 0},
	}))

	buckets := f.Buckets(f.Meetings())
	require.Len(t, buckets[meeting.PriorityHigh], 1)
	assert.Equal(t, "c", buckets[meeting.PriorityHigh][0].ID)
	assert.Equal(t, 1000, buckets[meeting.PriorityHigh][0].Rank)

	// Persisted, not just in memory.
	require.NoError(t, f.Load(ctx))
	buckets = f.Buckets(f.Meetings())
	require.Len(t, buckets[meeting.PriorityHigh], 1)
	assert.Equal(t, meeting.PriorityHigh, buckets[meeting.PriorityHigh][0].Priority)
}

func TestFacade_ClearAllResetsDefaults(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	require.NoError(t, f.ImportMeetings(ctx, []meeting.Meeting{
		stateMeeting("a", 1000, meeting.PriorityRegular),
	}))
	require.NoError(t, f.SetTargetHours(ctx, 20))
	require.NoError(t, f.SetRating(ctx, "a", 5, ""))

	require.NoError(t, f.ClearAll(ctx))

	assert.Empty(t, f.Meetings())
	assert.InDelta(t, stats.DefaultTargetHours, f.TargetHours(), 1e-9)
	_, ok := f.Rating("a")
	assert.False(t, ok)

	// Reload confirms the wipe hit storage.
	require.NoError(t, f.Load(ctx))
	assert.Empty(t, f.Meetings())
	assert.InDelta(t, stats.DefaultTargetHours, f.TargetHours(), 1e-9)
}

func TestFacade_RefreshPicksUpStoreWrites(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, credentials.KeyLength)
	st, err := store.Open(t.TempDir(), &credentials.StaticKeyProvider{Key: key})
	require.NoError(t, err)

	f := New(st, nil)
	ctx := context.Background()
	require.NoError(t, f.Load(ctx))

	// A write that bypasses the facade is invisible until Refresh.
	require.NoError(t, st.PutMeeting(ctx, stateMeeting("a", 1000, meeting.PriorityRegular)))
	assert.Empty(t, f.Meetings())

	require.NoError(t, f.Refresh(ctx))
	require.Len(t, f.Meetings(), 1)
	assert.Equal(t, "a", f.Meetings()[0].ID)
}

// failingStore passes through to a real store until failWrites is set,
// then rejects writes.
type failingStore struct {
	Store
	failWrites bool
}

func (s *failingStore) PutStatus(ctx context.Context, meetingID string, st meeting.Status) error {
	if s.failWrites {
		return store.ErrIO
	}
	return s.Store.PutStatus(ctx, meetingID, st)
}

func (s *failingStore) PutRating(ctx context.Context, meetingID string, r meeting.Rating) error {
	if s.failWrites {
		return store.ErrIO
	}
	return s.Store.PutRating(ctx, meetingID, r)
}

func TestFacade_FailedWriteLeavesMemoryUnchanged(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, credentials.KeyLength)
	st, err := store.Open(t.TempDir(), &credentials.StaticKeyProvider{Key: key})
	require.NoError(t, err)

	fs := &failingStore{Store: st}
	f := New(fs, nil)
	ctx := context.Background()
	require.NoError(t, f.Load(ctx))

	_, err = f.ToggleAction(ctx, "evt-1", ActionCancel)
	require.NoError(t, err)
	require.NoError(t, f.SetRating(ctx, "evt-1", 4, "useful"))

	fs.failWrites = true

	_, err = f.ToggleAction(ctx, "evt-1", ActionPrep)
	assert.ErrorIs(t, err, store.ErrIO)
	assert.True(t, f.Status("evt-1").NeedsCancel)
	assert.False(t, f.Status("evt-1").PrepRequired)

	assert.ErrorIs(t, f.SetRating(ctx, "evt-1", 1, ""), store.ErrIO)
	r, ok := f.Rating("evt-1")
	require.True(t, ok)
	assert.Equal(t, 4, r.Rating)
	assert.Equal(t, "useful", r.Comment)
}

func TestFacade_StatsUsesTargetHours(t *testing.T) {
	f := newTestFacade(t)
	ctx := context.Background()

	m := stateMeeting("a", 1000, meeting.PriorityRegular)
	m.Duration = 45
	require.NoError(t, f.ImportMeetings(ctx, []meeting.Meeting{m}))

	s := f.Stats()
	assert.InDelta(t, 45, s.TotalHours, 1e-9)
	assert.InDelta(t, 5, s.OverHours, 1e-9)
}
