package ranking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/meetwise-cli/pkg/meeting"
)

// memWriter records batches; optionally fails.
type memWriter struct {
	batches [][]meeting.Meeting
	err     error
}

func (w *memWriter) PutMeetings(ctx context.Context, meetings []meeting.Meeting) error {
	if w.err != nil {
		return w.err
	}
	batch := make([]meeting.Meeting, len(meetings))
	copy(batch, meetings)
	w.batches = append(w.batches, batch)
	return nil
}

func ranked(id string, rank int, level meeting.PriorityLevel) meeting.Meeting {
	return meeting.Meeting{ID: id, Rank: rank, Priority: level}
}

func regularSet() []meeting.Meeting {
	return []meeting.Meeting{
		ranked("a", 1000, meeting.PriorityRegular),
		ranked("b", 2000, meeting.PriorityRegular),
		ranked("c", 3000, meeting.PriorityRegular),
	}
}

func ids(meetings []meeting.Meeting) []string {
	out := make([]string, len(meetings))
	for i, m := range meetings {
		out[i] = m.ID
	}
	return out
}

func TestBuckets_SortedByRank(t *testing.T) {
	meetings := []meeting.Meeting{
		ranked("late", 2000, meeting.PriorityHigh),
		ranked("early", 1000, meeting.PriorityHigh),
		ranked("low", 1000, meeting.PriorityLow),
		ranked("unset", 500, ""),
	}

	buckets := Buckets(meetings)

	assert.Equal(t, []string{"early", "late"}, ids(buckets[meeting.PriorityHigh]))
	assert.Equal(t, []string{"unset"}, ids(buckets[meeting.PriorityRegular]))
	assert.Equal(t, []string{"low"}, ids(buckets[meeting.PriorityLow]))
}

func TestApply_SameBucketMove(t *testing.T) {
	w := &memWriter{}
	e := NewEngine(w)
	set := regularSet()

	// Drag the last meeting to the top.
	updated, err := e.Apply(context.Background(), set, Move{
		Source:      Position{Bucket: meeting.PriorityRegular, Index: 2},
		Destination: &Position{Bucket: meeting.PriorityRegular, Index: 0},
	})
	require.NoError(t, err)

	buckets := Buckets(updated)
	reg := buckets[meeting.PriorityRegular]
	assert.Equal(t, []string{"c", "a", "b"}, ids(reg))

	// Gapped renumbering: {1000, 2000, 3000}.
	assert.Equal(t, []int{1000, 2000, 3000}, []int{reg[0].Rank, reg[1].Rank, reg[2].Rank})

	// One batch persists the whole reordered bucket.
	require.Len(t, w.batches, 1)
	assert.Len(t, w.batches[0], 3)

	// Input set untouched.
	assert.Equal(t, 1000, set[0].Rank)
	assert.Equal(t, "a", set[0].ID)
}

func TestApply_CrossBucketMove(t *testing.T) {
	w := &memWriter{}
	e := NewEngine(w)
	set := append(regularSet(),
		ranked("h1", 1000, meeting.PriorityHigh),
		ranked("h2", 2000, meeting.PriorityHigh),
	)

	// Move "b" into the high bucket between h1 and h2.
	updated, err := e.Apply(context.Background(), set, Move{
		Source:      Position{Bucket: meeting.PriorityRegular, Index: 1},
		Destination: &Position{Bucket: meeting.PriorityHigh, Index: 1},
	})
	require.NoError(t, err)

	buckets := Buckets(updated)
	high := buckets[meeting.PriorityHigh]
	reg := buckets[meeting.PriorityRegular]

	assert.Equal(t, []string{"h1", "b", "h2"}, ids(high))
	assert.Equal(t, []string{"a", "c"}, ids(reg))
	assert.Equal(t, meeting.PriorityHigh, high[1].Priority)

	// Both buckets renumbered with the gap scheme.
	assert.Equal(t, []int{1000, 2000, 3000}, []int{high[0].Rank, high[1].Rank, high[2].Rank})
	assert.Equal(t, []int{1000, 2000}, []int{reg[0].Rank, reg[1].Rank})

	// Everything changed by the move lands in a single batch.
	require.Len(t, w.batches, 1)
	assert.Len(t, w.batches[0], 5)
}

func TestApply_CancelledMoveIsNoOp(t *testing.T) {
	w := &memWriter{}
	e := NewEngine(w)
	set := regularSet()

	updated, err := e.Apply(context.Background(), set, Move{
		Source: Position{Bucket: meeting.PriorityRegular, Index: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, set, updated)
	assert.Empty(t, w.batches)
}

func TestApply_InvalidIndexes(t *testing.T) {
	e := NewEngine(&memWriter{})
	set := regularSet()

	_, err := e.Apply(context.Background(), set, Move{
		Source:      Position{Bucket: meeting.PriorityRegular, Index: 7},
		Destination: &Position{Bucket: meeting.PriorityRegular, Index: 0},
	})
	assert.ErrorIs(t, err, ErrInvalidMove)

	_, err = e.Apply(context.Background(), set, Move{
		Source:      Position{Bucket: meeting.PriorityRegular, Index: 0},
		Destination: &Position{Bucket: meeting.PriorityRegular, Index: 9},
	})
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestApply_FailedWriteRevertsToOriginal(t *testing.T) {
	w := &memWriter{err: errors.New("disk full")}
	e := NewEngine(w)
	set := regularSet()

	updated, err := e.Apply(context.Background(), set, Move{
		Source:      Position{Bucket: meeting.PriorityRegular, Index: 2},
		Destination: &Position{Bucket: meeting.PriorityRegular, Index: 0},
	})
	require.Error(t, err)

	// The returned set is the pre-move state.
	assert.Equal(t, set, updated)
	assert.False(t, e.InFlight())
}

func TestApply_GapInvariantAfterManyMoves(t *testing.T) {
	w := &memWriter{}
	e := NewEngine(w)
	set := regularSet()

	moves := []Move{
		{Source: Position{meeting.PriorityRegular, 0}, Destination: &Position{meeting.PriorityRegular, 2}},
		{Source: Position{meeting.PriorityRegular, 1}, Destination: &Position{meeting.PriorityHigh, 0}},
		{Source: Position{meeting.PriorityHigh, 0}, Destination: &Position{meeting.PriorityLow, 0}},
	}

	var err error
	for _, mv := range moves {
		set, err = e.Apply(context.Background(), set, mv)
		require.NoError(t, err)
	}

	for level, bucket := range Buckets(set) {
		for i, m := range bucket {
			assert.Equal(t, (i+1)*RankStep, m.Rank,
				"bucket %s position %d must hold rank %d", level, i, (i+1)*RankStep)
		}
	}
}
