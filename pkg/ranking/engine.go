// Package ranking maintains meeting rank and priority buckets. It
// implements the reorder state machine triggered by drag-and-drop moves,
// within and across buckets, with a gapped renumbering scheme that
// leaves room for future manual insertions.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/otherjamesbrown/meetwise-cli/pkg/meeting"
)

// RankStep is the gap between consecutive ranks after a renumber: a
// bucket of N items ends up with ranks {1000, 2000, ..., N*1000}.
const RankStep = 1000

// ErrInvalidMove rejects a move with an out-of-range source or
// destination. A cancelled move (nil destination) is a no-op, not an
// error.
var ErrInvalidMove = errors.New("invalid move")

// Position addresses a slot inside a priority bucket.
type Position struct {
	Bucket meeting.PriorityLevel
	Index  int
}

// Move describes one drag-and-drop operation. A nil Destination means
// the drop was cancelled.
type Move struct {
	Source      Position
	Destination *Position
}

// Writer persists the meetings changed by a move as one batch. A failed
// batch is treated as not applied: the engine reverts its in-memory
// result and reports the error.
type Writer interface {
	PutMeetings(ctx context.Context, meetings []meeting.Meeting) error
}

// Buckets splits meetings into the three priority buckets, each sorted
// by rank with insertion order breaking ties.
func Buckets(meetings []meeting.Meeting) map[meeting.PriorityLevel][]meeting.Meeting {
	buckets := make(map[meeting.PriorityLevel][]meeting.Meeting, 3)
	for _, level := range meeting.Levels() {
		buckets[level] = []meeting.Meeting{}
	}
	for _, m := range meetings {
		level := m.Priority.OrDefault()
		buckets[level] = append(buckets[level], m)
	}
	for level := range buckets {
		b := buckets[level]
		sort.SliceStable(b, func(i, j int) bool { return b[i].Rank < b[j].Rank })
	}
	return buckets
}

// Engine applies moves against a meeting set and persists the outcome.
type Engine struct {
	writer Writer

	// inFlight marks a move whose writes are still being applied, so
	// the facade's change subscription does not reload mid-move. This
	// is a single-writer assumption for a single-process client, not a
	// lock.
	inFlight atomic.Bool
}

// NewEngine creates an Engine persisting through w.
func NewEngine(w Writer) *Engine {
	return &Engine{writer: w}
}

// InFlight reports whether a move is currently being applied.
func (e *Engine) InFlight() bool {
	return e.inFlight.Load()
}

// Apply executes one move against the full meeting set and returns the
// updated set. The input is never mutated. A cancelled move returns the
// input unchanged. All rank and priority changes from a single move are
// persisted as one batch before the new set is returned; on write
// failure the original set is returned with the error.
func (e *Engine) Apply(ctx context.Context, meetings []meeting.Meeting, mv Move) ([]meeting.Meeting, error) {
	if mv.Destination == nil {
		return meetings, nil
	}

	e.inFlight.Store(true)
	defer e.inFlight.Store(false)

	buckets := Buckets(meetings)

	src := buckets[mv.Source.Bucket.OrDefault()]
	if mv.Source.Index < 0 || mv.Source.Index >= len(src) {
		return meetings, fmt.Errorf("%w: source index %d out of range for %q bucket of %d",
			ErrInvalidMove, mv.Source.Index, mv.Source.Bucket, len(src))
	}

	srcLevel := mv.Source.Bucket.OrDefault()
	dstLevel := mv.Destination.Bucket.OrDefault()

	changed := make([]meeting.Meeting, 0, len(src)+8)

	if srcLevel == dstLevel {
		reordered, err := splice(src, mv.Source.Index, mv.Destination.Index)
		if err != nil {
			return meetings, err
		}
		renumber(reordered)
		changed = append(changed, reordered...)
	} else {
		dst := buckets[dstLevel]
		if mv.Destination.Index < 0 || mv.Destination.Index > len(dst) {
			return meetings, fmt.Errorf("%w: destination index %d out of range for %q bucket of %d",
				ErrInvalidMove, mv.Destination.Index, dstLevel, len(dst))
		}

		moved := src[mv.Source.Index]
		moved.Priority = dstLevel

		remaining := make([]meeting.Meeting, 0, len(src)-1)
		remaining = append(remaining, src[:mv.Source.Index]...)
		remaining = append(remaining, src[mv.Source.Index+1:]...)

		inserted := make([]meeting.Meeting, 0, len(dst)+1)
		inserted = append(inserted, dst[:mv.Destination.Index]...)
		inserted = append(inserted, moved)
		inserted = append(inserted, dst[mv.Destination.Index:]...)

		renumber(remaining)
		renumber(inserted)
		changed = append(changed, remaining...)
		changed = append(changed, inserted...)
	}

	if err := e.writer.PutMeetings(ctx, changed); err != nil {
		return meetings, fmt.Errorf("persisting move: %w", err)
	}

	updated := make(map[string]meeting.Meeting, len(changed))
	for _, m := range changed {
		updated[m.ID] = m
	}
	result := make([]meeting.Meeting, 0, len(meetings))
	for _, m := range meetings {
		if u, ok := updated[m.ID]; ok {
			result = append(result, u)
		} else {
			result = append(result, m)
		}
	}
	return result, nil
}

// splice removes the item at from and reinserts it at to.
func splice(bucket []meeting.Meeting, from, to int) ([]meeting.Meeting, error) {
	if to < 0 || to >= len(bucket) {
		return nil, fmt.Errorf("%w: destination index %d out of range for bucket of %d",
			ErrInvalidMove, to, len(bucket))
	}
	out := make([]meeting.Meeting, 0, len(bucket))
	out = append(out, bucket[:from]...)
	out = append(out, bucket[from+1:]...)

	tail := append([]meeting.Meeting{bucket[from]}, out[to:]...)
	return append(out[:to:to], tail...), nil
}

// renumber assigns gapped ranks (position+1)*RankStep in display order.
func renumber(bucket []meeting.Meeting) {
	for i := range bucket {
		bucket[i].Rank = (i + 1) * RankStep
	}
}
