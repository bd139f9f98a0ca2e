// Package schedule computes the rolling date windows that drive the
// Plan, Review, and Rate views, and filters meeting sets into
// window-scoped views.
package schedule

import (
	"sort"
	"time"

	"github.com/otherjamesbrown/meetwise-cli/pkg/meeting"
)

const (
	// DefaultDaysAhead is the plan window length when unconfigured.
	DefaultDaysAhead = 7

	// LookbackDays is the review window length.
	LookbackDays = 90

	// RateDays is the rate window length.
	RateDays = 7
)

// Window is a closed time interval.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, inclusive at both
// bounds.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WindowSet holds the three rolling windows anchored to a single "now".
type WindowSet struct {
	Plan   Window `json:"plan"`
	Review Window `json:"review"`
	Rate   Window `json:"rate"`
}

// Ranges computes the plan/review/rate windows anchored to local
// midnight of now's day. Boundaries are recomputed on every call, never
// cached, so a call after a day rollover reflects the new day. daysAhead
// is the configured plan lookahead; values below 1 fall back to
// DefaultDaysAhead.
func Ranges(now time.Time, daysAhead int) WindowSet {
	if daysAhead < 1 {
		daysAhead = DefaultDaysAhead
	}

	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
	}

	return WindowSet{
		Plan: Window{
			Start: startOfToday,
			End:   endOfDay(startOfToday.AddDate(0, 0, daysAhead)),
		},
		Review: Window{
			Start: startOfToday.AddDate(0, 0, -LookbackDays),
			End:   endOfDay(startOfToday.AddDate(0, 0, -1)),
		},
		// Trailing week up to the call instant, both bounds inclusive.
		Rate: Window{
			Start: startOfToday.AddDate(0, 0, -RateDays),
			End:   now,
		},
	}
}

// FilterByRange returns a view of the meetings whose start time falls in
// the window, excluding personal holds (fewer than two human
// participants). The view is rank-sorted with insertion order breaking
// ties, then renumbered 1..N. The input set is never mutated; the
// renumbering applies only to the returned copies.
func FilterByRange(meetings []meeting.Meeting, w Window) []meeting.Meeting {
	view := make([]meeting.Meeting, 0, len(meetings))
	for _, m := range meetings {
		if !w.Contains(m.StartTime) {
			continue
		}
		if m.HumanParticipantCount() <= 1 {
			continue
		}
		view = append(view, m)
	}

	sort.SliceStable(view, func(i, j int) bool {
		return view[i].Rank < view[j].Rank
	})

	for i := range view {
		view[i].Rank = i + 1
	}
	return view
}
