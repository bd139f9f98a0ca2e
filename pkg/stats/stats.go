// Package stats derives meeting-load statistics from a meeting set and
// the weekly hour budget. All functions are pure.
package stats

import "github.com/otherjamesbrown/meetwise-cli/pkg/meeting"

// DefaultTargetHours is the weekly hour budget when unconfigured.
const DefaultTargetHours = 40.0

// Compute aggregates total/available/over hours for the given meetings
// against the target budget. Safe to call on any subset.
func Compute(meetings []meeting.Meeting, targetHours float64) meeting.Stats {
	var total float64
	for _, m := range meetings {
		total += m.Duration
	}

	s := meeting.Stats{
		TotalHours:  total,
		TargetHours: targetHours,
	}
	if total > targetHours {
		s.OverHours = total - targetHours
	} else {
		s.AvailableHours = targetHours - total
	}
	return s
}

// RunningTotals returns the prefix sums of meeting durations in display
// order, used to flag the first meeting that crosses the weekly budget.
func RunningTotals(meetings []meeting.Meeting) []float64 {
	totals := make([]float64, len(meetings))
	var acc float64
	for i, m := range meetings {
		acc += m.Duration
		totals[i] = acc
	}
	return totals
}
