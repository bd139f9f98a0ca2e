// Package state holds the in-memory mirror of the persistence store and
// exposes every mutation the views need. Mutations write through to the
// store first and update memory only on success; on a failed write the
// in-memory state is left unchanged and the error is logged and
// returned. Until the next full Load the two may diverge; there is no
// retry layer in a single-process client.
package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/otherjamesbrown/meetwise-cli/pkg/logging"
	"github.com/otherjamesbrown/meetwise-cli/pkg/meeting"
	"github.com/otherjamesbrown/meetwise-cli/pkg/ranking"
	"github.com/otherjamesbrown/meetwise-cli/pkg/schedule"
	"github.com/otherjamesbrown/meetwise-cli/pkg/stats"
	"github.com/otherjamesbrown/meetwise-cli/pkg/store"
)

// ErrValidation rejects explicit invalid input, e.g. a rating outside
// 1..5 or an unknown action name.
var ErrValidation = errors.New("validation error")

// Action names accepted by ToggleAction.
const (
	ActionCancel     = "cancel"
	ActionShorten    = "shorten"
	ActionReschedule = "reschedule"
	ActionPrep       = "prep"
)

// Store is the slice of the persistence store the facade depends on.
// *store.Store satisfies it.
type Store interface {
	AllMeetings(ctx context.Context) ([]meeting.Meeting, error)
	AllStatus(ctx context.Context) (map[string]meeting.Status, error)
	AllComments(ctx context.Context) (map[string][]meeting.Comment, error)
	AllRatings(ctx context.Context) (map[string]meeting.Rating, error)
	AllIcons(ctx context.Context) (map[string]string, error)
	AllPreworkIcons(ctx context.Context) (map[string]string, error)
	AllShowActions(ctx context.Context) (map[string]bool, error)

	PutMeetings(ctx context.Context, meetings []meeting.Meeting) error
	PutStatus(ctx context.Context, meetingID string, st meeting.Status) error
	PutComments(ctx context.Context, meetingID string, comments []meeting.Comment) error
	PutRating(ctx context.Context, meetingID string, r meeting.Rating) error
	PutIcon(ctx context.Context, meetingID, icon string) error
	PutPreworkIcon(ctx context.Context, meetingID, icon string) error
	PutShowActions(ctx context.Context, meetingID string, show bool) error

	GetSetting(ctx context.Context, key string, out any) error
	PutSetting(ctx context.Context, key string, value any) error

	ClearAll(ctx context.Context) error
}

// Facade mirrors the persistence store in memory and keeps derived
// stats in sync. A single logical writer is assumed; the ranking
// engine's in-flight guard keeps change-driven refreshes from racing a
// move's own writes.
type Facade struct {
	store  Store
	log    logging.Logger
	engine *ranking.Engine

	meetings     []meeting.Meeting
	status       map[string]meeting.Status
	comments     map[string][]meeting.Comment
	ratings      map[string]meeting.Rating
	icons        map[string]string
	preworkIcons map[string]string
	showActions  map[string]bool

	targetHours      float64
	weeklyPriorities string
	daysAhead        int
}

// New creates a Facade over the store. Call Load before use.
func New(st Store, log logging.Logger) *Facade {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Facade{
		store:  st,
		log:    log,
		engine: ranking.NewEngine(st),
	}
}

// Load reads every partition into memory. Missing settings fall back to
// their defaults (targetHours 40, daysAhead 7).
func (f *Facade) Load(ctx context.Context) error {
	meetings, err := f.store.AllMeetings(ctx)
	if err != nil {
		return f.fail("loading meetings", err)
	}
	status, err := f.store.AllStatus(ctx)
	if err != nil {
		return f.fail("loading status table", err)
	}
	comments, err := f.store.AllComments(ctx)
	if err != nil {
		return f.fail("loading comments table", err)
	}
	ratings, err := f.store.AllRatings(ctx)
	if err != nil {
		return f.fail("loading ratings table", err)
	}
	icons, err := f.store.AllIcons(ctx)
	if err != nil {
		return f.fail("loading icons table", err)
	}
	prework, err := f.store.AllPreworkIcons(ctx)
	if err != nil {
		return f.fail("loading prework icons table", err)
	}
	actions, err := f.store.AllShowActions(ctx)
	if err != nil {
		return f.fail("loading show-actions table", err)
	}

	f.meetings = sortByRank(meetings)
	f.status = status
	f.comments = comments
	f.ratings = ratings
	f.icons = icons
	f.preworkIcons = prework
	f.showActions = actions

	f.targetHours = stats.DefaultTargetHours
	if err := f.store.GetSetting(ctx, store.SettingTargetHours, &f.targetHours); err != nil && !errors.Is(err, store.ErrNotFound) {
		return f.fail("loading targetHours setting", err)
	}
	f.weeklyPriorities = ""
	if err := f.store.GetSetting(ctx, store.SettingWeeklyPriorities, &f.weeklyPriorities); err != nil && !errors.Is(err, store.ErrNotFound) {
		return f.fail("loading weeklyPriorities setting", err)
	}
	f.daysAhead = schedule.DefaultDaysAhead
	if err := f.store.GetSetting(ctx, store.SettingDaysAhead, &f.daysAhead); err != nil && !errors.Is(err, store.ErrNotFound) {
		return f.fail("loading daysAhead setting", err)
	}

	return nil
}

// Refresh reloads from storage unless a ranking move is mid-write, in
// which case the reload is skipped; the move returns the new state
// itself. One-shot commands load once and exit; Refresh pairs with the
// store's Changed channel for long-lived embedders.
func (f *Facade) Refresh(ctx context.Context) error {
	if f.engine.InFlight() {
		return nil
	}
	return f.Load(ctx)
}

func (f *Facade) fail(op string, err error) error {
	f.log.Error(op+" failed", logging.Err(err))
	return err
}

// Meetings returns the meeting set as a rank-sorted copy.
func (f *Facade) Meetings() []meeting.Meeting {
	out := make([]meeting.Meeting, len(f.meetings))
	copy(out, f.meetings)
	return out
}

// Meeting returns one meeting by id.
func (f *Facade) Meeting(id string) (meeting.Meeting, bool) {
	for _, m := range f.meetings {
		if m.ID == id {
			return m, true
		}
	}
	return meeting.Meeting{}, false
}

// Stats derives the load statistics for the current meeting set.
func (f *Facade) Stats() meeting.Stats {
	return stats.Compute(f.meetings, f.targetHours)
}

// StatsFor derives statistics for an arbitrary subset, e.g. one window.
func (f *Facade) StatsFor(meetings []meeting.Meeting) meeting.Stats {
	return stats.Compute(meetings, f.targetHours)
}

// Windows computes the plan/review/rate windows for now using the
// configured lookahead.
func (f *Facade) Windows(now time.Time) schedule.WindowSet {
	return schedule.Ranges(now, f.daysAhead)
}

// TargetHours returns the weekly hour budget.
func (f *Facade) TargetHours() float64 { return f.targetHours }

// DaysAhead returns the plan-window lookahead in days.
func (f *Facade) DaysAhead() int { return f.daysAhead }

// WeeklyPriorities returns the free-text weekly priorities.
func (f *Facade) WeeklyPriorities() string { return f.weeklyPriorities }

// Status returns the status side-table entry for a meeting (all-false
// default when unset).
func (f *Facade) Status(id string) meeting.Status {
	return f.status[id]
}

// AllStatus returns a copy of the status side table.
func (f *Facade) AllStatus() map[string]meeting.Status {
	out := make(map[string]meeting.Status, len(f.status))
	for k, v := range f.status {
		out[k] = v
	}
	return out
}

// Comments returns the comment list for a meeting.
func (f *Facade) Comments(id string) []meeting.Comment {
	out := make([]meeting.Comment, len(f.comments[id]))
	copy(out, f.comments[id])
	return out
}

// AllComments returns a copy of the comments side table.
func (f *Facade) AllComments() map[string][]meeting.Comment {
	out := make(map[string][]meeting.Comment, len(f.comments))
	for k, v := range f.comments {
		c := make([]meeting.Comment, len(v))
		copy(c, v)
		out[k] = c
	}
	return out
}

// Rating returns the rating for a meeting, if any.
func (f *Facade) Rating(id string) (meeting.Rating, bool) {
	r, ok := f.ratings[id]
	return r, ok
}

// AllRatings returns a copy of the ratings side table.
func (f *Facade) AllRatings() map[string]meeting.Rating {
	out := make(map[string]meeting.Rating, len(f.ratings))
	for k, v := range f.ratings {
		out[k] = v
	}
	return out
}

// ImportMeetings merges normalized meetings into the store: additive,
// overwrite-by-id, never deleting meetings absent from the import. A
// failed import keeps the previous set intact in memory.
func (f *Facade) ImportMeetings(ctx context.Context, incoming []meeting.Meeting) error {
	if err := f.store.PutMeetings(ctx, incoming); err != nil {
		return f.fail("importing meetings", err)
	}

	byID := make(map[string]int, len(f.meetings))
	for i, m := range f.meetings {
		byID[m.ID] = i
	}
	merged := f.Meetings()
	for _, m := range incoming {
		if i, ok := byID[m.ID]; ok {
			merged[i] = m
		} else {
			merged = append(merged, m)
		}
	}
	f.meetings = sortByRank(merged)

	f.log.Info("imported meetings",
		logging.F("count", len(incoming)),
		logging.F("total", len(f.meetings)))
	return nil
}

// Move applies one drag-and-drop reorder through the ranking engine.
// The engine persists all changed ranks (and the moved meeting's
// priority on a cross-bucket move) as one batch; on failure the
// in-memory set stays at its pre-move state.
func (f *Facade) Move(ctx context.Context, mv ranking.Move) error {
	updated, err := f.engine.Apply(ctx, f.meetings, mv)
	if err != nil {
		return f.fail("applying move", err)
	}
	f.meetings = sortByRank(updated)
	return nil
}

// Buckets returns the priority-bucket view of the given meetings.
func (f *Facade) Buckets(meetings []meeting.Meeting) map[meeting.PriorityLevel][]meeting.Meeting {
	return ranking.Buckets(meetings)
}

// SetStatus overwrites the status side-table entry for a meeting.
func (f *Facade) SetStatus(ctx context.Context, id string, st meeting.Status) error {
	if err := f.store.PutStatus(ctx, id, st); err != nil {
		return f.fail("writing status", err)
	}
	f.status[id] = st
	return nil
}

// ToggleAction flips one pending-action flag on a meeting's status.
func (f *Facade) ToggleAction(ctx context.Context, id, action string) (meeting.Status, error) {
	st := f.status[id]
	switch action {
	case ActionCancel:
		st.NeedsCancel = !st.NeedsCancel
	case ActionShorten:
		st.NeedsShorten = !st.NeedsShorten
	case ActionReschedule:
		st.NeedsReschedule = !st.NeedsReschedule
	case ActionPrep:
		st.PrepRequired = !st.PrepRequired
	default:
		return st, fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}
	if err := f.SetStatus(ctx, id, st); err != nil {
		return f.status[id], err
	}
	return st, nil
}

// AddComment appends a comment to a meeting.
func (f *Facade) AddComment(ctx context.Context, id, text, author string) (meeting.Comment, error) {
	if text == "" {
		return meeting.Comment{}, fmt.Errorf("%w: comment text is required", ErrValidation)
	}
	c := meeting.Comment{
		ID:        uuid.NewString(),
		Text:      text,
		Author:    author,
		Timestamp: time.Now(),
	}
	updated := append(f.Comments(id), c)
	if err := f.store.PutComments(ctx, id, updated); err != nil {
		return meeting.Comment{}, f.fail("writing comments", err)
	}
	f.comments[id] = updated
	return c, nil
}

// UpdateComment replaces the text of an existing comment.
func (f *Facade) UpdateComment(ctx context.Context, id, commentID, newText string) error {
	updated := f.Comments(id)
	found := false
	for i := range updated {
		if updated[i].ID == commentID {
			updated[i].Text = newText
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: no comment %s on meeting %s", ErrValidation, commentID, id)
	}
	if err := f.store.PutComments(ctx, id, updated); err != nil {
		return f.fail("writing comments", err)
	}
	f.comments[id] = updated
	return nil
}

// DeleteComment removes a comment from a meeting.
func (f *Facade) DeleteComment(ctx context.Context, id, commentID string) error {
	current := f.Comments(id)
	updated := make([]meeting.Comment, 0, len(current))
	for _, c := range current {
		if c.ID != commentID {
			updated = append(updated, c)
		}
	}
	if err := f.store.PutComments(ctx, id, updated); err != nil {
		return f.fail("writing comments", err)
	}
	f.comments[id] = updated
	return nil
}

// SetRating records a 1..5 star rating for a meeting, replacing any
// previous rating.
func (f *Facade) SetRating(ctx context.Context, id string, starCount int, comment string) error {
	if starCount < 1 || starCount > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5, got %d", ErrValidation, starCount)
	}
	r := meeting.Rating{Rating: starCount, Comment: comment, Timestamp: time.Now()}
	if err := f.store.PutRating(ctx, id, r); err != nil {
		return f.fail("writing rating", err)
	}
	f.ratings[id] = r
	return nil
}

// SetIcon sets the icon annotation for a meeting.
func (f *Facade) SetIcon(ctx context.Context, id, icon string) error {
	if err := f.store.PutIcon(ctx, id, icon); err != nil {
		return f.fail("writing icon", err)
	}
	f.icons[id] = icon
	return nil
}

// SetPreworkIcon sets the prework icon annotation for a meeting.
func (f *Facade) SetPreworkIcon(ctx context.Context, id, icon string) error {
	if err := f.store.PutPreworkIcon(ctx, id, icon); err != nil {
		return f.fail("writing prework icon", err)
	}
	f.preworkIcons[id] = icon
	return nil
}

// ToggleActions flips the show-actions affordance for a meeting.
func (f *Facade) ToggleActions(ctx context.Context, id string) error {
	next := !f.showActions[id]
	if err := f.store.PutShowActions(ctx, id, next); err != nil {
		return f.fail("writing show-actions", err)
	}
	f.showActions[id] = next
	return nil
}

// SetTargetHours updates the weekly hour budget and persists it
// immediately.
func (f *Facade) SetTargetHours(ctx context.Context, hours float64) error {
	if hours <= 0 {
		return fmt.Errorf("%w: target hours must be positive, got %v", ErrValidation, hours)
	}
	if err := f.store.PutSetting(ctx, store.SettingTargetHours, hours); err != nil {
		return f.fail("writing targetHours", err)
	}
	f.targetHours = hours
	return nil
}

// SetWeeklyPriorities updates the free-text weekly priorities.
func (f *Facade) SetWeeklyPriorities(ctx context.Context, text string) error {
	if err := f.store.PutSetting(ctx, store.SettingWeeklyPriorities, text); err != nil {
		return f.fail("writing weeklyPriorities", err)
	}
	f.weeklyPriorities = text
	return nil
}

// SetDaysAhead updates the plan-window lookahead.
func (f *Facade) SetDaysAhead(ctx context.Context, days int) error {
	if days < 1 {
		return fmt.Errorf("%w: days ahead must be at least 1, got %d", ErrValidation, days)
	}
	if err := f.store.PutSetting(ctx, store.SettingDaysAhead, days); err != nil {
		return f.fail("writing daysAhead", err)
	}
	f.daysAhead = days
	return nil
}

// ClearAll wipes every store partition and resets the in-memory state
// to defaults.
func (f *Facade) ClearAll(ctx context.Context) error {
	if err := f.store.ClearAll(ctx); err != nil {
		return f.fail("clearing store", err)
	}
	f.meetings = nil
	f.status = map[string]meeting.Status{}
	f.comments = map[string][]meeting.Comment{}
	f.ratings = map[string]meeting.Rating{}
	f.icons = map[string]string{}
	f.preworkIcons = map[string]string{}
	f.showActions = map[string]bool{}
	f.targetHours = stats.DefaultTargetHours
	f.weeklyPriorities = ""
	f.daysAhead = schedule.DefaultDaysAhead
	return nil
}

func sortByRank(meetings []meeting.Meeting) []meeting.Meeting {
	sort.SliceStable(meetings, func(i, j int) bool {
		return meetings[i].Rank < meetings[j].Rank
	})
	return meetings
}
