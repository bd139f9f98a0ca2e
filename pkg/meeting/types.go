// Package meeting defines the core meeting domain model and the
// normalization path from raw calendar events into Meeting records.
package meeting

import (
	"strings"
	"time"
)

// resourceCalendarMarker identifies non-human "room" attendees on
// calendar invites.
const resourceCalendarMarker = "resource.calendar.google.com"

// PriorityLevel is the coarse priority bucket a meeting belongs to,
// orthogonal to its fine-grained rank.
type PriorityLevel string

const (
	PriorityHigh    PriorityLevel = "high"
	PriorityRegular PriorityLevel = "regular"
	PriorityLow     PriorityLevel = "low"
)

// IsValid reports whether p is one of the three enumerated levels.
func (p PriorityLevel) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityRegular, PriorityLow:
		return true
	default:
		return false
	}
}

// OrDefault maps the zero value to PriorityRegular.
func (p PriorityLevel) OrDefault() PriorityLevel {
	if !p.IsValid() {
		return PriorityRegular
	}
	return p
}

// Levels returns the bucket levels in display order.
func Levels() []PriorityLevel {
	return []PriorityLevel{PriorityHigh, PriorityRegular, PriorityLow}
}

// Comment is a user note attached to a meeting.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// Status tracks the pending user actions for a meeting. It lives in a
// side table keyed by meeting id, not on the Meeting record itself.
type Status struct {
	NeedsCancel     bool `json:"needsCancel"`
	NeedsShorten    bool `json:"needsShorten"`
	NeedsReschedule bool `json:"needsReschedule"`
	PrepRequired    bool `json:"prepRequired"`
}

// Any reports whether at least one action is pending.
func (s Status) Any() bool {
	return s.NeedsCancel || s.NeedsShorten || s.NeedsReschedule || s.PrepRequired
}

// Rating is the user's retrospective score for a meeting, 1..5 stars.
// At most one per meeting; the latest write wins.
type Rating struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats summarizes meeting load against the weekly hour budget.
type Stats struct {
	TotalHours     float64 `json:"totalHours"`
	TargetHours    float64 `json:"targetHours"`
	AvailableHours float64 `json:"availableHours"`
	OverHours      float64 `json:"overHours"`
}

// Meeting is a calendar event enriched with user annotations.
type Meeting struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      time.Time     `json:"endTime"`
	Duration     float64       `json:"duration"` // hours, (EndTime-StartTime)
	Location     string        `json:"location"`
	Description  string        `json:"description"`
	Participants []string      `json:"participants"`
	Rank         int           `json:"rank"`
	Priority     PriorityLevel `json:"priorityLevel"`
	IsImportant  bool          `json:"isImportant"`
	NeedsPrep    bool          `json:"needsPrep"`
	Comments     []Comment     `json:"comments"`
	DayOfWeek    string        `json:"dayOfWeek"`

	// Cosmetic annotations carried for UI affordances.
	Icon        string `json:"icon,omitempty"`
	PreworkIcon string `json:"preworkIcon,omitempty"`
	ShowActions bool   `json:"showActions"`
	Comment     string `json:"comment,omitempty"`
}

// HumanParticipants returns the participants excluding resource-calendar
// (room) entries.
func (m *Meeting) HumanParticipants() []string {
	humans := make([]string, 0, len(m.Participants))
	for _, p := range m.Participants {
		if strings.Contains(p, resourceCalendarMarker) {
			continue
		}
		humans = append(humans, p)
	}
	return humans
}

// HumanParticipantCount counts participants excluding resource calendars.
func (m *Meeting) HumanParticipantCount() int {
	return len(m.HumanParticipants())
}

// RawEvent is the inbound calendar-event shape, from a JSON export file,
// an ICS feed, or a previously exported meeting set. Annotation fields
// are optional and survive export/reimport round trips.
type RawEvent struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	StartTime    EventTime `json:"startTime"`
	EndTime      EventTime `json:"endTime"`
	Duration     float64   `json:"duration"`
	Location     string    `json:"location"`
	Description  string    `json:"description"`
	Participants []string  `json:"participants"`
	DayOfWeek    string    `json:"dayOfWeek"`

	// Provider flags used by the import filter.
	AllDay       bool   `json:"allDay,omitempty"`
	Transparency string `json:"transparency,omitempty"`
	EventType    string `json:"eventType,omitempty"`

	// Annotation fields present when reimporting an export.
	Rank        int           `json:"rank,omitempty"`
	Priority    PriorityLevel `json:"priorityLevel,omitempty"`
	IsImportant bool          `json:"isImportant,omitempty"`
	NeedsPrep   bool          `json:"needsPrep,omitempty"`
	Comments    []Comment     `json:"comments,omitempty"`
	Icon        string        `json:"icon,omitempty"`
	PreworkIcon string        `json:"preworkIcon,omitempty"`
	ShowActions *bool         `json:"showActions,omitempty"`
	Comment     string        `json:"comment,omitempty"`
}

// HumanParticipantCount counts participants excluding resource calendars.
func (e *RawEvent) HumanParticipantCount() int {
	n := 0
	for _, p := range e.Participants {
		if !strings.Contains(p, resourceCalendarMarker) {
			n++
		}
	}
	return n
}
