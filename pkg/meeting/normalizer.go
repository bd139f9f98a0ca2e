package meeting

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrParse indicates a malformed import payload. Callers surface it to
// the user; nothing is partially imported.
var ErrParse = errors.New("parse error")

// durationTolerance bounds the accepted drift between a stored duration
// and the one derived from start/end times.
const durationTolerance = 1e-9

// eventTimeLayouts are the accepted timestamp layouts for import files,
// most specific first. Calendar exports are not consistent about
// seconds or offsets.
var eventTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// EventTime is a time.Time that unmarshals from the several timestamp
// layouts found in calendar export files. It marshals as RFC 3339.
type EventTime struct {
	time.Time
}

// UnmarshalJSON accepts any of eventTimeLayouts.
func (t *EventTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: timestamp must be a string: %v", ErrParse, err)
	}
	for _, layout := range eventTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("%w: unrecognized timestamp %q", ErrParse, s)
}

// MarshalJSON emits RFC 3339.
func (t EventTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// ParseImport decodes a JSON document containing raw calendar events,
// either as a bare array or wrapped in an export envelope with a
// "meetings" key. Malformed input yields ErrParse and no events.
func ParseImport(data []byte) ([]RawEvent, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Meetings []RawEvent `json:"meetings"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("%w: decoding export envelope: %v", ErrParse, err)
		}
		return envelope.Meetings, nil
	}

	var events []RawEvent
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&events); err != nil {
		return nil, fmt.Errorf("%w: decoding calendar export: %v", ErrParse, err)
	}
	return events, nil
}

// FilterImportable drops events that are not collaborative meetings:
// all-day entries, holiday/transparent entries, and events with at most
// one human participant.
func FilterImportable(events []RawEvent) []RawEvent {
	kept := make([]RawEvent, 0, len(events))
	for _, e := range events {
		if e.AllDay {
			continue
		}
		if e.Transparency == "transparent" || e.EventType == "holiday" {
			continue
		}
		if strings.Contains(strings.ToLower(e.Title), "holiday") {
			continue
		}
		if e.HumanParticipantCount() <= 1 {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// Normalize maps raw events 1:1 into Meeting records, preserving input
// order. Events without a rank get rank = position+1; annotation fields
// carried by a reimported export are preserved. Duplicate ids are not
// deduplicated here; the store overwrites by id downstream.
func Normalize(events []RawEvent) []Meeting {
	meetings := make([]Meeting, 0, len(events))
	for i, e := range events {
		m := Meeting{
			ID:           e.ID,
			Title:        e.Title,
			StartTime:    e.StartTime.Time,
			EndTime:      e.EndTime.Time,
			Duration:     e.Duration,
			Location:     e.Location,
			Description:  e.Description,
			Participants: e.Participants,
			DayOfWeek:    e.DayOfWeek,
			Rank:         e.Rank,
			Priority:     e.Priority.OrDefault(),
			IsImportant:  e.IsImportant,
			NeedsPrep:    e.NeedsPrep,
			Comments:     e.Comments,
			Icon:         e.Icon,
			PreworkIcon:  e.PreworkIcon,
			ShowActions:  true,
			Comment:      e.Comment,
		}
		if m.Rank == 0 {
			m.Rank = i + 1
		}
		if m.Comments == nil {
			m.Comments = []Comment{}
		}
		if m.Icon == "" {
			m.Icon = "calendar"
		}
		if m.PreworkIcon == "" {
			m.PreworkIcon = "file-text"
		}
		if e.ShowActions != nil {
			m.ShowActions = *e.ShowActions
		}
		if needsDerivedDuration(m) {
			m.Duration = m.EndTime.Sub(m.StartTime).Hours()
		}
		if m.DayOfWeek == "" && !m.StartTime.IsZero() {
			m.DayOfWeek = m.StartTime.Weekday().String()
		}
		meetings = append(meetings, m)
	}
	return meetings
}

// needsDerivedDuration reports whether the stored duration is absent or
// inconsistent with the start/end pair.
func needsDerivedDuration(m Meeting) bool {
	if m.StartTime.IsZero() || m.EndTime.IsZero() {
		return false
	}
	if m.Duration == 0 {
		return true
	}
	derived := m.EndTime.Sub(m.StartTime).Hours()
	diff := m.Duration - derived
	if diff < 0 {
		diff = -diff
	}
	return diff > durationTolerance
}
