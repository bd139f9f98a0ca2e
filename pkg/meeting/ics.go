package meeting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// icsTimeLayouts are fallback layouts for DTSTART/DTEND values whose
// parameters go-ical cannot resolve.
var icsTimeLayouts = []string{
	"20060102T150405Z",
	"20060102T150405",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"20060102",
}

// DecodeICS parses an iCalendar stream into raw events. VEVENT
// components map 1:1 to RawEvents in document order; other components
// are skipped. An undecodable stream yields ErrParse.
func DecodeICS(r io.Reader) ([]RawEvent, error) {
	dec := ical.NewDecoder(r)
	var events []RawEvent

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: decoding icalendar: %v", ErrParse, err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			events = append(events, eventFromComponent(comp))
		}
	}

	return events, nil
}

// eventFromComponent extracts a RawEvent from a VEVENT component.
func eventFromComponent(comp *ical.Component) RawEvent {
	e := RawEvent{}

	if p := comp.Props.Get(ical.PropUID); p != nil {
		e.ID = p.Value
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if p := comp.Props.Get(ical.PropSummary); p != nil {
		e.Title = p.Value
	}
	if p := comp.Props.Get(ical.PropDescription); p != nil {
		e.Description = p.Value
	}
	if p := comp.Props.Get(ical.PropLocation); p != nil {
		e.Location = p.Value
	}
	if p := comp.Props.Get(ical.PropTransparency); p != nil {
		e.Transparency = strings.ToLower(p.Value)
	}

	if p := comp.Props.Get(ical.PropDateTimeStart); p != nil {
		if t, err := icsDateTime(p); err == nil {
			e.StartTime = EventTime{t}
			// A date-only DTSTART marks an all-day entry.
			e.AllDay = len(p.Value) == len("20060102")
		}
	}
	if p := comp.Props.Get(ical.PropDateTimeEnd); p != nil {
		if t, err := icsDateTime(p); err == nil {
			e.EndTime = EventTime{t}
		}
	}

	if !e.StartTime.IsZero() && !e.EndTime.IsZero() {
		e.Duration = e.EndTime.Sub(e.StartTime.Time).Hours()
		e.DayOfWeek = e.StartTime.Weekday().String()
	}

	for _, p := range comp.Props.Values(ical.PropAttendee) {
		addr := strings.TrimPrefix(strings.TrimPrefix(p.Value, "mailto:"), "MAILTO:")
		if addr != "" {
			e.Participants = append(e.Participants, addr)
		}
	}

	return e
}

// icsDateTime parses a datetime property, falling back to raw-value
// layouts when the property parameters are unusable.
func icsDateTime(p *ical.Prop) (time.Time, error) {
	if t, err := p.DateTime(time.Local); err == nil {
		return t, nil
	}
	for _, layout := range icsTimeLayouts {
		if t, err := time.ParseInLocation(layout, p.Value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable datetime value %q", p.Value)
}
