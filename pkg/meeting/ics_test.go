package meeting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:evt-ics-1\r\n" +
	"SUMMARY:Design review\r\n" +
	"LOCATION:Room 4A\r\n" +
	"DTSTART:20240115T090000Z\r\n" +
	"DTEND:20240115T103000Z\r\n" +
	"ATTENDEE:mailto:alice@example.com\r\n" +
	"ATTENDEE:mailto:bob@example.com\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:evt-ics-2\r\n" +
	"SUMMARY:Out of office\r\n" +
	"TRANSP:TRANSPARENT\r\n" +
	"DTSTART:20240116T090000Z\r\n" +
	"DTEND:20240116T100000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestDecodeICS(t *testing.T) {
	events, err := DecodeICS(strings.NewReader(sampleICS))
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "evt-ics-1", first.ID)
	assert.Equal(t, "Design review", first.Title)
	assert.Equal(t, "Room 4A", first.Location)
	assert.InDelta(t, 1.5, first.Duration, 1e-9)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, first.Participants)
	assert.False(t, first.AllDay)

	assert.Equal(t, "transparent", events[1].Transparency)
}

func TestDecodeICS_Malformed(t *testing.T) {
	_, err := DecodeICS(strings.NewReader("not an icalendar stream"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}
