package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_EmptyBody(t *testing.T) {
	got := Extract("")

	assert.Empty(t, got.Title)
	assert.Empty(t, got.JoinURL)
	assert.NotNil(t, got.PreReadLinks)
	assert.NotNil(t, got.Attendees)
	assert.NotNil(t, got.PhoneNumbers)
}

func TestExtract_ZoomSection(t *testing.T) {
	// The id and passcode lines sit in the same section as the join
	// link; splitting happens only on blank lines.
	body := "Weekly Sync<br><br>" +
		"Join Zoom Meeting<br>" +
		"https://zoom.us/j/5551234567<br>" +
		"Meeting ID: 555 123 4567<br>" +
		"Passcode: hunter2"

	got := Extract(body)

	assert.Equal(t, "Weekly Sync", got.Title)
	assert.Equal(t, "https://zoom.us/j/5551234567", got.JoinURL)
	assert.Equal(t, "555", got.MeetingID)
	assert.Equal(t, "hunter2", got.Passcode)
}

func TestExtract_PreReadLinksSkipZoom(t *testing.T) {
	body := `<a href="https://docs.example.com/brief">Project brief</a><br>` +
		`<a href="https://zoom.us/j/123">Join Zoom</a>`

	got := Extract(body)

	require.Len(t, got.PreReadLinks, 1)
	assert.Equal(t, "https://docs.example.com/brief", got.PreReadLinks[0].URL)
	assert.Equal(t, "Project brief", got.PreReadLinks[0].Title)
}

func TestExtract_AnchorsSurviveTagStripping(t *testing.T) {
	body := `<div><p>Notes</p><a href="https://docs.example.com/x">Doc</a></div>`

	got := Extract(body)

	require.Len(t, got.PreReadLinks, 1)
	assert.Equal(t, "https://docs.example.com/x", got.PreReadLinks[0].URL)
	// Div and p tags are gone, the anchor markup is kept in the cleaned body.
	assert.NotContains(t, got.RawContent, "<div>")
	assert.NotContains(t, got.RawContent, "<p>")
	assert.Contains(t, got.RawContent, `href="https://docs.example.com/x"`)
}

func TestExtract_Agenda(t *testing.T) {
	body := "Planning<br><br>Agenda: review roadmap<br>assign owners"

	got := Extract(body)

	assert.Equal(t, "review roadmap\nassign owners", got.Agenda)
}

func TestExtract_AttendeesDropDialInArtifacts(t *testing.T) {
	body := "Sync<br><br>" +
		"Attendees: alice@example.com, bob@example.com<br>" +
		"Join by SIP sip@example.com, 5551234567@zoomcrc.com"

	got := Extract(body)

	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, got.Attendees)
}

func TestExtract_Deterministic(t *testing.T) {
	body := `Kickoff<br><br><a href="https://docs.example.com/plan">Plan</a><br>Agenda: intros`

	first := Extract(body)
	second := Extract(body)

	assert.Equal(t, first, second)
}

func TestExtract_IdempotentOnCleanedBody(t *testing.T) {
	// Re-extracting the cleaned body yields the same record: cleaning is
	// a fixed point, so nothing is lost or reinterpreted on a second
	// pass.
	bodies := map[string]string{
		"zoom section": "Weekly Sync<br><br>" +
			"Join Zoom Meeting<br>" +
			"https://zoom.us/j/5551234567<br>" +
			"Meeting ID: 555 123 4567<br>" +
			"Passcode: hunter2",
		"nested tags with anchor": `<div><p>Notes</p><a href="https://docs.example.com/x">Doc</a></div>`,
		"agenda and links":        `Kickoff<br><br><a href="https://docs.example.com/plan">Plan</a><br>Agenda: intros`,
		"attendees": "Sync<br><br>" +
			"Attendees: alice@example.com, bob@example.com<br>" +
			"Join by SIP sip@example.com, 5551234567@zoomcrc.com",
	}

	for name, body := range bodies {
		once := Extract(body)
		twice := Extract(once.RawContent)
		assert.Equal(t, once, twice, "body %q", name)
	}
}
