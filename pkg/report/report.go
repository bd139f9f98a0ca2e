// Package report renders the meeting set for sharing: a plain-text
// bucket summary for email, a Gmail compose link carrying that summary,
// and a JSON export that reimports cleanly.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/otherjamesbrown/meetwise-cli/pkg/meeting"
	"github.com/otherjamesbrown/meetwise-cli/pkg/ranking"
)

// ErrNoRecipients rejects an email request with an empty recipient
// list.
var ErrNoRecipients = errors.New("no recipients")

// Summary bundles everything RenderSummary needs beyond the meetings
// themselves.
type Summary struct {
	Meetings []meeting.Meeting
	Status   map[string]meeting.Status
	Comments map[string][]meeting.Comment
	Ratings  map[string]meeting.Rating

	// GeneratedAt stamps the footer. Zero means time.Now.
	GeneratedAt time.Time
}

var bucketHeadings = map[meeting.PriorityLevel]string{
	meeting.PriorityHigh:    "HIGH PRIORITY",
	meeting.PriorityRegular: "REGULAR",
	meeting.PriorityLow:     "LOW PRIORITY",
}

// RenderSummary produces the plain-text meeting summary grouped by
// priority bucket. Each meeting line carries its rank, title, duration
// and location; pending actions, the rating if one was recorded, and
// comments follow indented beneath it. Empty buckets are skipped.
func RenderSummary(s Summary) string {
	generated := s.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	var b strings.Builder
	b.WriteString("Meeting Summary\n")
	b.WriteString("===============\n\n")

	buckets := ranking.Buckets(s.Meetings)
	for _, level := range meeting.Levels() {
		bucket := buckets[level]
		if len(bucket) == 0 {
			continue
		}
		b.WriteString(bucketHeadings[level])
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", len(bucketHeadings[level])))
		b.WriteString("\n")
		for i, m := range bucket {
			fmt.Fprintf(&b, "%d. %s (%s)", i+1, m.Title, formatDuration(m.Duration))
			if m.Location != "" {
				fmt.Fprintf(&b, " - %s", m.Location)
			}
			b.WriteString("\n")

			if flags := statusFlags(s.Status[m.ID]); len(flags) > 0 {
				fmt.Fprintf(&b, "   [%s]\n", strings.Join(flags, ", "))
			}
			if r, ok := s.Ratings[m.ID]; ok {
				if r.Comment != "" {
					fmt.Fprintf(&b, "   Rating: %s (%s)\n", starString(r.Rating), r.Comment)
				} else {
					fmt.Fprintf(&b, "   Rating: %s\n", starString(r.Rating))
				}
			}
			for _, c := range s.Comments[m.ID] {
				if c.Author != "" {
					fmt.Fprintf(&b, "   • %s (%s)\n", c.Text, c.Author)
				} else {
					fmt.Fprintf(&b, "   • %s\n", c.Text)
				}
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Generated on %s\n", generated.Format("Monday, January 2, 2006"))
	return b.String()
}

func statusFlags(st meeting.Status) []string {
	var flags []string
	if st.NeedsCancel {
		flags = append(flags, "Cancel Requested")
	}
	if st.NeedsShorten {
		flags = append(flags, "Shorten Requested")
	}
	if st.NeedsReschedule {
		flags = append(flags, "Reschedule Requested")
	}
	if st.PrepRequired {
		flags = append(flags, "Prep Required")
	}
	return flags
}

func starString(n int) string {
	var b strings.Builder
	for i := 0; i < 5; i++ {
		if i < n {
			b.WriteString("★")
		} else {
			b.WriteString("☆")
		}
	}
	return b.String()
}

func formatDuration(hours float64) string {
	if hours == float64(int(hours)) {
		return fmt.Sprintf("%dh", int(hours))
	}
	return fmt.Sprintf("%.1fh", hours)
}

// GmailComposeURL builds a Gmail compose link pre-filled with the given
// subject, body and recipients.
func GmailComposeURL(subject, body string, recipients []string) (string, error) {
	clean := make([]string, 0, len(recipients))
	for _, r := range recipients {
		r = strings.TrimSpace(r)
		if r != "" {
			clean = append(clean, r)
		}
	}
	if len(clean) == 0 {
		return "", ErrNoRecipients
	}

	q := url.Values{}
	q.Set("view", "cm")
	q.Set("fs", "1")
	q.Set("to", strings.Join(clean, ","))
	q.Set("su", subject)
	q.Set("body", body)
	return "https://mail.google.com/mail/?" + q.Encode(), nil
}

// exportEnvelope is the on-disk export format. Meetings use the same
// field names the importer reads, so an export reimports without loss.
type exportEnvelope struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Meetings   []meeting.Meeting `json:"meetings"`
}

// ExportJSON serializes the meeting set, with annotations folded onto
// each meeting, as indented JSON suitable for reimport.
func ExportJSON(meetings []meeting.Meeting, exportedAt time.Time) ([]byte, error) {
	if exportedAt.IsZero() {
		exportedAt = time.Now()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exportEnvelope{ExportedAt: exportedAt, Meetings: meetings}); err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return buf.Bytes(), nil
}
