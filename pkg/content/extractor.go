// Package content parses free-text/HTML meeting bodies into structured
// fields: join link, dial-in details, pre-read links, attendees, agenda.
// Extraction is pure and deterministic; malformed markup degrades to
// best-effort stripping and never returns an error.
package content

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Link is a pre-read material reference extracted from an anchor tag.
type Link struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Extracted is the structured view of a meeting body.
type Extracted struct {
	Title        string   `json:"title"`
	JoinURL      string   `json:"joinUrl"`
	MeetingID    string   `json:"meetingId"`
	Passcode     string   `json:"passcode"`
	PhoneNumbers []string `json:"phoneNumbers"`
	PreReadLinks []Link   `json:"preReadLinks"`
	Attendees    []string `json:"attendees"`
	Agenda       string   `json:"agenda"`
	RawContent   string   `json:"rawContent"`
}

var (
	anchorRe      = regexp.MustCompile(`<a\s+(?:[^>]*?\s+)?href="([^"]*)"[^>]*>(.*?)</a>`)
	anchorTokenRe = regexp.MustCompile(`\{\{ANCHOR(\d+)\}\}`)
	lineBreakRe   = regexp.MustCompile(`<br\s*/?>`)
	tagRe         = regexp.MustCompile(`<[^>]*>`)
	hrefRe        = regexp.MustCompile(`href="([^"]+)"`)
	labelRe       = regexp.MustCompile(`>([^<]+)<`)
	urlRe         = regexp.MustCompile(`https://\S+`)
	meetingIDRe   = regexp.MustCompile(`Meeting ID: (\S+)`)
	passcodeRe    = regexp.MustCompile(`Passcode: (\S+)`)
)

// preserveAnchors replaces each well-formed anchor tag with a positional
// placeholder token so tag stripping cannot destroy it, and returns the
// original markup indexed by position.
func preserveAnchors(body string) (string, []string) {
	var anchors []string
	processed := anchorRe.ReplaceAllStringFunc(body, func(match string) string {
		anchors = append(anchors, match)
		return fmt.Sprintf("{{ANCHOR%d}}", len(anchors)-1)
	})
	return processed, anchors
}

// cleanMarkup strips markup, keeping line breaks as newlines. Unbalanced
// anchors that escaped preservation are reduced to their label text.
func cleanMarkup(body string) string {
	body = lineBreakRe.ReplaceAllString(body, "\n")
	body = anchorRe.ReplaceAllString(body, "$2")
	body = tagRe.ReplaceAllString(body, "")
	return strings.TrimSpace(body)
}

// restoreAnchors puts the original anchor markup back into its
// placeholder positions.
func restoreAnchors(body string, anchors []string) string {
	return anchorTokenRe.ReplaceAllStringFunc(body, func(token string) string {
		idx, err := strconv.Atoi(anchorTokenRe.FindStringSubmatch(token)[1])
		if err != nil || idx >= len(anchors) {
			return token
		}
		return anchors[idx]
	})
}

// sections splits cleaned text on blank-line boundaries, dropping empty
// sections.
func sections(body string) []string {
	parts := strings.Split(body, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// Extract parses a raw meeting body. Empty input yields a zero-value
// record with the slice fields allocated.
func Extract(body string) Extracted {
	result := Extracted{
		PhoneNumbers: []string{},
		PreReadLinks: []Link{},
		Attendees:    []string{},
	}

	processed, anchors := preserveAnchors(body)
	cleaned := cleanMarkup(processed)
	final := restoreAnchors(cleaned, anchors)
	result.RawContent = final

	parts := sections(final)
	if len(parts) > 0 {
		result.Title = parts[0]
	}

	for _, anchor := range anchors {
		urlMatch := hrefRe.FindStringSubmatch(anchor)
		labelMatch := labelRe.FindStringSubmatch(anchor)
		if urlMatch == nil || labelMatch == nil {
			continue
		}
		// Zoom URLs are join links, not pre-read material.
		if strings.Contains(strings.ToLower(urlMatch[1]), "zoom") {
			continue
		}
		result.PreReadLinks = append(result.PreReadLinks, Link{
			URL:   urlMatch[1],
			Title: labelMatch[1],
		})
	}

	for _, section := range parts {
		lower := strings.ToLower(section)

		if strings.Contains(section, "Zoom Meeting") && result.JoinURL == "" {
			result.JoinURL = urlRe.FindString(section)
			if m := meetingIDRe.FindStringSubmatch(section); m != nil {
				result.MeetingID = m[1]
			}
			if m := passcodeRe.FindStringSubmatch(section); m != nil {
				result.Passcode = m[1]
			}
		}

		if strings.HasPrefix(lower, "agenda:") && result.Agenda == "" {
			result.Agenda = strings.TrimSpace(section[len("agenda:"):])
		}

		if len(result.Attendees) == 0 &&
			(strings.Contains(lower, "attendees:") || strings.Contains(section, "@")) {
			result.Attendees = extractAttendees(section)
		}
	}

	return result
}

// extractAttendees splits an attendee section on comma/newline and keeps
// real addresses, dropping SIP dial-in artifacts and conferencing-room
// relay entries.
func extractAttendees(section string) []string {
	fields := strings.FieldsFunc(section, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	attendees := make([]string, 0, len(fields))
	for _, f := range fields {
		addr := strings.TrimSpace(f)
		if label := strings.Index(strings.ToLower(addr), "attendees:"); label >= 0 {
			addr = strings.TrimSpace(addr[label+len("attendees:"):])
		}
		if !strings.Contains(addr, "@") {
			continue
		}
		if strings.Contains(strings.ToLower(addr), "join by sip") {
			continue
		}
		if strings.Contains(addr, "@zoomcrc.com") {
			continue
		}
		attendees = append(attendees, addr)
	}
	return attendees
}
