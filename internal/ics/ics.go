// Package ics renders event posts as iCalendar files for the "add to
// calendar" export.
package ics

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/campuslink/backend/internal/models"
)

const timeLayout = "20060102T150405Z"

// Render produces a VCALENDAR document for one event post. The event is
// given a default two hour duration; the feed does not track end times.
func Render(post *models.Post) (string, error) {
	if !post.IsEvent || post.EventAt == nil {
		return "", fmt.Errorf("post %s is not a scheduled event", post.ID)
	}

	start := post.EventAt.UTC()
	end := start.Add(2 * time.Hour)

	summary := post.Content
	if i := strings.IndexByte(summary, '\n'); i >= 0 {
		summary = summary[:i]
	}

	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:-//campuslink//feed//EN")
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "METHOD:PUBLISH")
	writeLine(&b, "BEGIN:VEVENT")
	writeLine(&b, "UID:"+post.ID+"@campuslink")
	writeLine(&b, "DTSTAMP:"+time.Now().UTC().Format(timeLayout))
	writeLine(&b, "DTSTART:"+start.Format(timeLayout))
	writeLine(&b, "DTEND:"+end.Format(timeLayout))
	writeLine(&b, "SUMMARY:"+escape(summary))
	if post.Content != summary {
		writeLine(&b, "DESCRIPTION:"+escape(post.Content))
	}
	if post.LocationName != "" {
		writeLine(&b, "LOCATION:"+escape(post.LocationName))
	}
	if post.LinkURL != "" {
		writeLine(&b, "URL:"+post.LinkURL)
	}
	writeLine(&b, "END:VEVENT")
	writeLine(&b, "END:VCALENDAR")
	return b.String(), nil
}

// Filename returns a safe download filename for the event.
func Filename(post *models.Post) string {
	return "event-" + post.ID + ".ics"
}

// writeLine appends a content line, folding at 75 octets per RFC 5545.
// The fold backs off to a rune boundary so multi-byte characters are
// never split across lines.
func writeLine(b *strings.Builder, line string) {
	const maxLen = 75
	for len(line) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

// escape encodes text per RFC 5545 section 3.3.11.
func escape(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
	)
	return r.Replace(s)
}
