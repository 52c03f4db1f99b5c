package ics

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/campuslink/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventPost() *models.Post {
	at := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	return &models.Post{
		ID:           "ev-1",
		Content:      "Spring BBQ\nBring your own drinks; grill provided.",
		IsEvent:      true,
		EventAt:      &at,
		LocationName: "Main Quad, Building B",
		LinkURL:      "https://example.org/bbq",
	}
}

func TestRenderEvent(t *testing.T) {
	out, err := Render(eventPost())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))
	assert.Contains(t, out, "UID:ev-1@campuslink\r\n")
	assert.Contains(t, out, "DTSTART:20260314T183000Z\r\n")
	assert.Contains(t, out, "DTEND:20260314T203000Z\r\n")
	assert.Contains(t, out, "SUMMARY:Spring BBQ\r\n")
	assert.Contains(t, out, "URL:https://example.org/bbq\r\n")
}

func TestRenderEscapesSpecialCharacters(t *testing.T) {
	out, err := Render(eventPost())
	require.NoError(t, err)

	assert.Contains(t, out, "LOCATION:Main Quad\\, Building B\r\n")
	assert.Contains(t, out, "DESCRIPTION:Spring BBQ\\nBring your own drinks\\; grill provided.")
}

func TestRenderRejectsNonEvent(t *testing.T) {
	p := eventPost()
	p.IsEvent = false
	_, err := Render(p)
	assert.Error(t, err)

	p = eventPost()
	p.EventAt = nil
	_, err = Render(p)
	assert.Error(t, err)
}

func TestRenderFoldsLongLines(t *testing.T) {
	p := eventPost()
	p.Content = strings.Repeat("long event description ", 20)
	out, err := Render(p)
	require.NoError(t, err)

	for _, line := range strings.Split(out, "\r\n") {
		assert.LessOrEqual(t, len(line), 76, "line exceeds fold width: %q", line)
	}
}

func TestRenderFoldKeepsRunesIntact(t *testing.T) {
	p := eventPost()
	p.Content = strings.Repeat("🎉", 60)
	out, err := Render(p)
	require.NoError(t, err)

	for _, line := range strings.Split(out, "\r\n") {
		assert.True(t, utf8.ValidString(line), "fold split a rune: %q", line)
	}
	unfolded := strings.ReplaceAll(out, "\r\n ", "")
	assert.Contains(t, unfolded, p.Content)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "event-ev-1.ics", Filename(eventPost()))
}
