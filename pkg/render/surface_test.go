package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycode/tuichat/pkg/cell"
	"github.com/relaycode/tuichat/pkg/history"
)

func TestSurface_InsertHistoryLines_UsesScrollRegionAlgorithm(t *testing.T) {
	var buf bytes.Buffer
	s := NewSurface(&buf, ModeStandard, 80, 24, 3, Theme{})

	c := cell.Cell{Lines: []cell.Line{{Spans: []history.InlineSpan{{Text: "hello"}}}}}
	s.InsertHistoryLines(c)

	out := buf.String()
	assert.Contains(t, out, "\x1b[1;21r", "should set scroll region to [1, height-composerRows]")
	assert.Contains(t, out, "\x1b[21;1H", "should move cursor to the region's last row")
	assert.Contains(t, out, "hello\r\n")
	assert.Contains(t, out, "\x1b[r", "should reset the scroll region")
}

func TestSurface_InsertHistoryLines_DegenerateRegionFallsBackToPlainPrint(t *testing.T) {
	var buf bytes.Buffer
	// height - composerRows <= 1: degenerate.
	s := NewSurface(&buf, ModeStandard, 80, 2, 5, Theme{})

	c := cell.Cell{Lines: []cell.Line{{Spans: []history.InlineSpan{{Text: "hi"}}}}}
	s.InsertHistoryLines(c)

	out := buf.String()
	assert.Equal(t, "hi\n", out, "degenerate region should fall back to a plain newline-terminated print")
}

func TestSurface_DrawAltScreen_ForcesCleanOnFirstFrame(t *testing.T) {
	var buf bytes.Buffer
	s := NewSurface(&buf, ModeAltScreen, 80, 24, 0, Theme{})

	s.DrawAltScreen([]cell.Cell{{Lines: []cell.Line{{Spans: []history.InlineSpan{{Text: "x"}}}}}})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, EraseScreen()))
}

func TestSurface_Resize_ForcesClearOnNextAltFrame(t *testing.T) {
	var buf bytes.Buffer
	s := NewSurface(&buf, ModeAltScreen, 80, 24, 0, Theme{})
	s.DrawAltScreen(nil)
	buf.Reset()

	s.Resize(100, 40)
	s.DrawAltScreen(nil)

	assert.True(t, strings.HasPrefix(buf.String(), EraseScreen()))
}

func TestSanitizeNotification(t *testing.T) {
	text, ok := sanitizeNotification("hello\tworld\n\nagain")
	require.True(t, ok)
	assert.Equal(t, "hello world again", text)

	_, ok = sanitizeNotification("\x01\x02")
	assert.False(t, ok, "a message that is all control characters sanitizes to empty")

	long := strings.Repeat("a", 200)
	text, ok = sanitizeNotification(long)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(text, "..."))
	assert.Len(t, text, 163)
}
