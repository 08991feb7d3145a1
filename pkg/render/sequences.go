// Package render implements the Renderer Surface: alt-screen and
// standard-terminal (scrollback-preserving) drawing modes, DECSTBM
// scroll-region line insertion, word-aware wrapping, and the terminal
// mode-toggle lifecycle described in spec.md §4.8/§6.3.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sequences this package issues directly with github.com/charmbracelet/x/ansi:
// cursor positioning/movement, screen/line erasure, alt-screen toggling
// and the window title OSC. DECSTBM (scroll-region) and Reverse Index
// have no dedicated helper in that package, so they are built as the
// literal escape sequences spec.md §6.3 names: "CSI top;bot r" and
// "ESC M".

// setScrollRegion returns the DECSTBM sequence restricting scrolling to
// rows [top, bot], 1-indexed inclusive.
func setScrollRegion(top, bot int) string {
	return fmt.Sprintf("\x1b[%d;%dr", top, bot)
}

// resetScrollRegion restores the scroll region to the full screen.
func resetScrollRegion() string { return "\x1b[r" }

// reverseIndex is ESC M: move the cursor up one line, scrolling the
// scroll region down if already at its top row.
const reverseIndex = "\x1bM"

// oscNotification is OSC 9: a terminal bell-text notification, per
// spec.md §6.3.
func oscNotification(message string) string {
	return "\x1b]9;" + message + "\a"
}

// sanitizeNotification implements spec.md §6.3's notification
// sanitization rules: strip control characters except LF/CR/TAB
// (collapsed to spaces), collapse whitespace runs, truncate to 160
// characters appending "...", and report ok=false for a message that
// is empty after sanitization.
func sanitizeNotification(raw string) (text string, ok bool) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		case r < 0x20 || r == 0x7f:
			// drop other control characters entirely
		default:
			b.WriteRune(r)
		}
	}
	collapsed := strings.Join(strings.Fields(b.String()), " ")
	if collapsed == "" {
		return "", false
	}
	const maxLen = 160
	if len([]rune(collapsed)) > maxLen {
		runes := []rune(collapsed)
		collapsed = string(runes[:maxLen]) + "..."
	}
	return collapsed, true
}

// Notify builds a sanitized OSC 9 notification sequence, or returns ok
// false if message sanitizes to nothing.
func Notify(message string) (seq string, ok bool) {
	text, ok := sanitizeNotification(message)
	if !ok {
		return "", false
	}
	return oscNotification(text), true
}

// EnterAltScreen/ExitAltScreen toggle the alternate screen buffer
// (CSI ?1049h/l) via the ansi package's named sequences.
func EnterAltScreen() string { return ansi.SetAltScreenSaveCursorMode }
func ExitAltScreen() string  { return ansi.ResetAltScreenSaveCursorMode }

// SetWindowTitle builds the OSC 0 sequence setting the terminal's title.
func SetWindowTitle(title string) string { return ansi.SetWindowTitle(title) }

// CursorTo returns the CUP sequence moving the cursor to (row, col),
// both 1-indexed.
func CursorTo(row, col int) string { return ansi.CursorPosition(col, row) }

// EraseScreen/EraseLine clear the full screen or current line.
func EraseScreen() string { return ansi.EraseEntireScreen }
func EraseLine() string   { return ansi.EraseEntireLine }

// HideCursor/ShowCursor toggle cursor visibility (DECTCEM).
func HideCursor() string { return ansi.HideCursor }
func ShowCursor() string { return ansi.ShowCursor }
