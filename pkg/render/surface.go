package render

import (
	"io"
	"strings"

	"github.com/relaycode/tuichat/pkg/cell"
)

// Mode selects between the two drawing strategies spec.md §4.8 names.
type Mode int

const (
	ModeAltScreen Mode = iota
	ModeStandard
)

// Theme carries the foreground/background SGR codes a mode switch
// repaints the screen with. Field values are raw SGR parameter
// strings (e.g. "38;5;250") so Surface never needs to know a theme's
// color model.
type Theme struct {
	Name       string
	Foreground string
	Background string
}

func (t Theme) sgr() string {
	if t.Foreground == "" && t.Background == "" {
		return ""
	}
	parts := make([]string, 0, 2)
	if t.Foreground != "" {
		parts = append(parts, t.Foreground)
	}
	if t.Background != "" {
		parts = append(parts, t.Background)
	}
	return "\x1b[" + strings.Join(parts, ";") + "m"
}

// Surface owns the terminal's drawing mode and emits the escape
// sequences backing it. It never reads the terminal itself — width,
// height and raw-mode toggling are the caller's responsibility (via
// golang.org/x/term), kept out of this package so it stays testable
// against a plain io.Writer.
type Surface struct {
	w          io.Writer
	mode       Mode
	width      int
	height     int
	regionRows int // reserved bottom rows for the composer in standard mode
	theme      Theme

	forceClear bool
}

// NewSurface creates a Surface writing sequences to w, starting in
// mode with the given terminal dimensions. composerRows is how many
// bottom rows standard-terminal mode reserves for the live composer.
func NewSurface(w io.Writer, mode Mode, width, height, composerRows int, theme Theme) *Surface {
	return &Surface{w: w, mode: mode, width: width, height: height, regionRows: composerRows, theme: theme, forceClear: true}
}

// Resize updates the known terminal dimensions; per spec.md §4.8, a
// reported size change forces a clear on the next alt-screen frame.
func (s *Surface) Resize(width, height int) {
	if width != s.width || height != s.height {
		s.forceClear = true
	}
	s.width, s.height = width, height
}

// regionBottom is the last row (1-indexed) of the scrolling history
// region in standard mode: everything above the reserved composer rows.
func (s *Surface) regionBottom() int {
	bottom := s.height - s.regionRows
	if bottom < 1 {
		bottom = 1
	}
	return bottom
}

// DrawAltScreen renders cells as a full-frame redraw into the
// alternate buffer, wrapping each cell's lines to the surface width.
// A forced clear (first frame, or since the last Resize) erases the
// screen before drawing.
func (s *Surface) DrawAltScreen(cells []cell.Cell) {
	if s.mode != ModeAltScreen {
		return
	}
	if s.forceClear {
		io.WriteString(s.w, EraseScreen())
		io.WriteString(s.w, CursorTo(1, 1))
		s.forceClear = false
	} else {
		io.WriteString(s.w, CursorTo(1, 1))
	}
	io.WriteString(s.w, s.theme.sgr())
	for _, c := range cells {
		for _, line := range WrapCell(c, s.width) {
			s.writeLine(line)
			io.WriteString(s.w, "\r\n")
		}
	}
}

// InsertHistoryLines implements spec.md §4.8's standard-mode insertion
// algorithm: restrict the scroll region to [1, regionBottom], move the
// cursor to the region's last row, emit each wrapped line terminated
// by CR+LF (which scrolls the region up, making room, rather than the
// whole screen), then restore the full-screen scroll region. A
// degenerate region (<=1 row, e.g. a tiny terminal) falls back to
// plain newline-terminated prints with no region manipulation.
func (s *Surface) InsertHistoryLines(c cell.Cell) {
	if s.mode != ModeStandard {
		return
	}
	bottom := s.regionBottom()
	if bottom <= 1 {
		for _, line := range WrapCell(c, s.width) {
			s.writeLine(line)
			io.WriteString(s.w, "\n")
		}
		return
	}

	io.WriteString(s.w, setScrollRegion(1, bottom))
	io.WriteString(s.w, CursorTo(bottom, 1))
	for _, line := range WrapCell(c, s.width) {
		s.writeLine(line)
		io.WriteString(s.w, "\r\n")
	}
	io.WriteString(s.w, resetScrollRegion())
}

// writeLine renders one wrapped line: a horizontal rule becomes a
// full-width box-drawing rule; otherwise its spans are SGR-rendered in
// sequence.
func (s *Surface) writeLine(line cell.Line) {
	if line.Rule {
		io.WriteString(s.w, strings.Repeat("─", max(s.width, 0)))
		return
	}
	io.WriteString(s.w, RenderSpans(line.Spans))
}

// EnterStandard performs spec.md §4.8's "entering standard" sequence:
// leave the alt buffer (raw mode is a caller concern, untouched here),
// clear with theme colors, one-shot push the transcript into
// scrollback, and redraw the composer. persist is called with the new
// preference so callers can wire it to settings storage.
func (s *Surface) EnterStandard(transcript []cell.Cell, persist func(altScreen bool), redrawComposer func()) {
	s.mode = ModeStandard
	io.WriteString(s.w, ExitAltScreen())
	io.WriteString(s.w, EraseScreen())
	io.WriteString(s.w, s.theme.sgr())
	persist(false)
	for _, c := range transcript {
		s.InsertHistoryLines(c)
	}
	redrawComposer()
}

// EnterAlt performs spec.md §4.8's "entering alt" sequence.
func (s *Surface) EnterAlt(persist func(altScreen bool), redraw func()) {
	s.mode = ModeAltScreen
	io.WriteString(s.w, EnterAltScreen())
	io.WriteString(s.w, s.theme.sgr())
	s.forceClear = true
	persist(true)
	redraw()
}

// reverseIndexLine emits content scrolled in via Reverse Index rather
// than region insertion — kept for callers that insert one line at a
// time at the *top* of the region (spec.md §9 notes RI + LF as the
// primitive beneath the line-by-line insertion algorithm).
func (s *Surface) reverseIndexLine(line cell.Line) {
	io.WriteString(s.w, reverseIndex)
	s.writeLine(line)
	io.WriteString(s.w, "\r\n")
}
