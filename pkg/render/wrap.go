package render

import (
	"strings"
	"unicode/utf8"

	"github.com/relaycode/tuichat/pkg/cell"
	"github.com/relaycode/tuichat/pkg/history"
)

// wrapToken is one word or run of whitespace carved out of a Line's
// spans, tagged with the style of the span it came from so a wrap
// break never loses or merges per-span styling.
type wrapToken struct {
	text      string
	isSpace   bool
	style     history.InlineSpan // Text field unused
}

func tokenize(spans []history.InlineSpan) []wrapToken {
	var tokens []wrapToken
	for _, span := range spans {
		start := 0
		text := span.Text
		inSpace := false
		runes := []rune(text)
		flush := func(end int) {
			if end > start {
				tokens = append(tokens, wrapToken{text: string(runes[start:end]), isSpace: inSpace, style: span})
			}
		}
		for i, r := range runes {
			sp := r == ' ' || r == '\t'
			if i == 0 {
				inSpace = sp
				continue
			}
			if sp != inSpace {
				flush(i)
				start = i
				inSpace = sp
			}
		}
		flush(len(runes))
	}
	return tokens
}

// WrapLine word-wraps one structural Line to width columns, preserving
// every span's style across the break: a word that would overflow is
// pushed to the next output line whole; a single word longer than
// width is placed on its own line and allowed to overflow (there is no
// narrower way to render it). Trailing whitespace at a break point is
// dropped, matching ordinary terminal reflow behavior. Rule lines pass
// through unchanged — a horizontal rule has no text to wrap.
func WrapLine(line cell.Line, width int) []cell.Line {
	if line.Rule || width <= 0 {
		return []cell.Line{line}
	}

	tokens := tokenize(line.Spans)
	if len(tokens) == 0 {
		return []cell.Line{line}
	}

	var out []cell.Line
	var current []history.InlineSpan
	col := 0

	flushLine := func() {
		// Trim trailing whitespace from the break point: drop
		// whitespace-only trailing spans entirely, and trim any
		// trailing space/tab run off the new last span's text.
		for len(current) > 0 {
			last := &current[len(current)-1]
			trimmed := strings.TrimRight(last.Text, " \t")
			if trimmed == "" {
				current = current[:len(current)-1]
				continue
			}
			last.Text = trimmed
			break
		}
		out = append(out, cell.Line{Spans: current})
		current = nil
		col = 0
	}

	for _, tok := range tokens {
		w := utf8.RuneCountInString(tok.text)
		if tok.isSpace {
			if col == 0 {
				continue // never start a wrapped line with whitespace
			}
			if col+w > width {
				flushLine()
				continue
			}
			current = appendSpan(current, tok)
			col += w
			continue
		}

		if col > 0 && col+w > width {
			flushLine()
		}
		current = appendSpan(current, tok)
		col += w
	}
	if len(current) > 0 {
		flushLine()
	}
	if len(out) == 0 {
		out = append(out, cell.Line{})
	}
	return out
}

// appendSpan merges tok into the previous span when styles match
// (keeps the common case of one long word split only by our own
// whitespace tokenization from fragmenting into many tiny spans).
func appendSpan(spans []history.InlineSpan, tok wrapToken) []history.InlineSpan {
	style := tok.style
	if len(spans) > 0 {
		last := &spans[len(spans)-1]
		if sameStyle(*last, style) {
			last.Text += tok.text
			return spans
		}
	}
	style.Text = tok.text
	return append(spans, style)
}

func sameStyle(a, b history.InlineSpan) bool {
	return a.Tone == b.Tone && a.Bold == b.Bold && a.Italic == b.Italic &&
		a.Underline == b.Underline && a.Strike == b.Strike && entityEqual(a.Entity, b.Entity)
}

func entityEqual(a, b *history.Entity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// WrapCell wraps every line of a Cell to width, used by the renderer
// right before emitting a cell's rows.
func WrapCell(c cell.Cell, width int) []cell.Line {
	var out []cell.Line
	for _, l := range c.Lines {
		out = append(out, WrapLine(l, width)...)
	}
	return out
}
