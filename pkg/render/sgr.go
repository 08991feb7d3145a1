package render

import (
	"fmt"
	"strings"

	"github.com/relaycode/tuichat/pkg/history"
)

// toneCodes maps an InlineSpan's named tone to its SGR foreground code.
// spec.md §6.3 specifies "ANSI SGR for styled spans" at the protocol
// level without naming a fixed palette; these are the conventional
// 16-color codes for the tone names pkg/cell already produces (dim,
// success, warning, error).
var toneCodes = map[string]string{
	"dim":     "2",
	"success": "32",
	"warning": "33",
	"error":   "31",
	"info":    "36",
}

// SGR renders one InlineSpan as an SGR-wrapped string: an opening
// escape carrying every attribute the span sets, the text itself, and
// a plain reset. Composing the numeric codes directly (rather than
// through a style-builder type) keeps this file a literal
// transcription of spec.md §6.3's own protocol description.
func SGR(span history.InlineSpan) string {
	var codes []string
	if span.Bold {
		codes = append(codes, "1")
	}
	if span.Italic {
		codes = append(codes, "3")
	}
	if span.Underline {
		codes = append(codes, "4")
	}
	if span.Strike {
		codes = append(codes, "9")
	}
	if code, ok := toneCodes[span.Tone]; ok {
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return span.Text
	}
	return fmt.Sprintf("\x1b[%sm%s\x1b[0m", strings.Join(codes, ";"), span.Text)
}

// RenderSpans joins a slice of InlineSpans into one styled string.
func RenderSpans(spans []history.InlineSpan) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(SGR(s))
	}
	return b.String()
}
