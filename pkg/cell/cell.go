package cell

import "github.com/relaycode/tuichat/pkg/history"

// Line is one styled row a Cell contributes to the render surface. It
// reuses history.InlineSpan so the word-aware wrapper in pkg/render
// can slice a Line's spans without a second style representation.
type Line struct {
	Spans []history.InlineSpan
	// Rule marks a horizontal-rule line (spec.md §4.8): the renderer
	// replaces it with a full-width box-drawing rule instead of
	// emitting Spans verbatim.
	Rule bool
}

// Cell is the built presentation object for one history.Record.
type Cell struct {
	ID     history.HistoryId
	Kind   Kind
	Header string
	Lines  []Line
}

// Build dispatches on rec.Kind() to the matching factory. Image
// records, which have no dedicated factory, become a single line of
// alt text, and a record of any unrecognized kind falls back to a
// one-line status cell naming its kind, so the renderer never sees a
// record it cannot represent at all.
func Build(rec history.Record) Cell {
	switch rec.Kind() {
	case history.KindPlainMessage:
		return buildPlainMessage(rec)
	case history.KindWaitStatus, history.KindLoading, history.KindNotice, history.KindUpgradeNotice, history.KindBackgroundEvent:
		return buildStatus(rec)
	case history.KindRunningTool, history.KindToolCall:
		return buildTool(rec)
	case history.KindPlanUpdate:
		return buildPlan(rec)
	case history.KindReasoning:
		return buildReasoning(rec)
	case history.KindExec, history.KindMergedExec:
		return buildExec(rec)
	case history.KindAssistantStream, history.KindAssistantMessage:
		return buildAssistant(rec)
	case history.KindDiff:
		return buildDiff(rec)
	case history.KindPatch:
		return buildPatch(rec)
	case history.KindRateLimits:
		return buildRateLimits(rec)
	case history.KindImage:
		return Cell{ID: rec.ID(), Kind: KindImage, Lines: []Line{textLine(rec.Image.AltText)}}
	case history.KindExplore:
		return buildExplore(rec)
	default:
		return Cell{ID: rec.ID(), Kind: KindStatus, Lines: []Line{textLine(string(rec.Kind()))}}
	}
}

func textLine(s string) Line {
	return Line{Spans: []history.InlineSpan{{Text: s}}}
}

func toneLine(s, tone string) Line {
	return Line{Spans: []history.InlineSpan{{Text: s, Tone: tone}}}
}
