// Package cell builds presentation "cells" from history.Record values.
// Cells are owned by the UI/render layer: building one never mutates
// the source record, and the same record may be rebuilt into a cell
// any number of times (e.g. on every redraw).
package cell

// Kind is the small, closed tag the renderer switches on. Per
// spec.md §9's re-architecture note, dynamic dispatch over record
// variants in the renderer is replaced by this tag plus the record
// data, not an open-world plugin surface.
type Kind string

const (
	KindPlain      Kind = "plain"
	KindAssistant  Kind = "assistant"
	KindReasoning  Kind = "reasoning"
	KindExec       Kind = "exec"
	KindTool       Kind = "tool"
	KindPatch      Kind = "patch"
	KindPlan       Kind = "plan"
	KindDiff       Kind = "diff"
	KindImage      Kind = "image"
	KindExplore    Kind = "explore"
	KindRateLimits Kind = "rate_limits"
	KindStatus     Kind = "status" // WaitStatus / Loading / Notice / UpgradeNotice / BackgroundEvent
)
