package chatengine

import "context"

// MatchKind discriminates how RegisterApprovedCommand's Match should
// be compared against a future command line.
type MatchKind string

const (
	MatchExact  MatchKind = "exact"
	MatchPrefix MatchKind = "prefix"
)

// Submit sends a new user turn.
type Submit struct {
	Text string
}

// AddToHistory appends a record to history without submitting a turn
// (e.g. a local slash-command echo).
type AddToHistory struct {
	Text string
}

// Cancel requests cancellation of the in-flight turn.
type Cancel struct{}

// Compact requests the Engine summarize/compact the conversation so
// far to reduce context usage.
type Compact struct{}

// PatchDecision is the user's approval/rejection of a pending patch.
type PatchDecision string

const (
	PatchApprove PatchDecision = "approve"
	PatchReject  PatchDecision = "reject"
)

// ApplyPatch resolves a pending PatchEvent{Kind: PatchApprovalRequest}.
type ApplyPatch struct {
	Decision PatchDecision
}

// RegisterApprovedCommand remembers that the user has pre-approved a
// command (or a class of commands) so future matching ExecStart calls
// skip the approval prompt.
type RegisterApprovedCommand struct {
	Command        string
	MatchKind      MatchKind
	Persist        bool
	SemanticPrefix string
}

// Fork starts a new session seeded with prefix_items, per
// pkg/fork.BuildPrefixItems's output, and whatever session
// configuration cfg carries (model override, theme, ...).
type Fork struct {
	PrefixItems []Record
	Cfg         map[string]string
}

// Record is the minimal record shape Fork carries across the Engine
// boundary: a role and markdown body, deliberately independent of
// pkg/history.Record so this package never needs to import the full
// record catalog just to describe a fork seed.
type Record struct {
	Role     string
	Markdown string
}

// Engine is the outbound half of the boundary: a chat UI main loop
// submits ops and receives Events back via Events().
type Engine interface {
	// Events returns the channel of inbound Events this Engine
	// produces for the lifetime of the session. Closed when the
	// Engine shuts down.
	Events() <-chan Event

	Submit(ctx context.Context, op Submit) error
	AddToHistory(ctx context.Context, op AddToHistory) error
	Cancel(ctx context.Context) error
	Compact(ctx context.Context) error
	ApplyPatch(ctx context.Context, op ApplyPatch) error
	RegisterApprovedCommand(ctx context.Context, op RegisterApprovedCommand) error
	Fork(ctx context.Context, op Fork) (Engine, error)

	// Close releases any resources held by the Engine (network
	// connections, subprocess handles, background goroutines).
	Close() error
}
