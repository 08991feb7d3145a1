// Package fork implements Fork/Jump-back: rewinding the conversation to
// a point N user-messages back, prefilled with replacement text, while
// starting the replacement Engine session off the UI thread so the main
// loop never blocks on it. See spec.md §4.9.
package fork

import (
	"context"
	"log/slog"

	"github.com/relaycode/tuichat/pkg/dispatch"
	"github.com/relaycode/tuichat/pkg/history"
)

// Role distinguishes the exported items a prefix cut counts against.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ResponseItem is one exported conversation turn, the unit Fork's
// prefix-cut scans — the role-tagged message list spec.md §4.9 step 2
// calls "exported response items".
type ResponseItem struct {
	Role Role
	Text string
}

// GhostState is the UI-level undo/redo snapshot captured at a jump-back
// point: the visible history plus whatever the composer held.
type GhostState struct {
	History         history.Snapshot
	ComposerText    string
	AltScreen       bool
	Theme           string
}

// Request is "fork N user-messages back, prefilled with text P".
type Request struct {
	// N is how many user messages back to cut before; N=1 keeps
	// everything up to (but not including) the most recent user
	// message.
	N       int
	Prefill string
	// Cfg is passed through to the new Engine session unmodified —
	// Fork never inspects or mutates engine configuration.
	Cfg any
}

// SessionResult is what a successful background session start
// produces, carried on the JumpBackForked event.
type SessionResult struct {
	NewConversationID string
	PrefixItems       []ResponseItem
	// HistorySnapshot is populated when the starter can hand back a
	// ready-made history snapshot instead of requiring the UI to
	// replay PrefixItems itself (spec.md §4.9 step 4 / Open Question 2).
	HistorySnapshot *history.Snapshot
}

// JumpBackForked is the payload posted on dispatch.KindJumpBackForked
// once the background session start succeeds. Forker.Start posts
// nothing when the start fails, so it never sets Err.
type JumpBackForked struct {
	Cfg         any
	NewConvID   string
	PrefixItems []ResponseItem
	Prefill     string
	History     *history.Snapshot
	Err         error
}

// SessionStarter starts a new Engine session for the given prefix and
// configuration, returning the new session's conversation id. It is
// called on a background goroutine by Forker.Start and must not touch
// UI state.
type SessionStarter interface {
	StartSession(ctx context.Context, cfg any, prefixItems []ResponseItem) (SessionResult, error)
}

// Hooks are the UI-loop-owned side effects Forker triggers once a fork
// completes, kept as injected functions so Forker itself never touches
// widget state directly.
type Hooks struct {
	// ReplaceChatView binds the chat view to the new conversation id.
	ReplaceChatView func(newConvID string)
	// RestoreGhost re-applies a previously captured ghost snapshot; ok
	// is false when none was available (redo becomes unavailable).
	RestoreGhost func(g GhostState, ok bool)
	// RestoreHistoryOrReplay implements spec.md §4.9 step 4's
	// conditional: when snapshot is non-nil it is restored directly in
	// place of replay; otherwise the caller should synthesize a
	// ReplayHistory event carrying prefixItems and let normal event
	// handling re-materialize the prefix.
	RestoreHistoryOrReplay func(snapshot *history.Snapshot, prefixItems []ResponseItem)
	// ClearTerminalRuns tears down any live terminal runs bound to the
	// conversation being replaced.
	ClearTerminalRuns func()
	// ResetCommitAnimation stops any in-flight commit-animation state
	// and arms a first-frame clear on the next redraw.
	ResetCommitAnimation func()
	// SetComposerText inserts the prefill text into the composer.
	SetComposerText func(text string)
}

// Forker orchestrates the fork algorithm: it owns the ghost ring (so
// repeated forks can still be undone in order) and posts
// JumpBackForked onto q once the background session start resolves.
type Forker struct {
	ghosts  *GhostRing
	starter SessionStarter
	q       *dispatch.Queue
	log     *slog.Logger
}

// New creates a Forker. ringSize bounds how many ghost snapshots are
// retained (spec.md §9: "the original keeps a small ring of prior ghost
// states").
func New(starter SessionStarter, q *dispatch.Queue, ringSize int, logger *slog.Logger) *Forker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forker{ghosts: NewGhostRing(ringSize), starter: starter, q: q, log: logger}
}

// Start executes steps 1-3 of spec.md §4.9 synchronously (the snapshot
// and prefix cut are cheap, in-memory operations) and then launches
// step 3's background Engine session start, returning immediately. A
// failure is logged and no JumpBackForked is posted, matching the
// "fork failure" error-taxonomy entry in spec.md §7.
func (f *Forker) Start(ctx context.Context, req Request, items []ResponseItem, current GhostState) {
	f.ghosts.Push(current)

	prefix, err := BuildPrefixItems(items, req.N)
	if err != nil {
		f.log.Warn("fork: failed to build prefix", "error", err.Error())
		return
	}

	go func() {
		result, err := f.starter.StartSession(ctx, req.Cfg, prefix)
		if err != nil {
			f.log.Warn("fork: failed to start new engine session", "error", err.Error())
			return
		}
		f.q.PostHigh(dispatch.Event{
			Kind: dispatch.KindJumpBackForked,
			Payload: JumpBackForked{
				Cfg:         req.Cfg,
				NewConvID:   result.NewConversationID,
				PrefixItems: result.PrefixItems,
				Prefill:     req.Prefill,
				History:     result.HistorySnapshot,
			},
		})
	}()
}

// Complete runs step 4 of spec.md §4.9 against a resolved
// JumpBackForked payload. It is called by the main loop when it
// dequeues the event, never from the background goroutine.
func (f *Forker) Complete(jb JumpBackForked, hooks Hooks) {
	hooks.ReplaceChatView(jb.NewConvID)

	ghost, ok := f.ghosts.Pop()
	hooks.RestoreGhost(ghost, ok)
	if !ok {
		f.log.Warn("fork: no ghost snapshot to restore, redo is unavailable")
	}

	hooks.RestoreHistoryOrReplay(jb.History, jb.PrefixItems)
	hooks.ClearTerminalRuns()
	hooks.ResetCommitAnimation()
	hooks.SetComposerText(jb.Prefill)
}
