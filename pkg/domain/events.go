// Package domain implements the Domain Event Applier: it translates
// high-level intents (StartExec, UpdateExecStream, UpsertAssistantStream,
// ...) into the Insert/Replace/Remove primitives pkg/history.Store
// understands, enforcing each record-type's invariants along the way.
//
// Grounded on the translate-then-dispatch shape of pkg/engine's
// translate.go/engine.go: a flat switch over a typed event, each case
// building the concrete record before handing it to the store.
package domain

import (
	"time"

	"github.com/relaycode/tuichat/pkg/history"
	"github.com/relaycode/tuichat/pkg/streambuf"
)

// Event is the tagged union of domain events named in spec.md §4.2.
// Exactly one of the variant fields is populated, selected by Kind.
type Event struct {
	Kind EventKind

	StartExec          *StartExec
	UpdateExecStream    *UpdateExecStream
	UpdateExecWait      *UpdateExecWait
	FinishExec          *FinishExec
	UpsertAssistantStream *UpsertAssistantStream
	FinalizeAssistantStream *FinalizeAssistantStream
	Insert              *InsertPassthrough
	Replace             *ReplacePassthrough
	Remove              *RemovePassthrough
}

// EventKind discriminates Event.
type EventKind string

const (
	EvStartExec              EventKind = "start_exec"
	EvUpdateExecStream        EventKind = "update_exec_stream"
	EvUpdateExecWait          EventKind = "update_exec_wait"
	EvFinishExec              EventKind = "finish_exec"
	EvUpsertAssistantStream   EventKind = "upsert_assistant_stream"
	EvFinalizeAssistantStream EventKind = "finalize_assistant_stream"
	EvInsert                  EventKind = "insert"
	EvReplace                 EventKind = "replace"
	EvRemove                  EventKind = "remove"
)

// StartExec begins a new Exec record in the Running state.
type StartExec struct {
	Index      int
	CallID     string
	Command    []string
	Parsed     string
	Action     history.ExecAction
	StartedAt  time.Time
	WorkingDir string
	Env        map[string]string
	Tags       []string
}

// UpdateExecStream appends to an already-running Exec's stdout/stderr,
// located by its position in the store. Stdout/Stderr carry the exact
// offset-keyed chunk the append_chunk algorithm (pkg/streambuf) needs
// to implement out-of-order / authoritative overwrite semantics.
type UpdateExecStream struct {
	Index  int
	Stdout *streambuf.Chunk
	Stderr *streambuf.Chunk
}

// UpdateExecWait updates an Exec's wait-hint fields without touching
// its streams or status.
type UpdateExecWait struct {
	Index      int
	TotalWait  *time.Duration
	WaitActive bool
	Notes      string
}

// FinishExec resolves its target Exec via ID (if set) else via CallID
// lookup, and transitions it to a terminal status.
type FinishExec struct {
	ID          history.HistoryId
	CallID      string
	Status      history.ExecStatus
	ExitCode    *int
	CompletedAt *time.Time
	StdoutTail  string
	StderrTail  string
	WaitTotal   *time.Duration
	WaitActive  bool
	WaitNotes   string
}

// UpsertAssistantStream creates or extends an AssistantStream keyed by
// StreamID.
type UpsertAssistantStream struct {
	StreamID        string
	PreviewMarkdown string
	Delta           *history.AssistantDelta
	Citations       []history.Citation
	Metadata        *history.MessageMetadata
}

// FinalizeAssistantStream removes the in-progress AssistantStream for
// StreamID and upserts the corresponding AssistantMessage.
type FinalizeAssistantStream struct {
	StreamID   string
	Markdown   string
	Citations  []history.Citation
	Metadata   *history.MessageMetadata
	TokenUsage *history.TokenUsage
	CreatedAt  time.Time
}

// InsertPassthrough, ReplacePassthrough and RemovePassthrough forward
// directly to the store's id-assignment semantics without additional
// invariant-checking, for record kinds the Applier does not otherwise
// specialize (Notice, Diff, Image, Explore, RateLimits, Patch,
// BackgroundEvent, PlanUpdate, Reasoning, WaitStatus, Loading,
// UpgradeNotice, RunningTool, ToolCall).
type InsertPassthrough struct {
	Index  int
	Record history.Record
}

type ReplacePassthrough struct {
	ID     history.HistoryId
	Record history.Record
}

type RemovePassthrough struct {
	ID history.HistoryId
}
