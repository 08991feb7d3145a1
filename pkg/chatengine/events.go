package chatengine

import (
	"time"

	"github.com/relaycode/tuichat/pkg/history"
)

// EventKind discriminates Event, the Engine boundary's inbound event
// catalog (spec.md §6.1).
type EventKind string

const (
	EvAssistantDelta  EventKind = "assistant_delta"
	EvAssistantFinal  EventKind = "assistant_final"
	EvReasoningDelta  EventKind = "reasoning_delta"
	EvExecStart       EventKind = "exec_start"
	EvExecChunk       EventKind = "exec_chunk"
	EvExecEnd         EventKind = "exec_end"
	EvToolStart       EventKind = "tool_start"
	EvToolEnd         EventKind = "tool_end"
	EvPatchEvent      EventKind = "patch_event"
	EvPlanUpdate      EventKind = "plan_update"
	EvBackgroundEvent EventKind = "background_event"
	EvRateLimits      EventKind = "rate_limits"
	EvReplayHistory   EventKind = "replay_history"
	EvSessionConfigured EventKind = "session_configured"
)

// Event is the tagged union an Engine emits. Exactly one of the
// variant fields is populated, selected by Kind.
type Event struct {
	Kind EventKind

	AssistantDelta    *AssistantDelta
	AssistantFinal    *AssistantFinal
	ReasoningDelta    *ReasoningDelta
	ExecStart         *ExecStart
	ExecChunk         *ExecChunk
	ExecEnd           *ExecEnd
	ToolStart         *ToolStart
	ToolEnd           *ToolEnd
	PatchEvent        *PatchEvent
	PlanUpdate        *PlanUpdate
	BackgroundEvent   *BackgroundEvent
	RateLimits        *RateLimits
	ReplayHistory     *ReplayHistory
	SessionConfigured *SessionConfigured
}

// AssistantDelta is one incremental piece of assistant output.
type AssistantDelta struct {
	StreamID string
	Text     string
	Sequence *int64
}

// AssistantFinal finalizes an assistant turn. StreamID is empty when
// the turn never streamed (e.g. a non-streaming completion).
type AssistantFinal struct {
	StreamID   string
	Markdown   string
	Citations  []history.Citation
	Metadata   *history.MessageMetadata
	TokenUsage *history.TokenUsage
}

// ReasoningDelta is one incremental piece of reasoning output,
// addressed by section heading so consecutive deltas for the same
// section accumulate into one ReasoningSection's body.
type ReasoningDelta struct {
	Heading string
	Text    string
	Effort  string
	Done    bool
}

// ExecStart begins a subprocess/tool-call-free command execution.
type ExecStart struct {
	CallID     string
	Argv       []string
	Parsed     string
	Action     history.ExecAction
	Cwd        string
	Env        map[string]string
	Tags       []string
	StartedAt  time.Time
}

// ExecStream discriminates which stream an ExecChunk belongs to.
type ExecStream string

const (
	ExecStreamStdout ExecStream = "stdout"
	ExecStreamStderr ExecStream = "stderr"
)

// ExecChunk appends bytes to a running Exec's stdout or stderr,
// addressed by CallID and keyed by Offset within that stream.
type ExecChunk struct {
	CallID string
	Stream ExecStream
	Offset int64
	Bytes  []byte
}

// ExecEnd resolves a running Exec to a terminal status.
type ExecEnd struct {
	CallID      string
	Status      history.ExecStatus
	ExitCode    *int
	CompletedAt time.Time
	WaitTotal   *time.Duration
	WaitActive  bool
	WaitNotes   string
	StdoutTail  string
	StderrTail  string
}

// ToolStart begins a named tool invocation (as opposed to ExecStart's
// raw subprocess run).
type ToolStart struct {
	CallID    string
	Name      string
	ArgsJSON  string
	StartedAt time.Time
}

// ToolEnd resolves a running tool call to a terminal status.
type ToolEnd struct {
	CallID   string
	Status   history.ToolStatus
	Duration time.Duration
	Result   string
}

// PatchEvent carries one step of the patch approval/application
// workflow.
type PatchEvent struct {
	Kind    history.PatchType
	Changes map[string]history.FileChange
	AutoApproved bool
	Failure *history.PatchFailure
}

// PlanUpdate reports the current state of a named multi-step plan.
type PlanUpdate struct {
	Name      string
	Completed int
	Total     int
	Steps     []history.PlanStep
}

// BackgroundEvent is a short engine-originated notice that is not a
// conversational turn (token refresh, reconnect, telemetry flush, ...).
type BackgroundEvent struct {
	Title       string
	Description string
}

// RateLimits is a snapshot of provider rate-limit usage.
type RateLimits struct {
	Primary   *history.RateLimitWindow
	Secondary *history.RateLimitWindow
}

// ReplayHistory carries the prior conversation's records for a
// resuming session, either as a full snapshot (preferred, restores
// lookups without rebuilding) or as raw items the Runtime re-derives
// lookups from.
type ReplayHistory struct {
	Snapshot *history.Snapshot
	Items    []history.Record
}

// SessionConfigured announces the model (and any other session
// parameters) an Engine has settled on for this conversation.
type SessionConfigured struct {
	Model string
}
