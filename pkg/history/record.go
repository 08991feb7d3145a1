package history

import (
	"encoding/json"
	"fmt"
)

// Record is a tagged-union entry in a Store. Exactly one of the
// variant fields is non-nil, selected by Kind. This mirrors the
// engine's Item type (a discriminant plus one pointer field per
// variant) rather than an interface-based open hierarchy: the set of
// record kinds is closed and the renderer switches on Kind, never on
// a Go type assertion.
type Record struct {
	id   HistoryId
	kind RecordKind

	PlainMessage     *PlainMessage
	WaitStatus       *WaitStatus
	Loading          *Loading
	Notice           *Notice
	RunningTool      *RunningTool
	ToolCall         *ToolCall
	PlanUpdate       *PlanUpdate
	UpgradeNotice    *UpgradeNotice
	Reasoning        *Reasoning
	Exec             *Exec
	MergedExec       *MergedExec
	AssistantStream  *AssistantStream
	AssistantMessage *AssistantMessage
	Diff             *Diff
	Image            *Image
	Explore          *Explore
	RateLimits       *RateLimits
	Patch            *Patch
	BackgroundEvent  *BackgroundEvent
}

// ID returns the record's stable identity. Unassigned (0) only occurs
// before the record has been pushed/inserted into a Store.
func (r Record) ID() HistoryId { return r.id }

// Kind returns the record's discriminant.
func (r Record) Kind() RecordKind { return r.kind }

// withID returns a copy of r with its id set, used internally by the
// store when assigning ids on push/insert/restore.
func (r Record) withID(id HistoryId) Record {
	r.id = id
	return r
}

// Constructors. Each pins Kind to match the populated field so callers
// cannot construct an inconsistent Record by hand.

func NewPlainMessage(v PlainMessage) Record {
	return Record{kind: KindPlainMessage, PlainMessage: &v}
}
func NewWaitStatus(v WaitStatus) Record { return Record{kind: KindWaitStatus, WaitStatus: &v} }
func NewLoading(v Loading) Record       { return Record{kind: KindLoading, Loading: &v} }
func NewNotice(v Notice) Record         { return Record{kind: KindNotice, Notice: &v} }
func NewRunningTool(v RunningTool) Record {
	return Record{kind: KindRunningTool, RunningTool: &v}
}
func NewToolCall(v ToolCall) Record { return Record{kind: KindToolCall, ToolCall: &v} }
func NewPlanUpdate(v PlanUpdate) Record {
	return Record{kind: KindPlanUpdate, PlanUpdate: &v}
}
func NewUpgradeNotice(v UpgradeNotice) Record {
	return Record{kind: KindUpgradeNotice, UpgradeNotice: &v}
}
func NewReasoning(v Reasoning) Record { return Record{kind: KindReasoning, Reasoning: &v} }
func NewExec(v Exec) Record           { return Record{kind: KindExec, Exec: &v} }
func NewMergedExec(v MergedExec) Record {
	return Record{kind: KindMergedExec, MergedExec: &v}
}
func NewAssistantStream(v AssistantStream) Record {
	return Record{kind: KindAssistantStream, AssistantStream: &v}
}
func NewAssistantMessage(v AssistantMessage) Record {
	return Record{kind: KindAssistantMessage, AssistantMessage: &v}
}
func NewDiff(v Diff) Record     { return Record{kind: KindDiff, Diff: &v} }
func NewImage(v Image) Record   { return Record{kind: KindImage, Image: &v} }
func NewExplore(v Explore) Record { return Record{kind: KindExplore, Explore: &v} }
func NewRateLimits(v RateLimits) Record {
	return Record{kind: KindRateLimits, RateLimits: &v}
}
func NewPatch(v Patch) Record { return Record{kind: KindPatch, Patch: &v} }
func NewBackgroundEvent(v BackgroundEvent) Record {
	return Record{kind: KindBackgroundEvent, BackgroundEvent: &v}
}

// CallID returns the call_id correlating this record with an Exec or
// RunningTool/ToolCall engine event, and whether one is present.
func (r Record) CallID() (string, bool) {
	switch r.kind {
	case KindExec:
		if r.Exec != nil && r.Exec.CallID != "" {
			return r.Exec.CallID, true
		}
	case KindRunningTool:
		if r.RunningTool != nil && r.RunningTool.CallID != "" {
			return r.RunningTool.CallID, true
		}
	case KindToolCall:
		if r.ToolCall != nil && r.ToolCall.CallID != "" {
			return r.ToolCall.CallID, true
		}
	}
	return "", false
}

// StreamID returns the stream_id correlating this record with an
// AssistantStream, and whether one is present.
func (r Record) StreamID() (string, bool) {
	if r.kind == KindAssistantStream && r.AssistantStream != nil && r.AssistantStream.StreamID != "" {
		return r.AssistantStream.StreamID, true
	}
	return "", false
}

// recordWire is the flat, serialization-stable shape of a Record. Only
// the field matching Kind is ever populated on the wire.
type recordWire struct {
	ID   HistoryId  `json:"id"`
	Kind RecordKind `json:"kind"`

	PlainMessage     *PlainMessage     `json:"plain_message,omitempty"`
	WaitStatus       *WaitStatus       `json:"wait_status,omitempty"`
	Loading          *Loading          `json:"loading,omitempty"`
	Notice           *Notice           `json:"notice,omitempty"`
	RunningTool      *RunningTool      `json:"running_tool,omitempty"`
	ToolCall         *ToolCall         `json:"tool_call,omitempty"`
	PlanUpdate       *PlanUpdate       `json:"plan_update,omitempty"`
	UpgradeNotice    *UpgradeNotice    `json:"upgrade_notice,omitempty"`
	Reasoning        *Reasoning        `json:"reasoning,omitempty"`
	Exec             *execWire         `json:"exec,omitempty"`
	MergedExec       *MergedExec       `json:"merged_exec,omitempty"`
	AssistantStream  *AssistantStream  `json:"assistant_stream,omitempty"`
	AssistantMessage *AssistantMessage `json:"assistant_message,omitempty"`
	Diff             *Diff             `json:"diff,omitempty"`
	Image            *Image            `json:"image,omitempty"`
	Explore          *Explore          `json:"explore,omitempty"`
	RateLimits       *RateLimits       `json:"rate_limits,omitempty"`
	Patch            *Patch            `json:"patch,omitempty"`
	BackgroundEvent  *BackgroundEvent  `json:"background_event,omitempty"`
}

// MarshalJSON flattens the Record into its wire shape, switching on
// Kind the same way the engine's Item.MarshalJSON does.
func (r Record) MarshalJSON() ([]byte, error) {
	w := recordWire{ID: r.id, Kind: r.kind}
	switch r.kind {
	case KindPlainMessage:
		w.PlainMessage = r.PlainMessage
	case KindWaitStatus:
		w.WaitStatus = r.WaitStatus
	case KindLoading:
		w.Loading = r.Loading
	case KindNotice:
		w.Notice = r.Notice
	case KindRunningTool:
		w.RunningTool = r.RunningTool
	case KindToolCall:
		w.ToolCall = r.ToolCall
	case KindPlanUpdate:
		w.PlanUpdate = r.PlanUpdate
	case KindUpgradeNotice:
		w.UpgradeNotice = r.UpgradeNotice
	case KindReasoning:
		w.Reasoning = r.Reasoning
	case KindExec:
		if r.Exec != nil {
			ew := r.Exec.toWire()
			w.Exec = &ew
		}
	case KindMergedExec:
		w.MergedExec = r.MergedExec
	case KindAssistantStream:
		w.AssistantStream = r.AssistantStream
	case KindAssistantMessage:
		w.AssistantMessage = r.AssistantMessage
	case KindDiff:
		w.Diff = r.Diff
	case KindImage:
		w.Image = r.Image
	case KindExplore:
		w.Explore = r.Explore
	case KindRateLimits:
		w.RateLimits = r.RateLimits
	case KindPatch:
		w.Patch = r.Patch
	case KindBackgroundEvent:
		w.BackgroundEvent = r.BackgroundEvent
	default:
		return nil, fmt.Errorf("history: marshal record: unknown kind %q", r.kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON reverses MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Record{id: w.ID, kind: w.Kind}
	switch w.Kind {
	case KindPlainMessage:
		out.PlainMessage = w.PlainMessage
	case KindWaitStatus:
		out.WaitStatus = w.WaitStatus
	case KindLoading:
		out.Loading = w.Loading
	case KindNotice:
		out.Notice = w.Notice
	case KindRunningTool:
		out.RunningTool = w.RunningTool
	case KindToolCall:
		out.ToolCall = w.ToolCall
	case KindPlanUpdate:
		out.PlanUpdate = w.PlanUpdate
	case KindUpgradeNotice:
		out.UpgradeNotice = w.UpgradeNotice
	case KindReasoning:
		out.Reasoning = w.Reasoning
	case KindExec:
		if w.Exec != nil {
			e := w.Exec.toExec()
			out.Exec = &e
		}
	case KindMergedExec:
		out.MergedExec = w.MergedExec
	case KindAssistantStream:
		out.AssistantStream = w.AssistantStream
	case KindAssistantMessage:
		out.AssistantMessage = w.AssistantMessage
	case KindDiff:
		out.Diff = w.Diff
	case KindImage:
		out.Image = w.Image
	case KindExplore:
		out.Explore = w.Explore
	case KindRateLimits:
		out.RateLimits = w.RateLimits
	case KindPatch:
		out.Patch = w.Patch
	case KindBackgroundEvent:
		out.BackgroundEvent = w.BackgroundEvent
	default:
		return fmt.Errorf("history: unmarshal record: unknown kind %q", w.Kind)
	}
	*r = out
	return nil
}
