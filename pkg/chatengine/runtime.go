package chatengine

import (
	"log/slog"
	"time"

	"github.com/relaycode/tuichat/pkg/debug"
	"github.com/relaycode/tuichat/pkg/domain"
	"github.com/relaycode/tuichat/pkg/fork"
	"github.com/relaycode/tuichat/pkg/history"
	"github.com/relaycode/tuichat/pkg/streambuf"
)

// Runtime folds an Engine's inbound Event stream into a history.Store,
// via pkg/domain's Applier, and is the piece that knows how to turn a
// call_id-addressed wire event into the index- or id-addressed calls
// the Applier expects.
//
// A Runtime is owned by a single cooperative loop (the Event
// Dispatcher, pkg/dispatch) and carries no internal locking, matching
// history.Store's own single-owner contract.
type Runtime struct {
	store   *history.Store
	applier *domain.Applier
	log     *slog.Logger

	execIndex     map[string]int // call_id -> store index, live execs only
	reasoningID   history.HistoryId
	reasoning     history.Reasoning
	sectionIdx    map[string]int // heading -> index within reasoning.Sections
}

// NewRuntime creates a Runtime over store, using applier to perform
// every mutation.
func NewRuntime(store *history.Store, applier *domain.Applier, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		store:      store,
		applier:    applier,
		log:        logger,
		execIndex:  make(map[string]int),
		sectionIdx: make(map[string]int),
	}
}

// Apply folds one inbound Event into the history store, returning the
// resulting mutation (useful for the Renderer Surface to know which
// cell to redraw).
func (r *Runtime) Apply(ev Event) history.HistoryMutation {
	debug.Log("chatengine", "applying event", "kind", ev.Kind)
	switch ev.Kind {
	case EvAssistantDelta:
		return r.applyAssistantDelta(ev.AssistantDelta)
	case EvAssistantFinal:
		return r.applyAssistantFinal(ev.AssistantFinal)
	case EvReasoningDelta:
		return r.applyReasoningDelta(ev.ReasoningDelta)
	case EvExecStart:
		return r.applyExecStart(ev.ExecStart)
	case EvExecChunk:
		return r.applyExecChunk(ev.ExecChunk)
	case EvExecEnd:
		return r.applyExecEnd(ev.ExecEnd)
	case EvToolStart:
		return r.applyToolStart(ev.ToolStart)
	case EvToolEnd:
		return r.applyToolEnd(ev.ToolEnd)
	case EvPatchEvent:
		return r.applyPatchEvent(ev.PatchEvent)
	case EvPlanUpdate:
		return r.applyPlanUpdate(ev.PlanUpdate)
	case EvBackgroundEvent:
		return r.applyBackgroundEvent(ev.BackgroundEvent)
	case EvRateLimits:
		return r.applyRateLimits(ev.RateLimits)
	case EvReplayHistory:
		return r.applyReplayHistory(ev.ReplayHistory)
	case EvSessionConfigured:
		// Session parameters (model, ...) are consumed by the caller
		// directly from the Event; there is nothing to fold into
		// history.
		return history.Noop()
	default:
		return history.Noop()
	}
}

func (r *Runtime) applyAssistantDelta(e *AssistantDelta) history.HistoryMutation {
	return r.applier.Apply(domain.Event{
		Kind: domain.EvUpsertAssistantStream,
		UpsertAssistantStream: &domain.UpsertAssistantStream{
			StreamID: e.StreamID,
			Delta: &history.AssistantDelta{
				Text:       e.Text,
				Sequence:   e.Sequence,
				ReceivedAt: time.Now(),
			},
		},
	})
}

func (r *Runtime) applyAssistantFinal(e *AssistantFinal) history.HistoryMutation {
	return r.applier.Apply(domain.Event{
		Kind: domain.EvFinalizeAssistantStream,
		FinalizeAssistantStream: &domain.FinalizeAssistantStream{
			StreamID:   e.StreamID,
			Markdown:   e.Markdown,
			Citations:  e.Citations,
			Metadata:   e.Metadata,
			TokenUsage: e.TokenUsage,
			CreatedAt:  time.Now(),
		},
	})
}

// applyReasoningDelta accumulates deltas into a single Reasoning
// record's section body, creating the record on first use and
// replacing it thereafter. Consecutive deltas for the same heading
// append to that section's sole paragraph block; a new heading opens
// a new section.
func (r *Runtime) applyReasoningDelta(e *ReasoningDelta) history.HistoryMutation {
	heading := e.Heading
	idx, ok := r.sectionIdx[heading]
	if !ok {
		idx = len(r.reasoning.Sections)
		r.reasoning.Sections = append(r.reasoning.Sections, history.ReasoningSection{Heading: heading})
		r.sectionIdx[heading] = idx
	}
	section := &r.reasoning.Sections[idx]
	if len(section.Blocks) == 0 {
		section.Blocks = append(section.Blocks, history.ReasoningBlock{Kind: history.ReasoningParagraph})
	}
	block := &section.Blocks[len(section.Blocks)-1]
	if len(block.Spans) == 0 {
		block.Spans = append(block.Spans, history.InlineSpan{})
	}
	block.Spans[0].Text += e.Text

	r.reasoning.Effort = e.Effort
	r.reasoning.InProgress = !e.Done

	if r.reasoningID == history.Unassigned {
		id := r.store.Push(history.NewReasoning(r.reasoning))
		r.reasoningID = id
		return history.Inserted(id)
	}
	return r.store.Replace(r.reasoningID, history.NewReasoning(r.reasoning))
}

func (r *Runtime) applyExecStart(e *ExecStart) history.HistoryMutation {
	mutation := r.applier.Apply(domain.Event{
		Kind: domain.EvStartExec,
		StartExec: &domain.StartExec{
			Index:      r.store.Len(),
			CallID:     e.CallID,
			Command:    e.Argv,
			Parsed:     e.Parsed,
			Action:     e.Action,
			StartedAt:  e.StartedAt,
			WorkingDir: e.Cwd,
			Env:        e.Env,
			Tags:       e.Tags,
		},
	})
	if mutation.Kind == history.MutationInserted {
		if idx, ok := r.store.IndexOf(mutation.ID); ok {
			r.execIndex[e.CallID] = idx
		}
	}
	return mutation
}

func (r *Runtime) applyExecChunk(e *ExecChunk) history.HistoryMutation {
	idx, ok := r.execIndex[e.CallID]
	if !ok {
		return history.Noop()
	}
	chunk := &streambuf.Chunk{Offset: e.Offset, Content: e.Bytes}
	update := &domain.UpdateExecStream{Index: idx}
	switch e.Stream {
	case ExecStreamStdout:
		update.Stdout = chunk
	case ExecStreamStderr:
		update.Stderr = chunk
	}
	return r.applier.Apply(domain.Event{Kind: domain.EvUpdateExecStream, UpdateExecStream: update})
}

func (r *Runtime) applyExecEnd(e *ExecEnd) history.HistoryMutation {
	delete(r.execIndex, e.CallID)
	completedAt := e.CompletedAt
	return r.applier.Apply(domain.Event{
		Kind: domain.EvFinishExec,
		FinishExec: &domain.FinishExec{
			CallID:      e.CallID,
			Status:      e.Status,
			ExitCode:    e.ExitCode,
			CompletedAt: &completedAt,
			StdoutTail:  e.StdoutTail,
			StderrTail:  e.StderrTail,
			WaitTotal:   e.WaitTotal,
			WaitActive:  e.WaitActive,
			WaitNotes:   e.WaitNotes,
		},
	})
}

func (r *Runtime) applyToolStart(e *ToolStart) history.HistoryMutation {
	var args []string
	if e.ArgsJSON != "" {
		args = []string{e.ArgsJSON}
	}
	return r.applier.Apply(domain.Event{
		Kind: domain.EvInsert,
		Insert: &domain.InsertPassthrough{
			Index: r.store.Len(),
			Record: history.NewRunningTool(history.RunningTool{
				CallID:    e.CallID,
				Title:     e.Name,
				StartedAt: e.StartedAt,
				Arguments: args,
			}),
		},
	})
}

func (r *Runtime) applyToolEnd(e *ToolEnd) history.HistoryMutation {
	id, ok := r.store.HistoryIDForToolCall(e.CallID)
	if !ok {
		return history.Noop()
	}
	existing, _ := r.store.RecordByID(id)
	var args []string
	if existing.RunningTool != nil {
		args = existing.RunningTool.Arguments
	}
	title := e.CallID
	if existing.RunningTool != nil {
		title = existing.RunningTool.Title
	}

	toolCall := history.ToolCall{
		CallID:    e.CallID,
		Title:     title,
		Status:    e.Status,
		Duration:  e.Duration,
		Arguments: args,
	}
	if e.Status == history.ToolFailed {
		toolCall.ErrorMessage = e.Result
	} else {
		toolCall.ResultPreview = e.Result
	}

	return r.applier.Apply(domain.Event{
		Kind:    domain.EvReplace,
		Replace: &domain.ReplacePassthrough{ID: id, Record: history.NewToolCall(toolCall)},
	})
}

func (r *Runtime) applyPatchEvent(e *PatchEvent) history.HistoryMutation {
	return r.applier.Apply(domain.Event{
		Kind: domain.EvInsert,
		Insert: &domain.InsertPassthrough{
			Index: r.store.Len(),
			Record: history.NewPatch(history.Patch{
				Type:         e.Kind,
				Changes:      e.Changes,
				AutoApproved: e.AutoApproved,
				Failure:      e.Failure,
			}),
		},
	})
}

func (r *Runtime) applyPlanUpdate(e *PlanUpdate) history.HistoryMutation {
	return r.applier.Apply(domain.Event{
		Kind: domain.EvInsert,
		Insert: &domain.InsertPassthrough{
			Index: r.store.Len(),
			Record: history.NewPlanUpdate(history.PlanUpdate{
				Name:      e.Name,
				Completed: e.Completed,
				Total:     e.Total,
				Steps:     e.Steps,
			}),
		},
	})
}

func (r *Runtime) applyBackgroundEvent(e *BackgroundEvent) history.HistoryMutation {
	return r.applier.Apply(domain.Event{
		Kind: domain.EvInsert,
		Insert: &domain.InsertPassthrough{
			Index:  r.store.Len(),
			Record: history.NewBackgroundEvent(history.BackgroundEvent{Title: e.Title, Description: e.Description}),
		},
	})
}

func (r *Runtime) applyRateLimits(e *RateLimits) history.HistoryMutation {
	return r.applier.Apply(domain.Event{
		Kind: domain.EvInsert,
		Insert: &domain.InsertPassthrough{
			Index:  r.store.Len(),
			Record: history.NewRateLimits(history.RateLimits{Primary: e.Primary, Secondary: e.Secondary}),
		},
	})
}

// applyReplayHistory restores a resumed session's prior state. When
// Snapshot is present it is authoritative (lookups are restored
// as-is); otherwise Items are folded in as a fresh Restore with no
// prior lookups, which history.Store rebuilds from the records alone.
func (r *Runtime) applyReplayHistory(e *ReplayHistory) history.HistoryMutation {
	if e.Snapshot != nil {
		r.store.Restore(*e.Snapshot)
	} else {
		r.store.Restore(history.Snapshot{Records: e.Items, NextID: history.HistoryId(len(e.Items) + 1)})
	}
	r.execIndex = make(map[string]int)
	r.reasoningID = history.Unassigned
	r.reasoning = history.Reasoning{}
	r.sectionIdx = make(map[string]int)
	return history.Noop()
}

// RecordByID exposes the underlying store's record lookup, for
// callers (renderers, dev tools) that need to read back what a
// mutation touched.
func (r *Runtime) RecordByID(id history.HistoryId) (history.Record, bool) {
	return r.store.RecordByID(id)
}

// CaptureGhost builds a fork.GhostState snapshot of the current store,
// for pkg/fork to push onto its ring before a jump-back rewrites
// visible history. composerText/altScreen/theme are the UI-local
// fields GhostState also carries, which this package has no view into.
func (r *Runtime) CaptureGhost(composerText string, altScreen bool, theme string) fork.GhostState {
	return fork.GhostState{
		History:      r.store.Snapshot(),
		ComposerText: composerText,
		AltScreen:    altScreen,
		Theme:        theme,
	}
}
