package domain

import (
	"log/slog"

	"github.com/relaycode/tuichat/pkg/history"
	"github.com/relaycode/tuichat/pkg/streambuf"
	"github.com/relaycode/tuichat/pkg/usage"
)

// Applier maps Events onto history.Store mutations, the single place
// that knows how a high-level intent becomes a safe Insert/Replace.
type Applier struct {
	store *history.Store
	log   *slog.Logger
}

// New creates an Applier bound to store.
func New(store *history.Store, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{store: store, log: logger}
}

// Apply dispatches event to the matching handler and returns the
// resulting HistoryMutation.
func (a *Applier) Apply(event Event) history.HistoryMutation {
	switch event.Kind {
	case EvStartExec:
		return a.applyStartExec(event.StartExec)
	case EvUpdateExecStream:
		return a.applyUpdateExecStream(event.UpdateExecStream)
	case EvUpdateExecWait:
		return a.applyUpdateExecWait(event.UpdateExecWait)
	case EvFinishExec:
		return a.applyFinishExec(event.FinishExec)
	case EvUpsertAssistantStream:
		return a.applyUpsertAssistantStream(event.UpsertAssistantStream)
	case EvFinalizeAssistantStream:
		return a.applyFinalizeAssistantStream(event.FinalizeAssistantStream)
	case EvInsert:
		id := a.store.Insert(event.Insert.Index, event.Insert.Record)
		return history.Inserted(id)
	case EvReplace:
		return a.store.Replace(event.Replace.ID, event.Replace.Record)
	case EvRemove:
		return a.store.Apply(history.HistoryEvent{Kind: history.EventRemove, ID: event.Remove.ID})
	default:
		return history.Noop()
	}
}

func (a *Applier) applyStartExec(e *StartExec) history.HistoryMutation {
	rec := history.NewExec(history.Exec{
		CallID:     e.CallID,
		Command:    e.Command,
		ParsedSummary: e.Parsed,
		Action:     e.Action,
		Status:     history.ExecRunning,
		Stdout:     streambuf.New(),
		Stderr:     streambuf.New(),
		StartedAt:  e.StartedAt,
		WorkingDir: e.WorkingDir,
		Env:        e.Env,
		Tags:       e.Tags,
	})
	id := a.store.Insert(e.Index, rec)
	return history.Inserted(id)
}

func (a *Applier) execAt(index int) (history.HistoryId, history.Exec, bool) {
	records := a.store.Records()
	if index < 0 || index >= len(records) {
		return history.Unassigned, history.Exec{}, false
	}
	rec := records[index]
	if rec.Kind() != history.KindExec || rec.Exec == nil {
		return history.Unassigned, history.Exec{}, false
	}
	return rec.ID(), *rec.Exec, true
}

func (a *Applier) applyUpdateExecStream(e *UpdateExecStream) history.HistoryMutation {
	id, exec, ok := a.execAt(e.Index)
	if !ok {
		return history.Noop()
	}
	if exec.Stdout == nil {
		exec.Stdout = streambuf.New()
	}
	if exec.Stderr == nil {
		exec.Stderr = streambuf.New()
	}

	if e.Stdout != nil {
		pruned := exec.Stdout.Append(*e.Stdout)
		a.observeStream(int64(id), exec.Stdout, len(e.Stdout.Content), pruned, exec.Command)
	}
	if e.Stderr != nil {
		pruned := exec.Stderr.Append(*e.Stderr)
		a.observeStream(int64(id), exec.Stderr, len(e.Stderr.Content), pruned, exec.Command)
	}

	return a.store.Replace(id, history.NewExec(exec))
}

func (a *Applier) applyUpdateExecWait(e *UpdateExecWait) history.HistoryMutation {
	id, exec, ok := a.execAt(e.Index)
	if !ok {
		return history.Noop()
	}
	exec.WaitTotal = e.TotalWait
	exec.WaitActive = e.WaitActive
	exec.WaitNotes = e.Notes
	return a.store.Replace(id, history.NewExec(exec))
}

func (a *Applier) applyFinishExec(e *FinishExec) history.HistoryMutation {
	id := e.ID
	if !id.Valid() && e.CallID != "" {
		if found, ok := a.store.HistoryIDForExecCall(e.CallID); ok {
			id = found
		}
	}
	if !id.Valid() {
		return history.Noop()
	}
	rec, ok := a.store.RecordByID(id)
	if !ok || rec.Kind() != history.KindExec || rec.Exec == nil {
		return history.Noop()
	}
	exec := *rec.Exec
	if exec.Stdout == nil {
		exec.Stdout = streambuf.New()
	}
	if exec.Stderr == nil {
		exec.Stderr = streambuf.New()
	}

	exec.Status = e.Status
	exec.ExitCode = e.ExitCode
	exec.CompletedAt = e.CompletedAt
	exec.WaitTotal = e.WaitTotal
	exec.WaitActive = e.WaitActive
	exec.WaitNotes = e.WaitNotes

	if e.StdoutTail != "" {
		chunk := streambuf.Chunk{Offset: exec.Stdout.Len(), Content: []byte(e.StdoutTail)}
		pruned := exec.Stdout.Append(chunk)
		a.observeStream(int64(id), exec.Stdout, len(chunk.Content), pruned, exec.Command)
	}
	if e.StderrTail != "" {
		chunk := streambuf.Chunk{Offset: exec.Stderr.Len(), Content: []byte(e.StderrTail)}
		pruned := exec.Stderr.Append(chunk)
		a.observeStream(int64(id), exec.Stderr, len(chunk.Content), pruned, exec.Command)
	}

	return a.store.Replace(id, history.NewExec(exec))
}

func (a *Applier) applyUpsertAssistantStream(e *UpsertAssistantStream) history.HistoryMutation {
	if id, ok := a.store.HistoryIDForStream(e.StreamID); ok {
		rec, ok := a.store.RecordByID(id)
		if !ok || rec.Kind() != history.KindAssistantStream || rec.AssistantStream == nil {
			return history.Noop()
		}
		stream := *rec.AssistantStream
		if e.Delta != nil {
			stream.Deltas = history.AppendDelta(stream.Deltas, *e.Delta)
		}
		if e.PreviewMarkdown != "" {
			stream.PreviewMarkdown = e.PreviewMarkdown
		}
		if e.Citations != nil {
			stream.Citations = e.Citations
		}
		if e.Metadata != nil {
			stream.Metadata = e.Metadata
		}
		stream.InProgress = true
		if e.Delta != nil {
			stream.LastUpdatedAt = e.Delta.ReceivedAt
		}
		a.observeAssistant(int64(id), &stream)
		return a.store.Replace(id, history.NewAssistantStream(stream))
	}

	stream := history.AssistantStream{
		StreamID:        e.StreamID,
		PreviewMarkdown: e.PreviewMarkdown,
		Citations:       e.Citations,
		Metadata:        e.Metadata,
		InProgress:      true,
	}
	if e.Delta != nil {
		stream.Deltas = history.AppendDelta(stream.Deltas, *e.Delta)
		stream.LastUpdatedAt = e.Delta.ReceivedAt
	}
	id := a.store.Push(history.NewAssistantStream(stream))
	return history.Inserted(id)
}

func (a *Applier) applyFinalizeAssistantStream(e *FinalizeAssistantStream) history.HistoryMutation {
	var citations []history.Citation
	var metadata *history.MessageMetadata

	if streamRecID, ok := a.store.HistoryIDForStream(e.StreamID); e.StreamID != "" && ok {
		if rec, found := a.store.RecordByID(streamRecID); found && rec.AssistantStream != nil {
			citations = rec.AssistantStream.Citations
			metadata = rec.AssistantStream.Metadata
		}
		a.store.Apply(history.HistoryEvent{Kind: history.EventRemove, ID: streamRecID})
	}
	if e.Citations != nil {
		citations = e.Citations
	}
	if e.Metadata != nil {
		metadata = e.Metadata
	}

	msg := history.AssistantMessage{
		StreamID:   e.StreamID,
		Markdown:   e.Markdown,
		Citations:  citations,
		Metadata:   metadata,
		TokenUsage: e.TokenUsage,
		CreatedAt:  e.CreatedAt,
	}

	if e.StreamID != "" {
		for _, rec := range a.store.Records() {
			if rec.Kind() == history.KindAssistantMessage && rec.AssistantMessage != nil && rec.AssistantMessage.StreamID == e.StreamID {
				return a.store.Replace(rec.ID(), history.NewAssistantMessage(msg))
			}
		}
	}

	id := a.store.Push(history.NewAssistantMessage(msg))
	return history.Inserted(id)
}

func (a *Applier) observeStream(id int64, buf *streambuf.Buffer, appendedBytes int, pruned int64, command []string) {
	snippet := ""
	if len(command) > 0 {
		for i, c := range command {
			if i > 0 {
				snippet += " "
			}
			snippet += c
		}
	}
	a.store.Usage().Observe(id, usage.KindExec, 1, int64(appendedBytes), pruned, buf.RetainedLen(), snippet)
}

func (a *Applier) observeAssistant(id int64, stream *history.AssistantStream) {
	last := ""
	if len(stream.Deltas) > 0 {
		last = stream.Deltas[len(stream.Deltas)-1].Text
	}
	a.store.Usage().Observe(id, usage.KindAssistant, 1, int64(len(last)), 0, int64(len(stream.PreviewMarkdown)), stream.PreviewMarkdown)
}
