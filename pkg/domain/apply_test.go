package domain

import (
	"testing"
	"time"

	"github.com/relaycode/tuichat/pkg/history"
	"github.com/relaycode/tuichat/pkg/streambuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartExec_InsertsRunningExecAndRegistersCallID(t *testing.T) {
	store := history.New(nil)
	app := New(store, nil)

	mut := app.Apply(Event{Kind: EvStartExec, StartExec: &StartExec{
		CallID:  "c-1",
		Command: []string{"echo", "hi"},
		Action:  history.ExecActionRun,
	}})

	require.Equal(t, history.MutationInserted, mut.Kind)
	id, ok := store.HistoryIDForExecCall("c-1")
	require.True(t, ok)
	assert.Equal(t, mut.ID, id)

	rec, _ := store.RecordByID(id)
	assert.Equal(t, history.ExecRunning, rec.Exec.Status)
}

func TestUpdateExecStream_AppendsAndFinishExecAddsTail(t *testing.T) {
	store := history.New(nil)
	app := New(store, nil)

	mut := app.Apply(Event{Kind: EvStartExec, StartExec: &StartExec{CallID: "c-1", Action: history.ExecActionRun}})
	require.Equal(t, history.MutationInserted, mut.Kind)

	app.Apply(Event{Kind: EvUpdateExecStream, UpdateExecStream: &UpdateExecStream{
		Index:  0,
		Stdout: &streambuf.Chunk{Offset: 0, Content: []byte("partial")},
	}})

	completed := time.Now()
	exitCode := 0
	fm := app.Apply(Event{Kind: EvFinishExec, FinishExec: &FinishExec{
		CallID:      "c-1",
		Status:      history.ExecSuccess,
		ExitCode:    &exitCode,
		CompletedAt: &completed,
		StdoutTail:  "-tail",
	}})
	require.Equal(t, history.MutationReplaced, fm.Kind)

	rec, _ := store.RecordByID(mut.ID)
	assert.Equal(t, "partial-tail", string(rec.Exec.Stdout.Concat()))
	assert.Equal(t, history.ExecSuccess, rec.Exec.Status)
}

func TestFinishExec_NoopWhenUnresolvable(t *testing.T) {
	store := history.New(nil)
	app := New(store, nil)
	mut := app.Apply(Event{Kind: EvFinishExec, FinishExec: &FinishExec{CallID: "missing", Status: history.ExecSuccess}})
	assert.Equal(t, history.MutationNoop, mut.Kind)
}

func TestUpsertAssistantStream_CreatesThenMerges(t *testing.T) {
	store := history.New(nil)
	app := New(store, nil)

	seq := int64(1)
	mut := app.Apply(Event{Kind: EvUpsertAssistantStream, UpsertAssistantStream: &UpsertAssistantStream{
		StreamID: "s", PreviewMarkdown: "Hel", Delta: &history.AssistantDelta{Text: "Hel", Sequence: &seq},
	}})
	require.Equal(t, history.MutationInserted, mut.Kind)

	mut2 := app.Apply(Event{Kind: EvUpsertAssistantStream, UpsertAssistantStream: &UpsertAssistantStream{
		StreamID: "s", PreviewMarkdown: "Hello", Delta: &history.AssistantDelta{Text: "lo", Sequence: &seq},
	}})
	require.Equal(t, history.MutationReplaced, mut2.Kind)
	assert.Equal(t, mut.ID, mut2.ID)

	rec, _ := store.RecordByID(mut.ID)
	require.Len(t, rec.AssistantStream.Deltas, 1)
	assert.Equal(t, "Hello", rec.AssistantStream.Deltas[0].Text)
}

func TestFinalizeAssistantStream_UpdatesInPlaceThenAppendsWithoutStreamID_S4(t *testing.T) {
	store := history.New(nil)
	app := New(store, nil)

	m1 := app.Apply(Event{Kind: EvFinalizeAssistantStream, FinalizeAssistantStream: &FinalizeAssistantStream{
		StreamID: "s", Markdown: "Hello",
	}})
	require.Equal(t, history.MutationInserted, m1.Kind)

	m2 := app.Apply(Event{Kind: EvFinalizeAssistantStream, FinalizeAssistantStream: &FinalizeAssistantStream{
		StreamID: "s", Markdown: "Hello!",
	}})
	require.Equal(t, history.MutationReplaced, m2.Kind)
	assert.Equal(t, m1.ID, m2.ID)
	assert.Equal(t, 1, store.Len())

	rec, _ := store.RecordByID(m1.ID)
	assert.Equal(t, "Hello!", rec.AssistantMessage.Markdown)

	m3 := app.Apply(Event{Kind: EvFinalizeAssistantStream, FinalizeAssistantStream: &FinalizeAssistantStream{
		Markdown: "Hello!",
	}})
	require.Equal(t, history.MutationInserted, m3.Kind)
	assert.Equal(t, 2, store.Len())
}

func TestFinalizeAssistantStream_RemovesInFlightAssistantStream(t *testing.T) {
	store := history.New(nil)
	app := New(store, nil)

	app.Apply(Event{Kind: EvUpsertAssistantStream, UpsertAssistantStream: &UpsertAssistantStream{
		StreamID: "s", PreviewMarkdown: "partial",
	}})
	require.Equal(t, 1, store.Len())

	app.Apply(Event{Kind: EvFinalizeAssistantStream, FinalizeAssistantStream: &FinalizeAssistantStream{
		StreamID: "s", Markdown: "final",
	}})

	require.Equal(t, 1, store.Len())
	assert.Equal(t, history.KindAssistantMessage, store.Records()[0].Kind())
}

func TestMergeExecs_DeregistersSegmentCallIDsKeepsOnlyMergedKey(t *testing.T) {
	store := history.New(nil)
	app := New(store, nil)

	id1 := store.Push(history.NewExec(history.Exec{CallID: "c-1", Status: history.ExecSuccess, Action: history.ExecActionRun}))
	id2 := store.Push(history.NewExec(history.Exec{CallID: "c-2", Status: history.ExecSuccess, Action: history.ExecActionRun}))

	mut := app.MergeExecs([]history.HistoryId{id1, id2})
	require.Equal(t, history.MutationReplaced, mut.Kind)

	_, ok1 := store.HistoryIDForExecCall("c-1")
	_, ok2 := store.HistoryIDForExecCall("c-2")
	assert.False(t, ok1)
	assert.False(t, ok2)

	rec, ok := store.RecordByID(id1)
	require.True(t, ok)
	assert.Equal(t, history.KindMergedExec, rec.Kind())
	assert.Len(t, rec.MergedExec.Segments, 2)

	_, removed := store.RecordByID(id2)
	assert.False(t, removed)
}
