package chatengine

import (
	"testing"
	"time"

	"github.com/relaycode/tuichat/pkg/domain"
	"github.com/relaycode/tuichat/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime() *Runtime {
	store := history.New(nil)
	applier := domain.New(store, nil)
	return NewRuntime(store, applier, nil)
}

func TestRuntime_AssistantDeltaThenFinal(t *testing.T) {
	r := newTestRuntime()

	mut := r.Apply(Event{Kind: EvAssistantDelta, AssistantDelta: &AssistantDelta{StreamID: "s1", Text: "Hel"}})
	require.Equal(t, history.MutationInserted, mut.Kind)

	mut = r.Apply(Event{Kind: EvAssistantDelta, AssistantDelta: &AssistantDelta{StreamID: "s1", Text: "lo"}})
	require.Equal(t, history.MutationReplaced, mut.Kind)

	mut = r.Apply(Event{Kind: EvAssistantFinal, AssistantFinal: &AssistantFinal{StreamID: "s1", Markdown: "Hello"}})
	require.Equal(t, history.MutationInserted, mut.Kind)

	rec, ok := r.store.RecordByID(mut.ID)
	require.True(t, ok)
	assert.Equal(t, history.KindAssistantMessage, rec.Kind())
	assert.Equal(t, "Hello", rec.AssistantMessage.Markdown)
}

func TestRuntime_ExecStartChunkEnd(t *testing.T) {
	r := newTestRuntime()

	mut := r.Apply(Event{Kind: EvExecStart, ExecStart: &ExecStart{
		CallID: "c1", Argv: []string{"ls"}, Action: history.ExecActionList, StartedAt: time.Now(),
	}})
	require.Equal(t, history.MutationInserted, mut.Kind)
	execID := mut.ID

	mut = r.Apply(Event{Kind: EvExecChunk, ExecChunk: &ExecChunk{
		CallID: "c1", Stream: ExecStreamStdout, Offset: 0, Bytes: []byte("a.go\n"),
	}})
	require.Equal(t, history.MutationReplaced, mut.Kind)
	require.Equal(t, execID, mut.ID)

	exit := 0
	mut = r.Apply(Event{Kind: EvExecEnd, ExecEnd: &ExecEnd{
		CallID: "c1", Status: history.ExecSuccess, ExitCode: &exit, CompletedAt: time.Now(),
	}})
	require.Equal(t, history.MutationReplaced, mut.Kind)

	rec, ok := r.store.RecordByID(execID)
	require.True(t, ok)
	assert.Equal(t, history.ExecSuccess, rec.Exec.Status)
	assert.Equal(t, "a.go\n", string(rec.Exec.Stdout.Chunks()[0].Content))

	_, stillTracked := r.execIndex["c1"]
	assert.False(t, stillTracked, "ExecEnd should forget the call_id's index")
}

func TestRuntime_ToolStartThenEnd(t *testing.T) {
	r := newTestRuntime()

	mut := r.Apply(Event{Kind: EvToolStart, ToolStart: &ToolStart{CallID: "t1", Name: "read_file", StartedAt: time.Now()}})
	require.Equal(t, history.MutationInserted, mut.Kind)

	mut = r.Apply(Event{Kind: EvToolEnd, ToolEnd: &ToolEnd{CallID: "t1", Status: history.ToolSuccess, Result: "ok", Duration: time.Millisecond}})
	require.Equal(t, history.MutationReplaced, mut.Kind)

	rec, ok := r.store.RecordByID(mut.ID)
	require.True(t, ok)
	assert.Equal(t, history.KindToolCall, rec.Kind())
	assert.Equal(t, "read_file", rec.ToolCall.Title)
	assert.Equal(t, "ok", rec.ToolCall.ResultPreview)
}

func TestRuntime_ToolEnd_UnknownCallIDIsNoop(t *testing.T) {
	r := newTestRuntime()
	mut := r.Apply(Event{Kind: EvToolEnd, ToolEnd: &ToolEnd{CallID: "missing", Status: history.ToolSuccess}})
	assert.Equal(t, history.MutationNoop, mut.Kind)
}

func TestRuntime_ReasoningDeltaAccumulates(t *testing.T) {
	r := newTestRuntime()

	mut := r.Apply(Event{Kind: EvReasoningDelta, ReasoningDelta: &ReasoningDelta{Heading: "Plan", Text: "Step "}})
	require.Equal(t, history.MutationInserted, mut.Kind)
	id := mut.ID

	mut = r.Apply(Event{Kind: EvReasoningDelta, ReasoningDelta: &ReasoningDelta{Heading: "Plan", Text: "one", Done: true}})
	require.Equal(t, history.MutationReplaced, mut.Kind)
	require.Equal(t, id, mut.ID)

	rec, ok := r.store.RecordByID(id)
	require.True(t, ok)
	assert.Equal(t, "Step one", rec.Reasoning.Sections[0].Blocks[0].Spans[0].Text)
	assert.False(t, rec.Reasoning.InProgress)
}

func TestRuntime_ReplayHistoryWithSnapshot(t *testing.T) {
	r := newTestRuntime()
	r.Apply(Event{Kind: EvExecStart, ExecStart: &ExecStart{CallID: "old", Action: history.ExecActionRun, StartedAt: time.Now()}})

	snap := history.Snapshot{
		Records: []history.Record{history.NewPlainMessage(history.PlainMessage{Role: history.RoleUser})},
		NextID:  2,
	}
	mut := r.Apply(Event{Kind: EvReplayHistory, ReplayHistory: &ReplayHistory{Snapshot: &snap}})
	assert.Equal(t, history.MutationNoop, mut.Kind)
	assert.Equal(t, 1, r.store.Len())
	assert.Empty(t, r.execIndex)
}

func TestRuntime_PlanUpdateAndBackgroundEventInsert(t *testing.T) {
	r := newTestRuntime()

	mut := r.Apply(Event{Kind: EvPlanUpdate, PlanUpdate: &PlanUpdate{Name: "rollout", Completed: 1, Total: 4}})
	require.Equal(t, history.MutationInserted, mut.Kind)

	mut = r.Apply(Event{Kind: EvBackgroundEvent, BackgroundEvent: &BackgroundEvent{Description: "token refreshed"}})
	require.Equal(t, history.MutationInserted, mut.Kind)
}
