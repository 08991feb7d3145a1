package history

import (
	"encoding/json"
	"testing"

	"github.com/relaycode/tuichat/pkg/streambuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordJSON_RoundTripsPlainMessage(t *testing.T) {
	rec := NewPlainMessage(PlainMessage{
		Role: RoleAssistant,
		Lines: []MessageLine{
			{Kind: LineParagraph, Spans: []InlineSpan{{Text: "hello", Bold: true}}},
		},
	}).withID(7)

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var out Record
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, HistoryId(7), out.ID())
	assert.Equal(t, KindPlainMessage, out.Kind())
	require.NotNil(t, out.PlainMessage)
	assert.Equal(t, "hello", out.PlainMessage.Lines[0].Spans[0].Text)
}

func TestRecordJSON_RoundTripsExecWithStreamState(t *testing.T) {
	e := Exec{CallID: "c-1", Command: []string{"ls"}, Action: ExecActionList, Status: ExecRunning}
	e.Stdout = streambuf.New()
	e.Stdout.Append(streambuf.Chunk{Offset: 0, Content: []byte("file1\nfile2\n")})
	e.Stderr = streambuf.New()

	rec := NewExec(e).withID(3)
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var out Record
	require.NoError(t, json.Unmarshal(data, &out))
	require.NotNil(t, out.Exec)
	assert.Equal(t, "c-1", out.Exec.CallID)
	assert.Equal(t, "file1\nfile2\n", string(out.Exec.Stdout.Concat()))
}

func TestPlanUpdate_IconBuckets(t *testing.T) {
	cases := []struct {
		completed, total int
		want             ProgressIcon
	}{
		{0, 0, IconEmpty},
		{0, 5, IconEmpty},
		{1, 3, IconStart},
		{2, 3, IconMid},
		{5, 6, IconLate},
		{6, 6, IconComplete},
	}
	for _, c := range cases {
		got := PlanUpdate{Completed: c.completed, Total: c.total}.Icon()
		assert.Equal(t, c.want, got, "completed=%d total=%d", c.completed, c.total)
	}
}

func TestAppendDelta_CoalescesEqualSequences(t *testing.T) {
	seq := int64(1)
	deltas := []AssistantDelta{{Text: "Hel", Sequence: &seq}}
	deltas = AppendDelta(deltas, AssistantDelta{Text: "lo", Sequence: &seq})

	require.Len(t, deltas, 1)
	assert.Equal(t, "Hello", deltas[0].Text)
}

func TestAppendDelta_CoalescesWhenBothSequencesAbsent(t *testing.T) {
	deltas := []AssistantDelta{{Text: "a"}}
	deltas = AppendDelta(deltas, AssistantDelta{Text: "b"})
	require.Len(t, deltas, 1)
	assert.Equal(t, "ab", deltas[0].Text)
}

func TestAppendDelta_DistinctSequencesDoNotMerge(t *testing.T) {
	s1, s2 := int64(1), int64(2)
	deltas := []AssistantDelta{{Text: "a", Sequence: &s1}}
	deltas = AppendDelta(deltas, AssistantDelta{Text: "b", Sequence: &s2})
	require.Len(t, deltas, 2)
	assert.Equal(t, "a", deltas[0].Text)
	assert.Equal(t, "b", deltas[1].Text)
}

func TestValidToolTransition(t *testing.T) {
	assert.True(t, ValidToolTransition(ToolRunning, ToolSuccess))
	assert.True(t, ValidToolTransition(ToolRunning, ToolFailed))
	assert.False(t, ValidToolTransition(ToolSuccess, ToolRunning))
	assert.False(t, ValidToolTransition(ToolFailed, ToolSuccess))
}

func TestValidExecTransition(t *testing.T) {
	assert.True(t, ValidExecTransition(ExecRunning, ExecSuccess))
	assert.False(t, ValidExecTransition(ExecError, ExecRunning))
}
