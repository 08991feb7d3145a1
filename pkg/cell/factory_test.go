package cell

import (
	"testing"
	"time"

	"github.com/relaycode/tuichat/pkg/history"
	"github.com/relaycode/tuichat/pkg/streambuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_PlainMessage_CarriesHeaderAndLines(t *testing.T) {
	rec := history.NewPlainMessage(history.PlainMessage{
		Role:   history.RoleUser,
		Header: &history.Header{Label: "you"},
		Lines: []history.MessageLine{
			{Kind: history.LineParagraph, Spans: []history.InlineSpan{{Text: "hi there"}}},
			{Kind: history.LineSeparator},
			{Kind: history.LineBullet, Indent: 1, Marker: "*", Spans: []history.InlineSpan{{Text: "item"}}},
		},
	})

	c := Build(rec)
	require.Equal(t, KindPlain, c.Kind)
	assert.Equal(t, "you", c.Header)
	require.Len(t, c.Lines, 3)
	assert.True(t, c.Lines[1].Rule)
	assert.Equal(t, "  * ", c.Lines[2].Spans[0].Text)
}

func TestBuild_PlanUpdate_MarksStepMarkersByStatus(t *testing.T) {
	rec := history.NewPlanUpdate(history.PlanUpdate{
		Name: "rollout", Completed: 1, Total: 2,
		Steps: []history.PlanStep{
			{Description: "build", Status: history.StepCompleted},
			{Description: "deploy", Status: history.StepInProgress},
		},
	})

	c := Build(rec)
	require.Equal(t, KindPlan, c.Kind)
	assert.Equal(t, "rollout", c.Header)
	require.Len(t, c.Lines, 3)
	assert.Contains(t, c.Lines[1].Spans[0].Text, "[x]")
	assert.Contains(t, c.Lines[2].Spans[0].Text, "[~]")
}

func TestBuild_Exec_RendersTruncationNoticeAndStderr(t *testing.T) {
	stdout := streambuf.New()
	stdout.Append(streambuf.Chunk{Offset: 0, Content: []byte("line one\nline two\n")})
	stderr := streambuf.New()
	stderr.Append(streambuf.Chunk{Offset: 0, Content: []byte("uh oh\n")})

	rec := history.NewExec(history.Exec{
		Command: []string{"ls", "-la"},
		Action:  history.ExecActionRun,
		Status:  history.ExecSuccess,
		Stdout:  stdout,
		Stderr:  stderr,
	})

	c := Build(rec)
	require.Equal(t, KindExec, c.Kind)
	assert.Equal(t, "run", c.Header)

	var joined string
	for _, l := range c.Lines {
		for _, s := range l.Spans {
			joined += s.Text + "\n"
		}
	}
	assert.Contains(t, joined, "ls -la")
	assert.Contains(t, joined, "line one")
	assert.Contains(t, joined, "stderr:")
	assert.Contains(t, joined, "uh oh")
}

func TestBuild_MergedExec_OneSummaryLinePerSegment(t *testing.T) {
	rec := history.NewMergedExec(history.MergedExec{
		Action: history.ExecActionRun,
		Segments: []history.Exec{
			{Command: []string{"cd", "a"}, Status: history.ExecSuccess},
			{Command: []string{"ls"}, Status: history.ExecError},
		},
	})

	c := Build(rec)
	require.Len(t, c.Lines, 2)
	assert.Contains(t, c.Lines[0].Spans[0].Text, "cd a")
	assert.Contains(t, c.Lines[1].Spans[0].Text, "ls")
}

func TestBuild_AssistantStream_UsesPreview(t *testing.T) {
	rec := history.NewAssistantStream(history.AssistantStream{StreamID: "s", PreviewMarkdown: "partial output"})
	c := Build(rec)
	require.Equal(t, KindAssistant, c.Kind)
	assert.Equal(t, "partial output", c.Lines[0].Spans[0].Text)
}

func TestBuild_AssistantMessage_AppendsCitationLines(t *testing.T) {
	rec := history.NewAssistantMessage(history.AssistantMessage{
		Markdown:  "done",
		Citations: []history.Citation{{Title: "doc", URL: "https://example.test"}},
	})
	c := Build(rec)
	require.Len(t, c.Lines, 2)
	assert.Contains(t, c.Lines[1].Spans[0].Text, "doc")
}

func TestBuild_RateLimits_SkipsNilWindows(t *testing.T) {
	rec := history.NewRateLimits(history.RateLimits{
		Primary: &history.RateLimitWindow{Label: "primary", UsedPercent: 42, ResetsInText: "in 3h"},
	})
	c := Build(rec)
	require.Len(t, c.Lines, 1)
	assert.Contains(t, c.Lines[0].Spans[0].Text, "42%")
}

func TestBuild_Patch_ApplyFailureIncludesMessage(t *testing.T) {
	rec := history.NewPatch(history.Patch{
		Type:    history.PatchApplyFailure,
		Changes: map[string]history.FileChange{"a.go": {Path: "a.go", Kind: history.FileModified}},
		Failure: &history.PatchFailure{Message: "hunk failed to apply"},
	})
	c := Build(rec)
	require.Equal(t, KindPatch, c.Kind)
	assert.Contains(t, c.Lines[1].Spans[0].Text, "hunk failed to apply")
}

func TestBuild_BackgroundEvent_YieldsStatusCell(t *testing.T) {
	rec := history.NewBackgroundEvent(history.BackgroundEvent{Title: "reconnect", Description: "resumed stream"})
	c := Build(rec)
	require.Equal(t, KindStatus, c.Kind)
	assert.Equal(t, "reconnect", c.Header)
}

func TestBuild_Tool_RunningVsCompleted(t *testing.T) {
	running := history.NewRunningTool(history.RunningTool{Title: "search", StartedAt: time.Now(), Arguments: []string{"q"}})
	c := Build(running)
	assert.Equal(t, KindTool, c.Kind)
	assert.Equal(t, "search", c.Header)

	done := history.NewToolCall(history.ToolCall{Title: "search", Status: history.ToolFailed, ErrorMessage: "timeout"})
	c2 := Build(done)
	assert.Contains(t, c2.Lines[0].Spans[0].Tone, "error")
	assert.Contains(t, c2.Lines[1].Spans[0].Text, "timeout")
}
