package toolsclient

import (
	"encoding/json"
	"time"

	"github.com/relaycode/tuichat/pkg/history"
)

// ToolDefinition describes a tool an MCP server offers, in the shape
// the engine needs to advertise it to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Call is an invocation of a named tool with JSON-encoded arguments.
type Call struct {
	ID        string
	Name      string
	Arguments string // raw JSON object, as produced by the model
}

// Result is what a tool invocation produced: either textual output or
// an error surfaced as output with IsError set.
type Result struct {
	CallID  string
	Output  string
	IsError bool
}

// ToRunningTool converts an in-flight call into the History Store's
// RunningTool record, started now.
func ToRunningTool(call Call, now time.Time) history.RunningTool {
	return history.RunningTool{
		CallID:    call.ID,
		Title:     call.Name,
		StartedAt: now,
		Arguments: []string{call.Arguments},
	}
}

// ToToolCall converts a finished call and its result into the History
// Store's completed ToolCall record, per spec.md §6.1's ToolEnd event.
func ToToolCall(call Call, result Result, duration time.Duration) history.ToolCall {
	tc := history.ToolCall{
		CallID:    call.ID,
		Title:     call.Name,
		Duration:  duration,
		Arguments: []string{call.Arguments},
	}
	if result.IsError {
		tc.Status = history.ToolFailed
		tc.ErrorMessage = result.Output
	} else {
		tc.Status = history.ToolSuccess
		tc.ResultPreview = truncatePreview(result.Output, 2000)
	}
	return tc
}

// truncatePreview caps a result preview to n runes, marking truncation.
func truncatePreview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
