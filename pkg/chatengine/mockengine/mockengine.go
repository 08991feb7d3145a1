// Package mockengine is a deterministic, in-process chatengine.Engine
// for development and conformance testing, the chatengine-boundary
// analogue of cmd/mock-backend's canned Chat Completions responses:
// request content is classified and a fixed, predictable event
// sequence is emitted instead of calling a real model provider.
package mockengine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/relaycode/tuichat/pkg/chatengine"
	"github.com/relaycode/tuichat/pkg/history"
	"github.com/relaycode/tuichat/pkg/termrun"
	"github.com/relaycode/tuichat/pkg/toolsclient"
)

// Engine is a scripted chatengine.Engine. Zero value is not usable;
// construct with New or NewWithTools.
type Engine struct {
	events chan chatengine.Event
	model  string

	pool    *termrun.Pool
	backend termrun.Backend
	tools   *toolsclient.Registry

	mu        sync.Mutex
	cancelled bool
	closed    bool
}

var _ chatengine.Engine = (*Engine)(nil)

// New creates a mock Engine that announces model as its configured
// model on the first Submit. "run <cmd>" and tool-shaped submissions
// are answered with canned, fixed output.
func New(model string) *Engine {
	return &Engine{
		events: make(chan chatengine.Event, 16),
		model:  model,
	}
}

// NewWithTools creates a mock Engine whose scripted exec/tool-call
// paths are backed by real collaborators: "run <cmd>" submissions are
// executed through pool on backend (a live Terminal Run), and
// tool-shaped submissions are routed through a connected MCP tools
// Registry. A nil pool or tools falls back to New's canned behavior
// for that path.
func NewWithTools(model string, pool *termrun.Pool, backend termrun.Backend, tools *toolsclient.Registry) *Engine {
	e := New(model)
	e.pool, e.backend, e.tools = pool, backend, tools
	return e
}

func (e *Engine) Events() <-chan chatengine.Event { return e.events }

// Submit classifies text and emits a scripted response: an exec for
// "run <cmd>", a get_weather tool call for text mentioning "weather",
// and a streamed assistant reply otherwise. Matches the classify-then-script shape of
// cmd/mock-backend's classifyAndRespond, adapted from HTTP chat
// completions shapes to the chatengine event catalog.
func (e *Engine) Submit(ctx context.Context, op chatengine.Submit) error {
	e.emit(chatengine.Event{Kind: chatengine.EvSessionConfigured, SessionConfigured: &chatengine.SessionConfigured{Model: e.model}})

	switch {
	case strings.HasPrefix(op.Text, "run "):
		e.scriptExec(strings.TrimPrefix(op.Text, "run "))
	case strings.Contains(strings.ToLower(op.Text), "weather"):
		e.scriptToolCall()
	default:
		e.scriptAssistantReply(op.Text)
	}
	return nil
}

func (e *Engine) scriptExec(command string) {
	if e.pool == nil || e.backend == nil {
		e.scriptExecCanned(command)
		return
	}
	e.execViaPool(command)
}

func (e *Engine) scriptExecCanned(command string) {
	callID := "call_exec_1"
	e.emit(chatengine.Event{Kind: chatengine.EvExecStart, ExecStart: &chatengine.ExecStart{
		CallID: callID, Argv: strings.Fields(command), Parsed: command,
		Action: history.ExecActionRun, StartedAt: time.Now(),
	}})
	e.emit(chatengine.Event{Kind: chatengine.EvExecChunk, ExecChunk: &chatengine.ExecChunk{
		CallID: callID, Stream: chatengine.ExecStreamStdout, Offset: 0, Bytes: []byte(fmt.Sprintf("running: %s\n", command)),
	}})
	exit := 0
	e.emit(chatengine.Event{Kind: chatengine.EvExecEnd, ExecEnd: &chatengine.ExecEnd{
		CallID: callID, Status: history.ExecSuccess, ExitCode: &exit, CompletedAt: time.Now(),
	}})
}

// execViaPool runs command as a real Terminal Run through e.pool,
// translating its stdout/stderr/exit events into the same ExecStart/
// ExecChunk/ExecEnd sequence scriptExecCanned fabricates, so the
// renderer and domain applier see an identical shape either way.
func (e *Engine) execViaPool(command string) {
	argv := strings.Fields(command)
	callID := fmt.Sprintf("call_exec_%d", time.Now().UnixNano())
	e.emit(chatengine.Event{Kind: chatengine.EvExecStart, ExecStart: &chatengine.ExecStart{
		CallID: callID, Argv: argv, Parsed: command,
		Action: history.ExecActionRun, StartedAt: time.Now(),
	}})

	ctrl := make(chan termrun.Event, 64)
	runID := e.pool.Start(context.Background(), e.backend, argv, 0, 0, ctrl)
	defer e.pool.ForceClose(runID)

	for ev := range ctrl {
		switch ev.Kind {
		case termrun.EventStdoutChunk:
			e.emit(chatengine.Event{Kind: chatengine.EvExecChunk, ExecChunk: &chatengine.ExecChunk{
				CallID: callID, Stream: chatengine.ExecStreamStdout, Offset: ev.Offset, Bytes: ev.Content,
			}})
		case termrun.EventStderrChunk:
			e.emit(chatengine.Event{Kind: chatengine.EvExecChunk, ExecChunk: &chatengine.ExecChunk{
				CallID: callID, Stream: chatengine.ExecStreamStderr, Offset: ev.Offset, Bytes: ev.Content,
			}})
		case termrun.EventExit:
			status := history.ExecSuccess
			if ev.ExitCode == nil || *ev.ExitCode != 0 {
				status = history.ExecError
			}
			e.emit(chatengine.Event{Kind: chatengine.EvExecEnd, ExecEnd: &chatengine.ExecEnd{
				CallID: callID, Status: status, ExitCode: ev.ExitCode, CompletedAt: time.Now(),
			}})
			return
		}
	}
}

func (e *Engine) scriptToolCall() {
	if e.tools == nil {
		e.scriptToolCallCanned()
		return
	}
	e.toolCallViaRegistry()
}

func (e *Engine) scriptToolCallCanned() {
	callID := "call_tool_1"
	e.emit(chatengine.Event{Kind: chatengine.EvToolStart, ToolStart: &chatengine.ToolStart{
		CallID: callID, Name: "get_weather", ArgsJSON: `{"location":"San Francisco"}`, StartedAt: time.Now(),
	}})
	e.emit(chatengine.Event{Kind: chatengine.EvToolEnd, ToolEnd: &chatengine.ToolEnd{
		CallID: callID, Status: history.ToolSuccess, Duration: 50 * time.Millisecond, Result: "62F and sunny",
	}})
	e.streamReply("It's 62F and sunny in San Francisco.", nil)
}

// toolCallViaRegistry routes the scripted "get_weather" call through a
// connected MCP Registry instead of fabricating its result, per
// spec.md §7's "MCP tool errors are surfaced in-band" taxonomy: a
// server that can't serve the tool, or a call it fails, both resolve
// to a ToolEnd with Status ToolFailed rather than a Submit error.
func (e *Engine) toolCallViaRegistry() {
	call := toolsclient.Call{
		ID:        fmt.Sprintf("call_tool_%d", time.Now().UnixNano()),
		Name:      "get_weather",
		Arguments: `{"location":"San Francisco"}`,
	}
	started := time.Now()
	e.emit(chatengine.Event{Kind: chatengine.EvToolStart, ToolStart: &chatengine.ToolStart{
		CallID: call.ID, Name: call.Name, ArgsJSON: call.Arguments, StartedAt: started,
	}})

	if !e.tools.CanExecute(call.Name) {
		e.emit(chatengine.Event{Kind: chatengine.EvToolEnd, ToolEnd: &chatengine.ToolEnd{
			CallID: call.ID, Status: history.ToolFailed, Duration: time.Since(started),
			Result: fmt.Sprintf("no MCP server provides tool %q", call.Name),
		}})
		e.streamReply("I couldn't reach a tool server for that.", nil)
		return
	}

	result, err := e.tools.Execute(context.Background(), call)
	duration := time.Since(started)
	if err != nil {
		e.emit(chatengine.Event{Kind: chatengine.EvToolEnd, ToolEnd: &chatengine.ToolEnd{
			CallID: call.ID, Status: history.ToolFailed, Duration: duration, Result: err.Error(),
		}})
		e.streamReply("The tool call failed.", nil)
		return
	}
	if result.IsError {
		e.emit(chatengine.Event{Kind: chatengine.EvToolEnd, ToolEnd: &chatengine.ToolEnd{
			CallID: call.ID, Status: history.ToolFailed, Duration: duration, Result: result.Output,
		}})
		e.streamReply("The tool call failed.", nil)
		return
	}

	e.emit(chatengine.Event{Kind: chatengine.EvToolEnd, ToolEnd: &chatengine.ToolEnd{
		CallID: call.ID, Status: history.ToolSuccess, Duration: duration, Result: result.Output,
	}})
	usage := &history.TokenUsage{OutputTokens: int64(len(result.Output)), TotalTokens: int64(len(result.Output))}
	e.streamReply(result.Output, usage)
}

// scriptAssistantReply classifies prompt (the free-text Submit.Text)
// and streams one of a small fixed set of replies.
func (e *Engine) scriptAssistantReply(prompt string) {
	reply := "Hello, nice day!"
	if strings.Contains(strings.ToLower(prompt), "count from 1 to 5") {
		reply = "1, 2, 3, 4, 5"
	}
	usage := &history.TokenUsage{InputTokens: int64(len(prompt)), OutputTokens: int64(len(reply)), TotalTokens: int64(len(prompt) + len(reply))}
	e.streamReply(reply, usage)
}

// streamReply emits reply verbatim as a sequence of AssistantDelta
// events followed by an AssistantFinal, used both by scriptAssistantReply
// and by callers (the tool-call and exec scripts) that already know
// the exact text to show rather than a prompt to classify.
func (e *Engine) streamReply(reply string, usage *history.TokenUsage) {
	streamID := fmt.Sprintf("stream_%d", time.Now().UnixNano())
	for _, word := range strings.Fields(reply) {
		e.emit(chatengine.Event{Kind: chatengine.EvAssistantDelta, AssistantDelta: &chatengine.AssistantDelta{
			StreamID: streamID, Text: word + " ",
		}})
	}
	e.emit(chatengine.Event{Kind: chatengine.EvAssistantFinal, AssistantFinal: &chatengine.AssistantFinal{
		StreamID: streamID, Markdown: reply, TokenUsage: usage,
	}})
}

func (e *Engine) AddToHistory(ctx context.Context, op chatengine.AddToHistory) error {
	e.emit(chatengine.Event{Kind: chatengine.EvBackgroundEvent, BackgroundEvent: &chatengine.BackgroundEvent{Description: op.Text}})
	return nil
}

func (e *Engine) Cancel(ctx context.Context) error {
	e.mu.Lock()
	e.cancelled = true
	e.mu.Unlock()
	return nil
}

func (e *Engine) Compact(ctx context.Context) error {
	e.emit(chatengine.Event{Kind: chatengine.EvBackgroundEvent, BackgroundEvent: &chatengine.BackgroundEvent{
		Title: "Compact", Description: "conversation compacted (mock)",
	}})
	return nil
}

func (e *Engine) ApplyPatch(ctx context.Context, op chatengine.ApplyPatch) error {
	kind := history.PatchApplySuccess
	if op.Decision == chatengine.PatchReject {
		kind = history.PatchApplyFailure
	}
	e.emit(chatengine.Event{Kind: chatengine.EvPatchEvent, PatchEvent: &chatengine.PatchEvent{Kind: kind}})
	return nil
}

func (e *Engine) RegisterApprovedCommand(ctx context.Context, op chatengine.RegisterApprovedCommand) error {
	return nil
}

// Fork returns a fresh mock Engine seeded with nothing beyond the
// parent's model and collaborators: the mock engine has no real
// conversation state to carry forward, so prefix_items are
// acknowledged but discarded. The Terminal Run Pool and tools
// Registry are shared with the parent rather than recreated, since
// both are stateless from the Engine's point of view.
func (e *Engine) Fork(ctx context.Context, op chatengine.Fork) (chatengine.Engine, error) {
	return NewWithTools(e.model, e.pool, e.backend, e.tools), nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.events)
	return nil
}

func (e *Engine) emit(ev chatengine.Event) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return
	}
	e.events <- ev
}
