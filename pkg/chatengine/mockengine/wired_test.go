package mockengine

import (
	"context"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/relaycode/tuichat/pkg/chatengine"
	"github.com/relaycode/tuichat/pkg/history"
	"github.com/relaycode/tuichat/pkg/termrun"
	"github.com/relaycode/tuichat/pkg/termrun/localpty"
	"github.com/relaycode/tuichat/pkg/toolsclient"
)

// TestMockEngine_RunCommandExecutesViaPool verifies that a pool-backed
// Engine runs "run <cmd>" as a real Terminal Run rather than
// fabricating its output, through a live localpty.Backend subprocess.
func TestMockEngine_RunCommandExecutesViaPool(t *testing.T) {
	uiEvents := make(chan termrun.Event, 64)
	go func() {
		for range uiEvents {
		}
	}()
	pool := termrun.NewPool(uiEvents, nil)

	eng := NewWithTools("mock-model", pool, localpty.New(), nil)
	defer eng.Close()

	require.NoError(t, eng.Submit(context.Background(), chatengine.Submit{Text: "run echo hello-from-pool"}))

	require.Equal(t, chatengine.EvSessionConfigured, next(t, eng).Kind)
	require.Equal(t, chatengine.EvExecStart, next(t, eng).Kind)

	var output []byte
	for {
		ev := next(t, eng)
		if ev.Kind == chatengine.EvExecChunk {
			output = append(output, ev.ExecChunk.Bytes...)
			continue
		}
		require.Equal(t, chatengine.EvExecEnd, ev.Kind)
		require.Equal(t, history.ExecSuccess, ev.ExecEnd.Status)
		break
	}
	require.Contains(t, string(output), "hello-from-pool")
}

// TestMockEngine_WeatherRoutesThroughToolsRegistry verifies that a
// Registry-backed Engine executes the scripted weather tool call
// against a live (in-memory transport) MCP server rather than
// fabricating its result.
func TestMockEngine_WeatherRoutesThroughToolsRegistry(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "test-server", Version: "1.0.0"}, nil)
	server.AddTool(
		&mcp.Tool{Name: "get_weather", Description: "current weather", InputSchema: map[string]any{"type": "object"}},
		func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "62F and sunny"}}}, nil
		},
	)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = server.Run(ctx, serverTransport) }()

	client := toolsclient.New(toolsclient.ServerConfig{Name: "test-server"})
	require.NoError(t, client.ConnectWithTransport(ctx, clientTransport))
	defer client.Close()

	registry := toolsclient.NewRegistry(map[string]*toolsclient.Client{"test-server": client}, nil)
	defer registry.Close()

	eng := NewWithTools("mock-model", nil, nil, registry)
	defer eng.Close()

	require.NoError(t, eng.Submit(context.Background(), chatengine.Submit{Text: "what's the weather?"}))

	events := drain(t, eng, 1+2+3+1) // SessionConfigured, ToolStart, ToolEnd, "62F and sunny" (3 words), final
	require.Equal(t, chatengine.EvToolStart, events[1].Kind)
	require.Equal(t, chatengine.EvToolEnd, events[2].Kind)
	require.Equal(t, history.ToolSuccess, events[2].ToolEnd.Status)
	require.Equal(t, "62F and sunny", events[2].ToolEnd.Result)
	require.Equal(t, chatengine.EvAssistantFinal, events[len(events)-1].Kind)
	require.Equal(t, "62F and sunny", events[len(events)-1].AssistantFinal.Markdown)
}

// TestMockEngine_WeatherWithNoToolServerFailsInBand verifies that an
// unroutable tool call surfaces as a failed ToolEnd rather than
// aborting Submit, per spec.md §7's in-band MCP error handling.
func TestMockEngine_WeatherWithNoToolServerFailsInBand(t *testing.T) {
	registry := toolsclient.NewRegistry(map[string]*toolsclient.Client{}, nil)
	defer registry.Close()

	eng := NewWithTools("mock-model", nil, nil, registry)
	defer eng.Close()

	require.NoError(t, eng.Submit(context.Background(), chatengine.Submit{Text: "what's the weather?"}))

	require.Equal(t, chatengine.EvSessionConfigured, next(t, eng).Kind)
	require.Equal(t, chatengine.EvToolStart, next(t, eng).Kind)
	toolEnd := next(t, eng)
	require.Equal(t, chatengine.EvToolEnd, toolEnd.Kind)
	require.Equal(t, history.ToolFailed, toolEnd.ToolEnd.Status)
}

func next(t *testing.T, eng *Engine) chatengine.Event {
	t.Helper()
	select {
	case ev := <-eng.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return chatengine.Event{}
	}
}
