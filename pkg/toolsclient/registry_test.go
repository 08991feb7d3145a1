package toolsclient

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestRegistry_MultiServerRouting(t *testing.T) {
	clientA := setupTestServer(t, map[string]mcp.ToolHandler{
		"tool_a": func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "from server A"}}}, nil
		},
	})
	clientB := setupTestServer(t, map[string]mcp.ToolHandler{
		"tool_b": func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "from server B"}}}, nil
		},
	})

	reg := NewRegistry(map[string]*Client{"server-a": clientA, "server-b": clientB}, nil)
	defer reg.Close()

	if !reg.CanExecute("tool_a") || !reg.CanExecute("tool_b") {
		t.Fatal("expected both tools discoverable")
	}
	if reg.CanExecute("tool_c") {
		t.Fatal("expected tool_c to be unknown")
	}

	resultA, err := reg.Execute(context.Background(), Call{ID: "call_a", Name: "tool_a"})
	if err != nil {
		t.Fatalf("Execute tool_a failed: %v", err)
	}
	if resultA.Output != "from server A" {
		t.Errorf("tool_a output = %q, want %q", resultA.Output, "from server A")
	}

	resultB, err := reg.Execute(context.Background(), Call{ID: "call_b", Name: "tool_b"})
	if err != nil {
		t.Fatalf("Execute tool_b failed: %v", err)
	}
	if resultB.Output != "from server B" {
		t.Errorf("tool_b output = %q, want %q", resultB.Output, "from server B")
	}
}

func TestRegistry_UnknownToolIsErrorNotGoError(t *testing.T) {
	client := setupTestServer(t, map[string]mcp.ToolHandler{
		"known_tool": func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "ok"}}}, nil
		},
	})

	reg := NewRegistry(map[string]*Client{"test-server": client}, nil)
	defer reg.Close()

	result, err := reg.Execute(context.Background(), Call{ID: "call_unknown", Name: "nonexistent_tool"})
	if err != nil {
		t.Fatalf("Execute returned unexpected Go error: %v", err)
	}
	if !result.IsError {
		t.Error("expected IsError=true for unknown tool")
	}
}

func TestRegistry_DiscoveredTools(t *testing.T) {
	client := setupTestServer(t, map[string]mcp.ToolHandler{
		"get_weather": func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "sunny"}}}, nil
		},
		"get_time": func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "12:00"}}}, nil
		},
	})

	reg := NewRegistry(map[string]*Client{"test-server": client}, nil)
	defer reg.Close()

	defs := reg.DiscoveredTools()
	if len(defs) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(defs))
	}
}
