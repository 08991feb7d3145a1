package toolsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client wraps an MCP SDK Client and ClientSession for a single MCP
// server connection. It handles connection lifecycle, tool discovery,
// and tool execution.
type Client struct {
	cfg     ServerConfig
	client  *mcp.Client
	session *mcp.ClientSession

	mu            sync.Mutex
	cachedTools   []ToolDefinition
	toolsResolved bool
}

// New creates a new Client for the given server configuration. Call
// Connect to establish the connection.
func New(cfg ServerConfig) *Client {
	return &Client{cfg: cfg}
}

// Connect establishes the MCP connection to the server, performing the
// protocol handshake.
func (c *Client) Connect(ctx context.Context) error {
	return c.ConnectWithTransport(ctx, nil)
}

// ConnectWithTransport establishes the MCP connection using the given
// transport. If transport is nil, one is built from the server config
// — this seam lets tests substitute an in-process transport.
func (c *Client) ConnectWithTransport(ctx context.Context, transport mcp.Transport) error {
	c.client = mcp.NewClient(
		&mcp.Implementation{Name: "tuichat", Version: "1.0.0"},
		&mcp.ClientOptions{Capabilities: &mcp.ClientCapabilities{}},
	)

	if transport == nil {
		t, err := c.createTransport()
		if err != nil {
			return fmt.Errorf("creating transport for %q: %w", c.cfg.Name, err)
		}
		transport = t
	}

	session, err := c.client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("connecting to MCP server %q: %w", c.cfg.Name, err)
	}
	c.session = session
	return nil
}

func (c *Client) createTransport() (mcp.Transport, error) {
	httpClient := c.buildHTTPClient()

	switch c.cfg.Transport {
	case "sse":
		t := &mcp.SSEClientTransport{Endpoint: c.cfg.URL}
		if httpClient != nil {
			t.HTTPClient = httpClient
		}
		return t, nil

	case "streamable-http", "":
		t := &mcp.StreamableClientTransport{Endpoint: c.cfg.URL}
		if httpClient != nil {
			t.HTTPClient = httpClient
		}
		return t, nil

	default:
		return nil, fmt.Errorf("unsupported transport type %q", c.cfg.Transport)
	}
}

// buildHTTPClient returns an HTTP client carrying the server's static
// headers and/or auth provider. Returns nil if neither is configured.
func (c *Client) buildHTTPClient() *http.Client {
	var authProvider AuthProvider
	if c.cfg.Auth.Type == "oauth_client_credentials" {
		authProvider = NewOAuthClientCredentials(
			c.cfg.Auth.TokenURL, c.cfg.Auth.ClientID, c.cfg.Auth.ClientSecret, c.cfg.Auth.Scopes,
		)
	}

	if len(c.cfg.Headers) == 0 && authProvider == nil {
		return nil
	}

	return &http.Client{
		Transport: &authAwareTransport{
			base:         http.DefaultTransport,
			headers:      c.cfg.Headers,
			authProvider: authProvider,
		},
	}
}

// authAwareTransport is an http.RoundTripper that adds static headers and
// dynamically obtained auth headers to every request.
type authAwareTransport struct {
	base         http.RoundTripper
	headers      map[string]string
	authProvider AuthProvider
}

func (t *authAwareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	if t.authProvider != nil {
		authHeaders, err := t.authProvider.GetHeaders(req.Context())
		if err != nil {
			return nil, fmt.Errorf("getting auth headers: %w", err)
		}
		for k, v := range authHeaders {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}

// DiscoverTools queries the MCP server for available tools and caches
// the result; subsequent calls return the cache.
func (c *Client) DiscoverTools(ctx context.Context) ([]ToolDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.toolsResolved {
		return c.cachedTools, nil
	}
	if c.session == nil {
		return nil, fmt.Errorf("MCP client %q not connected", c.cfg.Name)
	}

	var defs []ToolDefinition
	for tool, err := range c.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("listing tools from %q: %w", c.cfg.Name, err)
		}
		td, convErr := convertTool(tool)
		if convErr != nil {
			return nil, fmt.Errorf("converting tool %q from %q: %w", tool.Name, c.cfg.Name, convErr)
		}
		defs = append(defs, td)
	}

	c.cachedTools = defs
	c.toolsResolved = true
	return defs, nil
}

// CallTool executes a tool call on the MCP server and returns the
// result. MCP transport and protocol errors surface as an IsError
// Result rather than a Go error, matching spec.md §7's "MCP tool
// errors are surfaced in-band, not raised" taxonomy entry — only a
// client not yet connected is a programmer error worth a Go error.
func (c *Client) CallTool(ctx context.Context, call Call) (*Result, error) {
	if c.session == nil {
		return nil, fmt.Errorf("MCP client %q not connected", c.cfg.Name)
	}

	var args map[string]any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return &Result{CallID: call.ID, Output: fmt.Sprintf("invalid arguments JSON: %v", err), IsError: true}, nil
		}
	}

	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: call.Name, Arguments: args})
	if err != nil {
		return &Result{CallID: call.ID, Output: fmt.Sprintf("MCP tool call error: %v", err), IsError: true}, nil
	}

	return convertResult(call.ID, result), nil
}

// Close closes the MCP session.
func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func convertTool(t *mcp.Tool) (ToolDefinition, error) {
	var params json.RawMessage
	if t.InputSchema != nil {
		data, err := json.Marshal(t.InputSchema)
		if err != nil {
			return ToolDefinition{}, fmt.Errorf("marshaling input schema: %w", err)
		}
		params = data
	}
	return ToolDefinition{Name: t.Name, Description: t.Description, Parameters: params}, nil
}

func convertResult(callID string, result *mcp.CallToolResult) *Result {
	var output string
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			if output != "" {
				output += "\n"
			}
			output += tc.Text
		}
	}
	return &Result{CallID: callID, Output: output, IsError: result.IsError}
}
