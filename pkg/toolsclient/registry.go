package toolsclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Registry manages connections to multiple MCP servers, discovers
// their tools, and routes a named tool call to whichever server
// provides it.
type Registry struct {
	mu sync.RWMutex

	clients      map[string]*Client
	toolToServer map[string]string
	discovered   bool

	log *slog.Logger
}

// NewRegistry creates a Registry over the given named clients. Use
// Connect (per client) before calling Execute.
func NewRegistry(clients map[string]*Client, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		clients:      clients,
		toolToServer: make(map[string]string),
		log:          log,
	}
}

// ConnectAll connects every configured client, returning on the first error.
func (r *Registry) ConnectAll(ctx context.Context) error {
	for name, client := range r.clients {
		if err := client.Connect(ctx); err != nil {
			return fmt.Errorf("connecting to MCP server %q: %w", name, err)
		}
	}
	return nil
}

// CanExecute reports whether any connected server provides the named
// tool, triggering lazy discovery on first use.
func (r *Registry) CanExecute(toolName string) bool {
	r.ensureDiscovered()

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.toolToServer[toolName]
	return ok
}

// Execute routes call to the server that provides it and returns the result.
func (r *Registry) Execute(ctx context.Context, call Call) (*Result, error) {
	r.ensureDiscovered()

	r.mu.RLock()
	serverName, ok := r.toolToServer[call.Name]
	if !ok {
		r.mu.RUnlock()
		return &Result{CallID: call.ID, Output: fmt.Sprintf("no MCP server provides tool %q", call.Name), IsError: true}, nil
	}
	client := r.clients[serverName]
	r.mu.RUnlock()

	return client.CallTool(ctx, call)
}

// DiscoveredTools returns every tool discovered across connected servers.
func (r *Registry) DiscoveredTools() []ToolDefinition {
	r.ensureDiscovered()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []ToolDefinition
	for _, client := range r.clients {
		client.mu.Lock()
		all = append(all, client.cachedTools...)
		client.mu.Unlock()
	}
	return all
}

// Close closes every client connection, returning the last error seen.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for name, client := range r.clients {
		if err := client.Close(); err != nil {
			r.log.Warn("failed to close MCP client", "server", name, "error", err)
			lastErr = err
		}
	}
	return lastErr
}

func (r *Registry) ensureDiscovered() {
	r.mu.RLock()
	if r.discovered {
		r.mu.RUnlock()
		return
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.discovered {
		return
	}

	ctx := context.Background()
	for name, client := range r.clients {
		defs, err := client.DiscoverTools(ctx)
		if err != nil {
			r.log.Error("failed to discover tools from MCP server", "server", name, "error", err)
			continue
		}
		for _, td := range defs {
			if _, exists := r.toolToServer[td.Name]; exists {
				r.log.Warn("duplicate MCP tool name, using first provider", "tool", td.Name, "server", name)
				continue
			}
			r.toolToServer[td.Name] = name
		}
		r.log.Info("discovered MCP tools", "server", name, "count", len(defs))
	}

	r.discovered = true
}
