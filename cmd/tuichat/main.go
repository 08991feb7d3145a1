// Command tuichat is the terminal chat client: it wires the History
// Store, Domain Event Applier, Engine boundary, and Renderer Surface
// together into a runnable session, persisting the conversation to a
// local JSON session file across restarts.
//
// Usage:
//
//	tuichat [--config path/to/tuichat.yaml]
//
// Settings follow pkg/config's layered load order (defaults, YAML
// file, TUICHAT_* env vars, _file secret refs). session_store.type
// "file" persists via a single history.Snapshot JSON file at
// session_store.file_path; "memory" (the default) does not persist
// across restarts. The Engine is pkg/chatengine/mockengine's scripted
// responder, wired to a real Terminal Run Pool (pkg/termrun, over the
// pkg/termrun/localpty backend) for "run <cmd>" submissions and to a
// pkg/toolsclient Registry over mcp.servers for tool-shaped ones;
// engine.kind=http is reserved for a provider-backed Engine, not yet
// implemented (see DESIGN.md).
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relaycode/tuichat/pkg/cell"
	"github.com/relaycode/tuichat/pkg/chatengine"
	"github.com/relaycode/tuichat/pkg/chatengine/mockengine"
	"github.com/relaycode/tuichat/pkg/config"
	"github.com/relaycode/tuichat/pkg/debug"
	"github.com/relaycode/tuichat/pkg/dispatch"
	"github.com/relaycode/tuichat/pkg/domain"
	"github.com/relaycode/tuichat/pkg/fork"
	"github.com/relaycode/tuichat/pkg/history"
	"github.com/relaycode/tuichat/pkg/render"
	"github.com/relaycode/tuichat/pkg/termrun"
	"github.com/relaycode/tuichat/pkg/termrun/localpty"
	"github.com/relaycode/tuichat/pkg/toolsclient"
)

// kindEngineEvent tags a dispatch.Event carrying a chatengine.Event
// payload, queued at bulk priority alongside other streamed output.
const kindEngineEvent dispatch.Kind = "engine_event"

func main() {
	configPath := flag.String("config", "", "path to a tuichat YAML config file")
	flag.Parse()

	log := slog.Default()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tuichat: %v\n", err)
		os.Exit(1)
	}

	debug.Init(os.Getenv("TUICHAT_DEBUG"), os.Getenv("TUICHAT_LOG_LEVEL"))

	if cfg.Engine.Kind != "mock" {
		fmt.Fprintf(os.Stderr, "tuichat: engine.kind %q not yet supported, falling back to mock\n", cfg.Engine.Kind)
	}

	store := history.New(log)
	applier := domain.New(store, log)
	runtime := chatengine.NewRuntime(store, applier, log)
	ghosts := fork.NewGhostRing(8)
	disp := dispatch.New()

	if cfg.SessionStore.Type == "file" && cfg.SessionStore.FilePath != "" {
		loadSession(cfg.SessionStore.FilePath, store, log)
	}

	termEvents := make(chan termrun.Event, 64)
	go func() {
		for range termEvents {
			// Pool-wide lifecycle feed; execViaPool consumes per-run
			// events off its own controller channel, so nothing here
			// needs forwarding to the dispatcher.
		}
	}()
	pool := termrun.NewPool(termEvents, log)
	backend := localpty.New()

	tools := newToolsRegistry(*cfg, log)
	if tools != nil {
		defer tools.Close()
	}

	engine := mockengine.NewWithTools(cfg.Engine.DefaultModel, pool, backend, tools)
	defer engine.Close()

	surface := newSurface(*cfg)

	if cfg.Observability.Metrics.Enabled {
		startMetricsServer(*cfg, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Forward the Engine's wire events onto the dispatcher's bulk queue,
	// and stop the queue once either side closes.
	go func() {
		for ev := range engine.Events() {
			disp.Queue.PostBulk(dispatch.Event{Kind: kindEngineEvent, Payload: ev})
		}
	}()
	go func() {
		<-ctx.Done()
		disp.Queue.PostHigh(dispatch.Event{Kind: dispatch.KindExitRequest})
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			ev, ok := disp.Next()
			if !ok || ev.Kind == dispatch.KindExitRequest {
				return
			}
			if ev.Kind != kindEngineEvent {
				continue
			}
			mutation := runtime.Apply(ev.Payload.(chatengine.Event))
			redraw(surface, store, mutation)
		}
	}()

	fmt.Fprintln(os.Stderr, "tuichat ready; type a message and press enter (Ctrl+D or Ctrl+C to quit)")
	scanner := bufio.NewScanner(os.Stdin)
	go func() {
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			switch {
			case text == "":
				continue
			case text == "/fork":
				g := runtime.CaptureGhost("", false, cfg.Render.Theme)
				ghosts.Push(g)
				fmt.Fprintln(os.Stderr, "ghost state captured; use /jumpback to restore it")
			case text == "/jumpback":
				if g, ok := ghosts.Pop(); ok {
					store.Restore(g.History)
					fmt.Fprintln(os.Stderr, "jumped back to prior ghost state")
				} else {
					fmt.Fprintln(os.Stderr, "no ghost state to jump back to")
				}
			default:
				if err := engine.Submit(context.Background(), chatengine.Submit{Text: text}); err != nil {
					fmt.Fprintf(os.Stderr, "submit error: %v\n", err)
				}
			}
		}
		stop()
	}()

	<-ctx.Done()
	<-done

	if cfg.SessionStore.Type == "file" && cfg.SessionStore.FilePath != "" {
		saveSession(cfg.SessionStore.FilePath, store, log)
	}
}

// themeByName resolves a render.Theme by config name, falling back to
// the zero-value (no escape sequences) theme for an unknown name.
func themeByName(name string) render.Theme {
	switch name {
	case "light":
		return render.Theme{Name: "light", Foreground: "38;5;235", Background: "48;5;255"}
	case "dark":
		return render.Theme{Name: "dark", Foreground: "38;5;250", Background: "48;5;234"}
	default:
		return render.Theme{Name: name}
	}
}

func newSurface(cfg config.Config) *render.Surface {
	width, height, ok := render.Size()
	if !ok {
		width, height = 80, 24
	}
	mode := render.ModeStandard
	if cfg.Render.AltScreenDefault {
		mode = render.ModeAltScreen
	}
	return render.NewSurface(os.Stdout, mode, width, height, cfg.Render.ComposerRows, themeByName(cfg.Render.Theme))
}

// startMetricsServer runs a Prometheus diagnostics endpoint in the
// background, separate from the terminal's stdout/stdin pair. It never
// blocks the run loop; a listener failure is logged, not fatal, since
// the chat session should still work without metrics.
func startMetricsServer(cfg config.Config, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())

	srv := &http.Server{Addr: cfg.Observability.Metrics.Addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server stopped", "error", err)
		}
	}()
	log.Info("metrics endpoint enabled", "addr", cfg.Observability.Metrics.Addr, "path", cfg.Observability.Metrics.Path)
}

// newToolsRegistry connects a toolsclient.Registry over every MCP
// server in cfg.MCP.Servers. Returns nil if none are configured, in
// which case mockengine falls back to its canned tool-call script. A
// connection failure is logged, not fatal: CanExecute then reports
// false for every tool and the scripted tool call surfaces that as an
// in-band ToolEnd failure rather than aborting the session.
func newToolsRegistry(cfg config.Config, log *slog.Logger) *toolsclient.Registry {
	if len(cfg.MCP.Servers) == 0 {
		return nil
	}

	clients := make(map[string]*toolsclient.Client, len(cfg.MCP.Servers))
	for _, sc := range cfg.MCP.Servers {
		clients[sc.Name] = toolsclient.New(toolsClientConfig(sc))
	}
	registry := toolsclient.NewRegistry(clients, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := registry.ConnectAll(ctx); err != nil {
		log.Warn("failed to connect MCP servers", "error", err)
	}
	return registry
}

func toolsClientConfig(sc config.MCPServerConfig) toolsclient.ServerConfig {
	return toolsclient.ServerConfig{
		Name:      sc.Name,
		Transport: sc.Transport,
		URL:       sc.URL,
		Headers:   sc.Headers,
		Auth: toolsclient.AuthConfig{
			Type:         sc.Auth.Type,
			TokenURL:     sc.Auth.TokenURL,
			ClientID:     sc.Auth.ClientID,
			ClientSecret: sc.Auth.ClientSecret,
			Scopes:       sc.Auth.Scopes,
		},
	}
}

func redraw(surface *render.Surface, store *history.Store, mutation history.HistoryMutation) {
	if mutation.Kind == history.MutationNoop {
		return
	}
	rec, ok := store.RecordByID(mutation.ID)
	if !ok {
		return
	}
	surface.InsertHistoryLines(cell.Build(rec))
}

// sessionFile is the on-disk shape session_store.type=file round-trips:
// just the History Store snapshot, independent of pkg/sessionstore's
// Conversation (which additionally carries workspace/model metadata
// for a server-hosted multi-conversation deployment this single-file
// CLI mode does not need).
type sessionFile struct {
	History history.Snapshot `json:"history"`
}

func loadSession(path string, store *history.Store, log *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("failed to read session file", "path", path, "error", err)
		}
		return
	}
	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		log.Warn("failed to parse session file", "path", path, "error", err)
		return
	}
	store.Restore(sf.History)
}

func saveSession(path string, store *history.Store, log *slog.Logger) {
	sf := sessionFile{History: store.Snapshot()}
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		log.Warn("failed to marshal session", "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.Warn("failed to write session file", "path", path, "error", err)
	}
}
