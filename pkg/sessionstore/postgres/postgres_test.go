package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/relaycode/tuichat/pkg/fork"
	"github.com/relaycode/tuichat/pkg/history"
	"github.com/relaycode/tuichat/pkg/sessionstore"
)

func init() {
	// Configure testcontainers to use podman.
	// Detect the podman socket from `podman machine inspect`.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	// Ryuk needs privileged mode with podman.
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if podman is not installed or the container does not
// start.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}

	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("tuichat_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}

	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func makeTestConversation(id string, updatedAt time.Time) *sessionstore.Conversation {
	return &sessionstore.Conversation{
		ID:    id,
		Model: "test-model",
		History: history.Snapshot{
			NextID:         3,
			ExecCallLookup: map[string]int64{"call_1": 2},
		},
		Ghosts: []fork.GhostState{
			{ComposerText: "draft", AltScreen: true, Theme: "dark"},
		},
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
}

func TestPostgres_SaveAndGet(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	id := "conv_pg_test1_" + fmt.Sprintf("%d", time.Now().UnixNano())
	conv := makeTestConversation(id, time.Now())
	if err := store.SaveConversation(ctx, conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	got, err := store.GetConversation(ctx, id)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if got.Model != "test-model" {
		t.Errorf("Model = %q, want %q", got.Model, "test-model")
	}
	if got.History.NextID != 3 {
		t.Errorf("History.NextID = %d, want 3", got.History.NextID)
	}
	if got.History.ExecCallLookup["call_1"] != 2 {
		t.Errorf("History.ExecCallLookup[call_1] = %d, want 2", got.History.ExecCallLookup["call_1"])
	}
	if len(got.Ghosts) != 1 || got.Ghosts[0].ComposerText != "draft" {
		t.Errorf("Ghosts = %+v, want one ghost with ComposerText=draft", got.Ghosts)
	}
}

func TestPostgres_GetNotFound(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	_, err := store.GetConversation(ctx, "conv_nonexistent")
	if !errors.Is(err, sessionstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_SaveUpserts(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	id := "conv_pg_upsert_" + fmt.Sprintf("%d", time.Now().UnixNano())
	store.SaveConversation(ctx, makeTestConversation(id, time.Now()))

	updated := makeTestConversation(id, time.Now())
	updated.Model = "new-model"
	if err := store.SaveConversation(ctx, updated); err != nil {
		t.Fatalf("upsert save failed: %v", err)
	}

	got, err := store.GetConversation(ctx, id)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if got.Model != "new-model" {
		t.Errorf("Model = %q, want %q", got.Model, "new-model")
	}
}

func TestPostgres_SoftDelete(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	id := "conv_pg_del_" + fmt.Sprintf("%d", time.Now().UnixNano())
	store.SaveConversation(ctx, makeTestConversation(id, time.Now()))

	if err := store.DeleteConversation(ctx, id); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}

	if _, err := store.GetConversation(ctx, id); !errors.Is(err, sessionstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestPostgres_WorkspaceIsolation(t *testing.T) {
	store := setupTestDB(t)

	id := "conv_pg_workspace_" + fmt.Sprintf("%d", time.Now().UnixNano())
	ctxA := sessionstore.SetWorkspace(context.Background(), "workspace-a")
	ctxB := sessionstore.SetWorkspace(context.Background(), "workspace-b")

	store.SaveConversation(ctxA, makeTestConversation(id, time.Now()))

	if _, err := store.GetConversation(ctxA, id); err != nil {
		t.Fatalf("workspace A should see own conversation: %v", err)
	}

	if _, err := store.GetConversation(ctxB, id); !errors.Is(err, sessionstore.ErrNotFound) {
		t.Error("workspace B should not see workspace A's conversation")
	}

	if _, err := store.GetConversation(context.Background(), id); err != nil {
		t.Fatalf("no-workspace should see all: %v", err)
	}
}

func TestPostgres_ListConversations_NewestFirstWithCursor(t *testing.T) {
	store := setupTestDB(t)
	ws := "workspace-list-" + fmt.Sprintf("%d", time.Now().UnixNano())
	ctx := sessionstore.SetWorkspace(context.Background(), ws)

	base := time.Now()
	store.SaveConversation(ctx, makeTestConversation("conv_a", base))
	store.SaveConversation(ctx, makeTestConversation("conv_b", base.Add(time.Second)))
	store.SaveConversation(ctx, makeTestConversation("conv_c", base.Add(2*time.Second)))

	page1, cursor, err := store.ListConversations(ctx, "", 2)
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(page1) != 2 || page1[0].ID != "conv_c" || page1[1].ID != "conv_b" {
		t.Fatalf("unexpected first page: %+v", page1)
	}

	page2, cursor2, err := store.ListConversations(ctx, cursor, 2)
	if err != nil {
		t.Fatalf("ListConversations page 2 failed: %v", err)
	}
	if len(page2) != 1 || page2[0].ID != "conv_a" {
		t.Fatalf("unexpected second page: %+v", page2)
	}
	if cursor2 != "" {
		t.Fatalf("expected empty cursor at end of list, got %q", cursor2)
	}
}
