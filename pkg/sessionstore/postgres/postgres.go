// Package postgres provides a PostgreSQL implementation of sessionstore.Store.
// It uses pgx/v5 for connection pooling and JSONB for the history snapshot
// and fork ghost stack.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relaycode/tuichat/pkg/fork"
	"github.com/relaycode/tuichat/pkg/history"
	"github.com/relaycode/tuichat/pkg/sessionstore"
)

// Store is a PostgreSQL-backed sessionstore.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements sessionstore.Store at compile time.
var _ sessionstore.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// SaveConversation upserts a conversation, keyed by id.
func (s *Store) SaveConversation(ctx context.Context, conv *sessionstore.Conversation) error {
	workspaceID := sessionstore.GetWorkspace(ctx)

	historyJSON, err := json.Marshal(conv.History)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	var ghostsJSON []byte
	if len(conv.Ghosts) > 0 {
		ghostsJSON, err = json.Marshal(conv.Ghosts)
		if err != nil {
			return fmt.Errorf("marshaling ghosts: %w", err)
		}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO conversations (
			id, workspace_id, model, history, ghosts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			model = EXCLUDED.model,
			history = EXCLUDED.history,
			ghosts = EXCLUDED.ghosts,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`,
		conv.ID, workspaceID, conv.Model, historyJSON, nullJSON(ghostsJSON),
		conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting conversation: %w", err)
	}

	return nil
}

// GetConversation retrieves a conversation by id, excluding soft-deleted ones.
func (s *Store) GetConversation(ctx context.Context, id string) (*sessionstore.Conversation, error) {
	workspaceID := sessionstore.GetWorkspace(ctx)

	query := `
		SELECT id, model, history, ghosts, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND deleted_at IS NULL
	`
	args := []any{id}
	if workspaceID != "" {
		query += " AND workspace_id = $2"
		args = append(args, workspaceID)
	}

	var conv sessionstore.Conversation
	var historyJSON []byte
	var ghostsJSON *[]byte

	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&conv.ID, &conv.Model, &historyJSON, &ghostsJSON, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sessionstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	var snap history.Snapshot
	if err := json.Unmarshal(historyJSON, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling history: %w", err)
	}
	conv.History = snap

	if ghostsJSON != nil {
		var ghosts []fork.GhostState
		if err := json.Unmarshal(*ghostsJSON, &ghosts); err != nil {
			return nil, fmt.Errorf("unmarshaling ghosts: %w", err)
		}
		conv.Ghosts = ghosts
	}

	return &conv, nil
}

// DeleteConversation soft-deletes a conversation by setting deleted_at.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	workspaceID := sessionstore.GetWorkspace(ctx)

	query := "UPDATE conversations SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL"
	args := []any{time.Now(), id}

	if workspaceID != "" {
		query += " AND workspace_id = $3"
		args = append(args, workspaceID)
	}

	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return sessionstore.ErrNotFound
	}

	return nil
}

// ListConversations returns a paginated, workspace-scoped list of
// conversations ordered newest-first by updated_at.
func (s *Store) ListConversations(ctx context.Context, cursor string, limit int) ([]*sessionstore.Conversation, string, error) {
	workspaceID := sessionstore.GetWorkspace(ctx)

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, model, history, ghosts, created_at, updated_at
		FROM conversations
		WHERE deleted_at IS NULL
	`
	args := []any{}
	argIdx := 1

	if workspaceID != "" {
		query += fmt.Sprintf(" AND workspace_id = $%d", argIdx)
		args = append(args, workspaceID)
		argIdx++
	}

	if cursor != "" {
		cursorConv, err := s.GetConversation(ctx, cursor)
		if err == nil {
			query += fmt.Sprintf(" AND (updated_at, id) < ($%d, $%d)", argIdx, argIdx+1)
			args = append(args, cursorConv.UpdatedAt, cursorConv.ID)
			argIdx += 2
		}
	}

	query += fmt.Sprintf(" ORDER BY updated_at DESC, id DESC LIMIT $%d", argIdx)
	args = append(args, limit+1)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var results []*sessionstore.Conversation
	for rows.Next() {
		var conv sessionstore.Conversation
		var historyJSON []byte
		var ghostsJSON *[]byte

		if err := rows.Scan(&conv.ID, &conv.Model, &historyJSON, &ghostsJSON, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, "", fmt.Errorf("scanning conversation: %w", err)
		}

		var snap history.Snapshot
		if err := json.Unmarshal(historyJSON, &snap); err != nil {
			return nil, "", fmt.Errorf("unmarshaling history: %w", err)
		}
		conv.History = snap

		if ghostsJSON != nil {
			var ghosts []fork.GhostState
			if err := json.Unmarshal(*ghostsJSON, &ghosts); err != nil {
				return nil, "", fmt.Errorf("unmarshaling ghosts: %w", err)
			}
			conv.Ghosts = ghosts
		}

		results = append(results, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterating conversations: %w", err)
	}

	var nextCursor string
	if len(results) > limit {
		results = results[:limit]
		nextCursor = results[len(results)-1].ID
	}

	return results, nextCursor, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// nullJSON converts nil/empty byte slices to nil for nullable JSONB columns.
func nullJSON(b []byte) *[]byte {
	if len(b) == 0 {
		return nil
	}
	return &b
}
