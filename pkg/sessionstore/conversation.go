package sessionstore

import (
	"context"
	"time"

	"github.com/relaycode/tuichat/pkg/fork"
	"github.com/relaycode/tuichat/pkg/history"
)

// Conversation is the persisted unit a resumed terminal session is
// rebuilt from: the History Store's snapshot plus whatever ghost
// states a prior process's Fork/Jump-back stack had pushed and not
// yet popped. Ghosts are stored oldest-first; restoring them pushes
// them back onto a fresh fork.GhostRing in the same order so the LIFO
// Pop() order is preserved across a restart.
type Conversation struct {
	ID        string
	Model     string
	History   history.Snapshot
	Ghosts    []fork.GhostState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists Conversations. Implementations (memory, postgres)
// scope lookups by the workspace carried in ctx via SetWorkspace.
type Store interface {
	// SaveConversation creates or overwrites a conversation with the given id.
	SaveConversation(ctx context.Context, conv *Conversation) error

	// GetConversation retrieves a conversation by id, excluding soft-deleted ones.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// DeleteConversation soft-deletes a conversation by id.
	DeleteConversation(ctx context.Context, id string) error

	// ListConversations returns conversations newest-first, for a resume picker.
	// cursor is the ID to page after; pass "" to start from the newest.
	ListConversations(ctx context.Context, cursor string, limit int) (conversations []*Conversation, nextCursor string, err error)

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
