// Package memory provides an in-memory implementation of
// sessionstore.Store for testing and lightweight single-process
// deployments. Conversations are lost when the process restarts.
// Optional LRU eviction limits memory usage.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/relaycode/tuichat/pkg/sessionstore"
)

// entry holds a stored conversation and its metadata.
type entry struct {
	conv        *sessionstore.Conversation
	workspaceID string
	deletedAt   *time.Time
	lruElem     *list.Element // position in LRU list
}

// Store is an in-memory sessionstore.Store with optional LRU eviction.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	lruList *list.List // front = most recently used, back = least recently used
	maxSize int        // 0 = unlimited
}

// Ensure Store implements sessionstore.Store at compile time.
var _ sessionstore.Store = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the least recently touched conversation
// is evicted when the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// SaveConversation creates or overwrites a conversation in memory.
func (s *Store) SaveConversation(ctx context.Context, conv *sessionstore.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	workspaceID := sessionstore.GetWorkspace(ctx)

	if e, exists := s.entries[conv.ID]; exists {
		e.conv = conv
		e.conv.UpdatedAt = conv.UpdatedAt
		e.deletedAt = nil
		s.lruList.MoveToFront(e.lruElem)
		return nil
	}

	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	elem := s.lruList.PushFront(conv.ID)
	s.entries[conv.ID] = &entry{
		conv:        conv,
		workspaceID: workspaceID,
		lruElem:     elem,
	}

	return nil
}

// GetConversation retrieves a conversation by id. Returns ErrNotFound
// if it does not exist or has been soft-deleted. Scoped by workspace
// when one is present in the context.
func (s *Store) GetConversation(ctx context.Context, id string) (*sessionstore.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || e.deletedAt != nil {
		return nil, sessionstore.ErrNotFound
	}

	workspaceID := sessionstore.GetWorkspace(ctx)
	if workspaceID != "" && e.workspaceID != workspaceID {
		return nil, sessionstore.ErrNotFound
	}

	return e.conv, nil
}

// DeleteConversation soft-deletes a conversation by id.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return sessionstore.ErrNotFound
	}

	workspaceID := sessionstore.GetWorkspace(ctx)
	if workspaceID != "" && e.workspaceID != workspaceID {
		return sessionstore.ErrNotFound
	}

	now := time.Now()
	e.deletedAt = &now
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// ListConversations returns a paginated, workspace-scoped list of
// conversations ordered newest-first (by UpdatedAt, then id, to break
// ties deterministically).
func (s *Store) ListConversations(ctx context.Context, cursor string, limit int) ([]*sessionstore.Conversation, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workspaceID := sessionstore.GetWorkspace(ctx)

	var matches []*sessionstore.Conversation
	for _, e := range s.entries {
		if e.deletedAt != nil {
			continue
		}
		if workspaceID != "" && e.workspaceID != workspaceID {
			continue
		}
		matches = append(matches, e.conv)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].UpdatedAt.Equal(matches[j].UpdatedAt) {
			return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
		}
		return matches[i].ID > matches[j].ID
	})

	if cursor != "" {
		idx := -1
		for i, c := range matches {
			if c.ID == cursor {
				idx = i
				break
			}
		}
		if idx >= 0 {
			matches = matches[idx+1:]
		} else {
			matches = nil
		}
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var nextCursor string
	if len(matches) > limit {
		matches = matches[:limit]
		nextCursor = matches[len(matches)-1].ID
	}

	return matches, nextCursor, nil
}

// evictOldest removes the least recently touched entry.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}

	id := back.Value.(string)
	s.lruList.Remove(back)
	delete(s.entries, id)
}
