// Package sessionstore provides utilities shared across conversation
// persistence adapters, including sentinel errors and workspace-scoping
// context helpers.
//
// Adapters (memory, postgres) persist the pair a resumed conversation
// needs: the History Store's Snapshot (pkg/history, spec.md §6.4) and
// the Fork ghost state stack (pkg/fork) a jump-back left behind, both
// keyed by conversation id. The Store interface the adapters implement,
// and the Conversation they persist, are declared in conversation.go.
package sessionstore
