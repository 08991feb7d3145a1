package sessionstore

import "errors"

// Sentinel errors for conversation persistence operations.
var (
	// ErrNotFound is returned when a conversation does not exist or has been deleted.
	ErrNotFound = errors.New("conversation not found")

	// ErrConflict reports a conversation id that already exists. Neither
	// adapter in this module returns it: SaveConversation creates or
	// overwrites.
	ErrConflict = errors.New("conversation already exists")
)
