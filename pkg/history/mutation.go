package history

// MutationKind discriminates the outcome of applying a HistoryEvent to
// a Store.
type MutationKind string

const (
	MutationInserted MutationKind = "inserted"
	MutationReplaced MutationKind = "replaced"
	MutationRemoved  MutationKind = "removed"
	MutationNoop     MutationKind = "noop"
)

// HistoryMutation describes the outcome of an Insert/Replace/Remove,
// carrying the stable id the UI should key its redraw decision on.
type HistoryMutation struct {
	Kind MutationKind
	ID   HistoryId
}

// Inserted, Replaced, Removed and Noop build the corresponding
// HistoryMutation values.
func Inserted(id HistoryId) HistoryMutation { return HistoryMutation{Kind: MutationInserted, ID: id} }
func Replaced(id HistoryId) HistoryMutation { return HistoryMutation{Kind: MutationReplaced, ID: id} }
func Removed(id HistoryId) HistoryMutation  { return HistoryMutation{Kind: MutationRemoved, ID: id} }
func Noop() HistoryMutation                 { return HistoryMutation{Kind: MutationNoop} }

// EventKind discriminates a raw HistoryEvent, the low-level request a
// Domain Event Applier issues to a Store once it has already decided
// what the resulting record should look like.
type EventKind string

const (
	EventInsert  EventKind = "insert"
	EventReplace EventKind = "replace"
	EventRemove  EventKind = "remove"
)

// HistoryEvent is the Store's input primitive. Index is meaningful for
// Insert (insertion point); ID is meaningful for Replace and Remove
// (which record to replace or drop, by id).
type HistoryEvent struct {
	Kind   EventKind
	Index  int
	ID     HistoryId
	Record Record
}
