package history

// HistoryId is a stable, non-reusable identity for a record in a
// Store. The zero value, Unassigned, is reserved and only appears on
// records that have not yet been inserted.
type HistoryId int64

// Unassigned is the placeholder id a record carries before it is
// pushed or inserted into a Store.
const Unassigned HistoryId = 0

// Valid reports whether id refers to an actual record rather than the
// unassigned placeholder.
func (id HistoryId) Valid() bool {
	return id != Unassigned
}
