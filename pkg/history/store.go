package history

import (
	"log/slog"
	"strconv"

	"github.com/relaycode/tuichat/pkg/usage"
)

// Store is the ordered record list plus its lookup indexes and usage
// accounting. Per spec.md §5, a Store is owned exclusively by a single
// cooperative loop: it carries no internal locking, and callers must
// not share one across goroutines without their own synchronization.
type Store struct {
	records []Record
	nextID  HistoryId

	lookups lookups
	idIndex map[HistoryId]int

	usageTracker *usage.Tracker
	log          *slog.Logger
}

// New creates an empty Store. A nil logger defaults to slog.Default().
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		nextID:       1,
		lookups:      newLookups(),
		idIndex:      make(map[HistoryId]int),
		usageTracker: usage.New(logger),
		log:          logger,
	}
}

// Usage returns the Store's usage tracker, for the Domain Event
// Applier to feed stream observations into alongside Replace calls.
func (s *Store) Usage() *usage.Tracker { return s.usageTracker }

// Len returns the number of records currently held.
func (s *Store) Len() int { return len(s.records) }

// Records returns the current records in order. The returned slice
// must not be mutated.
func (s *Store) Records() []Record { return s.records }

// Push appends record, assigning it a fresh id.
func (s *Store) Push(record Record) HistoryId {
	id := s.allocID()
	rec := record.withID(id)
	s.records = append(s.records, rec)
	s.lookups.register(rec)
	s.rebuildIndex()
	return id
}

// Insert places record at index (bounded by Len(); an out-of-range
// index behaves as Push), assigning it a fresh id.
func (s *Store) Insert(index int, record Record) HistoryId {
	if index < 0 || index >= len(s.records) {
		return s.Push(record)
	}
	id := s.allocID()
	rec := record.withID(id)
	s.records = append(s.records, Record{})
	copy(s.records[index+1:], s.records[index:])
	s.records[index] = rec
	s.lookups.register(rec)
	s.rebuildIndex()
	return id
}

// Remove drops the record at index, unregistering its lookup entries.
// Returns the removed record and true, or the zero Record and false if
// index was out of range.
func (s *Store) Remove(index int) (Record, bool) {
	if index < 0 || index >= len(s.records) {
		return Record{}, false
	}
	rec := s.records[index]
	s.records = append(s.records[:index], s.records[index+1:]...)
	s.lookups.unregister(rec)
	s.usageTracker.Remove(int64(rec.ID()))
	s.rebuildIndex()
	return rec, true
}

// TruncateAfter drops every record after id (id==Unassigned clears
// everything) and returns the dropped records in their original order.
// If id is absent or is the last record, it returns an empty slice
// without modifying the store.
func (s *Store) TruncateAfter(id HistoryId) []Record {
	if id == Unassigned {
		dropped := s.records
		for _, rec := range dropped {
			s.lookups.unregister(rec)
			s.usageTracker.Remove(int64(rec.ID()))
		}
		s.records = nil
		s.nextID = 1
		s.rebuildIndex()
		return dropped
	}

	pos, ok := s.idIndex[id]
	if !ok || pos == len(s.records)-1 {
		return nil
	}

	dropped := append([]Record(nil), s.records[pos+1:]...)
	s.records = s.records[:pos+1]
	for _, rec := range dropped {
		s.lookups.unregister(rec)
		s.usageTracker.Remove(int64(rec.ID()))
	}

	maxID := HistoryId(0)
	for _, rec := range s.records {
		if rec.ID() > maxID {
			maxID = rec.ID()
		}
	}
	s.nextID = maxID + 1
	s.rebuildIndex()
	return dropped
}

// Apply executes a raw HistoryEvent against the store and returns the
// resulting HistoryMutation.
func (s *Store) Apply(event HistoryEvent) HistoryMutation {
	switch event.Kind {
	case EventInsert:
		id := s.Insert(event.Index, event.Record)
		return Inserted(id)

	case EventReplace:
		pos, ok := s.idIndex[event.ID]
		if !ok {
			return Noop()
		}
		old := s.records[pos]
		rec := event.Record.withID(event.ID)
		s.lookups.unregister(old)
		s.records[pos] = rec
		s.lookups.register(rec)
		s.usageTracker.Transfer(int64(old.ID()), int64(rec.ID()))
		return Replaced(event.ID)

	case EventRemove:
		pos, ok := s.idIndex[event.ID]
		if !ok {
			return Noop()
		}
		rec, _ := s.Remove(pos)
		return Removed(rec.ID())

	default:
		return Noop()
	}
}

// IndexOf returns the position of id within Records(), or false if id
// is unassigned or absent.
func (s *Store) IndexOf(id HistoryId) (int, bool) {
	if id == Unassigned {
		return 0, false
	}
	pos, ok := s.idIndex[id]
	return pos, ok
}

// RecordByID returns the record with the given id, or false if id is
// unassigned or absent.
func (s *Store) RecordByID(id HistoryId) (Record, bool) {
	pos, ok := s.IndexOf(id)
	if !ok {
		return Record{}, false
	}
	return s.records[pos], true
}

// Replace overwrites the record at the given id in place, preserving
// the id and transferring usage-tracker state, without going through
// the generic Apply/HistoryEvent path. This is the method the Domain
// Event Applier uses for most streaming updates.
func (s *Store) Replace(id HistoryId, record Record) HistoryMutation {
	return s.Apply(HistoryEvent{Kind: EventReplace, ID: id, Record: record})
}

// HistoryIDForExecCall resolves a call_id to the HistoryId of its Exec
// (or the synthetic MergedExec key registered via
// RegisterMergedExec), or false if absent.
func (s *Store) HistoryIDForExecCall(callID string) (HistoryId, bool) {
	id, ok := s.lookups.execCall[callID]
	return id, ok
}

// HistoryIDForToolCall resolves a call_id to the HistoryId of its
// RunningTool/ToolCall, or false if absent.
func (s *Store) HistoryIDForToolCall(callID string) (HistoryId, bool) {
	id, ok := s.lookups.toolCall[callID]
	return id, ok
}

// HistoryIDForStream resolves a stream_id to the HistoryId of its
// AssistantStream, or false if absent.
func (s *Store) HistoryIDForStream(streamID string) (HistoryId, bool) {
	id, ok := s.lookups.stream[streamID]
	return id, ok
}

// RegisterMergedExec deregisters every call_id in segmentCallIDs from
// exec_call_lookup and registers only a synthetic "merged:" key
// pointing at id, per the Open Question #1 decision recorded in
// DESIGN.md: constituent call_ids are not separately addressable after
// a merge.
func (s *Store) RegisterMergedExec(id HistoryId, segmentCallIDs []string) {
	for _, callID := range segmentCallIDs {
		if s.lookups.execCall[callID] != 0 {
			delete(s.lookups.execCall, callID)
		}
	}
	s.lookups.execCall[mergedExecKey(id)] = id
}

func mergedExecKey(id HistoryId) string {
	return "merged:" + strconv.FormatInt(int64(id), 10)
}

func (s *Store) allocID() HistoryId {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Store) rebuildIndex() {
	s.idIndex = make(map[HistoryId]int, len(s.records))
	for i, rec := range s.records {
		s.idIndex[rec.ID()] = i
	}
}
