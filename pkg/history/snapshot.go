package history

// Snapshot is the serialization-stable persisted shape named in
// spec.md §6.4. Order/OrderDebug are optional and only meaningful to
// an external scheduler; Restore ignores them. When all three lookup
// maps are absent, Restore rebuilds lookups from Records alone.
type Snapshot struct {
	Records        []Record         `json:"records"`
	NextID         HistoryId        `json:"next_id"`
	ExecCallLookup map[string]int64 `json:"exec_call_lookup,omitempty"`
	ToolCallLookup map[string]int64 `json:"tool_call_lookup,omitempty"`
	StreamLookup   map[string]int64 `json:"stream_lookup,omitempty"`
	Order          []HistoryId      `json:"order,omitempty"`
	OrderDebug     []string         `json:"order_debug,omitempty"`
}

// Snapshot clones the store's current state for persistence.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Records: append([]Record(nil), s.records...),
		NextID:  s.nextID,
	}
	if len(s.lookups.execCall) > 0 {
		snap.ExecCallLookup = make(map[string]int64, len(s.lookups.execCall))
		for k, v := range s.lookups.execCall {
			snap.ExecCallLookup[k] = int64(v)
		}
	}
	if len(s.lookups.toolCall) > 0 {
		snap.ToolCallLookup = make(map[string]int64, len(s.lookups.toolCall))
		for k, v := range s.lookups.toolCall {
			snap.ToolCallLookup[k] = int64(v)
		}
	}
	if len(s.lookups.stream) > 0 {
		snap.StreamLookup = make(map[string]int64, len(s.lookups.stream))
		for k, v := range s.lookups.stream {
			snap.StreamLookup[k] = int64(v)
		}
	}
	for _, rec := range s.records {
		snap.Order = append(snap.Order, rec.ID())
	}
	return snap
}

// Restore replaces the store's contents with snap, deduplicating
// AssistantMessage records that share a non-empty stream_id (keeping
// the first occurrence; AssistantMessages without a stream_id are
// always retained, even when their markdown matches — spec.md §3.5),
// rebuilding the id index, rebuilding lookup maps when snap supplied
// none, and resetting the usage tracker.
func (s *Store) Restore(snap Snapshot) {
	seenStreamIDs := make(map[string]bool)
	records := make([]Record, 0, len(snap.Records))
	for _, rec := range snap.Records {
		if rec.Kind() == KindAssistantMessage && rec.AssistantMessage != nil && rec.AssistantMessage.StreamID != "" {
			sid := rec.AssistantMessage.StreamID
			if seenStreamIDs[sid] {
				continue
			}
			seenStreamIDs[sid] = true
		}
		records = append(records, rec)
	}

	s.records = records
	s.nextID = snap.NextID
	if s.nextID < 1 {
		s.nextID = 1
	}

	s.lookups.reset()
	if snap.ExecCallLookup != nil || snap.ToolCallLookup != nil || snap.StreamLookup != nil {
		for k, v := range snap.ExecCallLookup {
			s.lookups.execCall[k] = HistoryId(v)
		}
		for k, v := range snap.ToolCallLookup {
			s.lookups.toolCall[k] = HistoryId(v)
		}
		for k, v := range snap.StreamLookup {
			s.lookups.stream[k] = HistoryId(v)
		}
	} else {
		for _, rec := range s.records {
			s.lookups.register(rec)
		}
	}

	s.rebuildIndex()
	s.usageTracker.Reset()
}
