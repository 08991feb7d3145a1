package history

// lookups centralizes the three call/stream lookup maps named in
// spec.md §3.4. register/unregister are the only mutators, per the
// re-architecture note in spec.md §9 ("centralize registration/
// unregistration in two private helpers; treat them as the only
// mutators of the maps").
type lookups struct {
	execCall map[string]HistoryId
	toolCall map[string]HistoryId
	stream   map[string]HistoryId
}

func newLookups() lookups {
	return lookups{
		execCall: make(map[string]HistoryId),
		toolCall: make(map[string]HistoryId),
		stream:   make(map[string]HistoryId),
	}
}

// register indexes rec under whichever lookup map applies to its kind.
func (l *lookups) register(rec Record) {
	if callID, ok := rec.CallID(); ok {
		switch rec.Kind() {
		case KindExec:
			l.execCall[callID] = rec.ID()
		case KindRunningTool, KindToolCall:
			l.toolCall[callID] = rec.ID()
		}
	}
	if streamID, ok := rec.StreamID(); ok {
		l.stream[streamID] = rec.ID()
	}
	// MergedExec carries no call_id of its own: registering it under a
	// synthetic key is the Store's job (see Store.RegisterMergedExec),
	// since it is a merge-time decision rather than a property of the
	// record's kind.
}

// unregister clears any lookup entries that still point at rec's id,
// guarding against stale entries when a later record reused the same
// call_id/stream_id under a different HistoryId.
func (l *lookups) unregister(rec Record) {
	if callID, ok := rec.CallID(); ok {
		switch rec.Kind() {
		case KindExec:
			if l.execCall[callID] == rec.ID() {
				delete(l.execCall, callID)
			}
		case KindRunningTool, KindToolCall:
			if l.toolCall[callID] == rec.ID() {
				delete(l.toolCall, callID)
			}
		}
	}
	if streamID, ok := rec.StreamID(); ok {
		if l.stream[streamID] == rec.ID() {
			delete(l.stream, streamID)
		}
	}
}

func (l *lookups) reset() {
	l.execCall = make(map[string]HistoryId)
	l.toolCall = make(map[string]HistoryId)
	l.stream = make(map[string]HistoryId)
}
