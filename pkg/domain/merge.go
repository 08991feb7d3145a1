package domain

import "github.com/relaycode/tuichat/pkg/history"

// MergeExecs collapses the completed Exec records at ids (all sharing
// action) into a single MergedExec, replacing the first record in
// place and removing the rest. Per the Open Question #1 decision
// (DESIGN.md): every segment's call_id is deregistered from
// exec_call_lookup and only a synthetic "merged:" key for the new
// record's id remains addressable.
//
// Returns history.Noop() if ids is empty or any id does not resolve to
// a completed Exec.
func (a *Applier) MergeExecs(ids []history.HistoryId) history.HistoryMutation {
	if len(ids) == 0 {
		return history.Noop()
	}

	segments := make([]history.Exec, 0, len(ids))
	callIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		rec, ok := a.store.RecordByID(id)
		if !ok || rec.Kind() != history.KindExec || rec.Exec == nil {
			return history.Noop()
		}
		if rec.Exec.Status == history.ExecRunning {
			return history.Noop()
		}
		segments = append(segments, *rec.Exec)
		if rec.Exec.CallID != "" {
			callIDs = append(callIDs, rec.Exec.CallID)
		}
	}

	merged := history.MergedExec{Action: segments[0].Action, Segments: segments}
	mut := a.store.Replace(ids[0], history.NewMergedExec(merged))
	if mut.Kind != history.MutationReplaced {
		return mut
	}

	for _, id := range ids[1:] {
		a.store.Apply(history.HistoryEvent{Kind: history.EventRemove, ID: id})
	}

	a.store.RegisterMergedExec(mut.ID, callIDs)
	return mut
}
