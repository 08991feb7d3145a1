// Package chatengine defines the Engine boundary a chat UI main loop
// talks across: a typed inbound event stream from an Engine
// implementation, a typed outbound op set the UI submits, and a
// Runtime that folds the inbound stream into pkg/history via
// pkg/domain, keeping pkg/fork's ghost-state bookkeeping and
// pkg/usage's accounting in sync along the way.
//
// This package has no opinion on how an Engine is actually hosted: it
// may run in-process (see cmd/mockengine) or against any other backend
// that can produce this event stream. Engine is the seam.
package chatengine
