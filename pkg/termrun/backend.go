// Package termrun manages concurrent foreground subprocesses launched on
// behalf of the UI — install commands, update commands, agent bootstraps.
// A Pool owns zero or more TerminalRuns; each run's PTY I/O is driven by
// three cooperating goroutines (writer, reader, waiter) per the startup
// sequence below, and emits chunk/exit events onto the event channel the
// Pool was constructed with.
package termrun

import (
	"context"
	"io"
)

// Handle is a live backend session: a PTY-shaped master plus process
// control. Backend implementations (localpty, sandboxk8s, sandboxdocker)
// each produce a Handle from Start.
type Handle interface {
	io.Reader
	io.Writer

	// Resize propagates new dimensions to the backend's pseudo-terminal.
	// Implementations ignore resize if the backend has no TTY concept.
	Resize(rows, cols uint16) error

	// Wait blocks until the underlying process exits, returning its exit
	// code (or -1 if it could not be determined) and any wait error.
	Wait() (exitCode int, err error)

	// Close forcibly tears down the session (kills the process if still
	// running, closes the PTY master). Safe to call after Wait returns.
	Close() error
}

// Backend starts a new session for argv with the given initial terminal
// size. rows/cols of 0 mean "unknown"; Pool substitutes 24x80 before it
// calls Start, and the backends in this module apply no default of
// their own.
type Backend interface {
	Start(ctx context.Context, argv []string, rows, cols uint16) (Handle, error)
}
