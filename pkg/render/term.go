package render

import (
	"os"

	"golang.org/x/term"
)

// RawModeSession holds raw mode for the lifetime of one UI session,
// held for the session per spec.md §5's global process state policy.
type RawModeSession struct {
	fd       int
	previous *term.State
}

// EnterRawMode puts fd (normally os.Stdin.Fd()) into raw mode and
// returns a session that can restore it.
func EnterRawMode(fd int) (*RawModeSession, error) {
	previous, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return &RawModeSession{fd: fd, previous: previous}, nil
}

// Restore returns the terminal to its pre-session mode. Safe to call
// more than once; subsequent calls are no-ops.
func (r *RawModeSession) Restore() error {
	if r == nil || r.previous == nil {
		return nil
	}
	err := term.Restore(r.fd, r.previous)
	r.previous = nil
	return err
}

// Size reads the current terminal dimensions for os.Stdout, returning
// ok=false when stdout is not a terminal (e.g. piped output).
func Size() (width, height int, ok bool) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}
