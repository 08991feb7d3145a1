// Package localpty is the default Terminal Run backend: it spawns argv
// as a child process attached to a real pseudo-terminal on this host via
// github.com/creack/pty.
package localpty

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"github.com/relaycode/tuichat/pkg/termrun"
	"golang.org/x/term"
)

// Backend implements termrun.Backend over a local child process.
type Backend struct{}

// New returns the local-process backend.
func New() *Backend { return &Backend{} }

func (Backend) Start(ctx context.Context, argv []string, rows, cols uint16) (termrun.Handle, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("localpty: empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, fmt.Errorf("localpty: start %q: %w", argv[0], err)
	}

	return &handle{cmd: cmd, master: master}, nil
}

// handle wraps a running child and its PTY master. It holds no lock of
// its own: Pool reads the handle under the run's mutex before calling
// Resize, and the long-lived reader and writer goroutines share the
// *os.File, which is safe for concurrent use.
type handle struct {
	cmd    *exec.Cmd
	master *os.File
}

func (h *handle) Read(p []byte) (int, error)  { return h.master.Read(p) }
func (h *handle) Write(p []byte) (int, error) { return h.master.Write(p) }

func (h *handle) Resize(rows, cols uint16) error {
	return pty.Setsize(h.master, &pty.Winsize{Rows: rows, Cols: cols})
}

func (h *handle) Wait() (int, error) {
	err := h.cmd.Wait()
	if err == nil {
		return h.cmd.ProcessState.ExitCode(), nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func (h *handle) Close() error {
	if h.cmd.Process != nil {
		// Negative pid targets the process group created by Setsid,
		// so orphaned grandchildren are killed along with the shell.
		_ = syscall.Kill(-h.cmd.Process.Pid, syscall.SIGKILL)
	}
	return h.master.Close()
}

// SizeHint reads the controlling terminal's current dimensions, falling
// back to (0, 0) ("unknown") when stdout is not a terminal — the caller
// (chat view) applies the 24x80 default in that case.
func SizeHint() (rows, cols uint16) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return uint16(h), uint16(w)
}
