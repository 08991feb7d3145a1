package termrun

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandle is an in-memory termrun.Handle for exercising Pool without a
// real PTY: Write feeds appended bytes back out of Read (echo), and exit
// is controlled by closing exitCh from the test.
type fakeHandle struct {
	mu       sync.Mutex
	out      bytes.Buffer
	readable chan struct{}
	closed   bool
	exitCode int
	exitCh   chan struct{}
	resizes  []rowcol
}

type rowcol struct{ rows, cols uint16 }

func newFakeHandle() *fakeHandle {
	return &fakeHandle{readable: make(chan struct{}, 1), exitCh: make(chan struct{})}
}

func (h *fakeHandle) Write(p []byte) (int, error) {
	h.mu.Lock()
	h.out.Write(p)
	h.mu.Unlock()
	select {
	case h.readable <- struct{}{}:
	default:
	}
	return len(p), nil
}

func (h *fakeHandle) Read(p []byte) (int, error) {
	for {
		h.mu.Lock()
		if h.out.Len() > 0 {
			n, _ := h.out.Read(p)
			h.mu.Unlock()
			return n, nil
		}
		closed := h.closed
		h.mu.Unlock()
		if closed {
			return 0, io.EOF
		}
		select {
		case <-h.readable:
		case <-h.exitCh:
			return 0, io.EOF
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (h *fakeHandle) Resize(rows, cols uint16) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resizes = append(h.resizes, rowcol{rows, cols})
	return nil
}

func (h *fakeHandle) Wait() (int, error) {
	<-h.exitCh
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode, nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.exitCh)
	}
	return nil
}

type fakeBackend struct {
	mu      sync.Mutex
	handles []*fakeHandle
	failNext bool
}

func (b *fakeBackend) Start(ctx context.Context, argv []string, rows, cols uint16) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failNext {
		b.failNext = false
		return nil, errors.New("spawn failed")
	}
	h := newFakeHandle()
	b.handles = append(b.handles, h)
	return h, nil
}

func drainUntilExit(t *testing.T, events <-chan Event, timeout time.Duration) []Event {
	t.Helper()
	var got []Event
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-events:
			got = append(got, ev)
			if ev.Kind == EventExit {
				return got
			}
		case <-deadline:
			t.Fatal("timed out waiting for exit event")
		}
	}
}

func TestStart_EmptyCommand_EmitsSyntheticFailureAndExit(t *testing.T) {
	events := make(chan Event, 16)
	pool := NewPool(events, nil)

	pool.Start(context.Background(), &fakeBackend{}, nil, 0, 0, nil)

	got := drainUntilExit(t, events, time.Second)
	require.Len(t, got, 2)
	assert.Equal(t, EventStderrChunk, got[0].Kind)
	assert.Contains(t, string(got[0].Content), "not resolved")
	require.NotNil(t, got[1].ExitCode)
	assert.Equal(t, 1, *got[1].ExitCode)
}

func TestStart_BackendFailure_EmitsErrorAndExit(t *testing.T) {
	events := make(chan Event, 16)
	pool := NewPool(events, nil)
	backend := &fakeBackend{failNext: true}

	pool.Start(context.Background(), backend, []string{"echo", "hi"}, 24, 80, nil)

	got := drainUntilExit(t, events, time.Second)
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, EventExit, got[len(got)-1].Kind)
	assert.Equal(t, 1, *got[len(got)-1].ExitCode)
}

func TestStart_SuccessfulRun_EchoesDisplayLineThenExits(t *testing.T) {
	events := make(chan Event, 16)
	pool := NewPool(events, nil)
	backend := &fakeBackend{}

	id := pool.Start(context.Background(), backend, []string{"echo", "hi"}, 24, 80, nil)
	require.True(t, pool.Running(id))

	backend.mu.Lock()
	h := backend.handles[0]
	backend.mu.Unlock()
	h.exitCode = 0
	close(h.exitCh)

	got := drainUntilExit(t, events, time.Second)
	assert.Equal(t, EventStdoutChunk, got[0].Kind)
	assert.Contains(t, string(got[0].Content), "$ echo hi")

	// No controller was attached and exit code is 0: run is evicted.
	assert.False(t, pool.Running(id))
}

func TestCancel_StopsRunWithOrWithoutController(t *testing.T) {
	events := make(chan Event, 16)
	pool := NewPool(events, nil)
	backend := &fakeBackend{}

	id := pool.Start(context.Background(), backend, []string{"sleep", "1"}, 24, 80, nil)
	pool.Cancel(id)
	// Let the waiter goroutine observe ctx cancellation and finish.
	drainUntilExit(t, events, time.Second)
	assert.False(t, pool.Running(id))

	// Cancel drops the controller reference immediately, so the run's
	// own exit event lands only on the UI channel; because a controller
	// had been attached, Cancel also removes the entry from the table at
	// once.
	controller := make(chan Event, 16)
	id2 := pool.Start(context.Background(), backend, []string{"sleep", "1"}, 24, 80, controller)
	pool.Cancel(id2)
	drainUntilExit(t, events, time.Second)
	assert.False(t, pool.Running(id2))
}

func TestResize_IgnoresZeroDimensions(t *testing.T) {
	events := make(chan Event, 16)
	pool := NewPool(events, nil)
	backend := &fakeBackend{}

	id := pool.Start(context.Background(), backend, []string{"cat"}, 24, 80, nil)
	require.NoError(t, pool.Resize(id, 0, 100))
	require.NoError(t, pool.Resize(id, 40, 120))

	backend.mu.Lock()
	h := backend.handles[0]
	backend.mu.Unlock()
	h.mu.Lock()
	resizes := append([]rowcol(nil), h.resizes...)
	h.mu.Unlock()

	require.Len(t, resizes, 1)
	assert.Equal(t, rowcol{40, 120}, resizes[0])

	h.exitCode = 0
	h.Close()
	drainUntilExit(t, events, time.Second)
}

func TestForceClose_RemovesRunRegardlessOfRunningState(t *testing.T) {
	events := make(chan Event, 16)
	pool := NewPool(events, nil)
	backend := &fakeBackend{}

	id := pool.Start(context.Background(), backend, []string{"sleep", "5"}, 24, 80, nil)
	require.True(t, pool.Running(id))

	pool.ForceClose(id)
	assert.False(t, pool.Running(id))
}
