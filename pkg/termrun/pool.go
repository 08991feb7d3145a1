package termrun

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/relaycode/tuichat/pkg/observability"
)

// backendLabel derives a short Prometheus label from a Backend's
// concrete type, e.g. "*localpty.Backend" -> "localpty".
func backendLabel(backend Backend) string {
	name := strings.TrimPrefix(fmt.Sprintf("%T", backend), "*")
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

// RunID identifies one TerminalRun within a Pool. Ids are assigned by the
// Pool and never reused within its lifetime.
type RunID int64

const readChunkSize = 8 * 1024

// defaultRows/defaultCols are the PTY size fallback used when the chat
// view cannot supply a size hint.
const (
	defaultRows uint16 = 24
	defaultCols uint16 = 80
)

// run is the Pool's internal bookkeeping for one TerminalRun, mirroring
// the TerminalRun shape from spec: command/display are retained across
// Rerun, cancel is a one-shot signal, writerTx feeds the PTY master.
type run struct {
	mu sync.Mutex

	command []string
	display string
	backend Backend
	rows    uint16
	cols    uint16

	running      bool
	writerClosed bool
	cancel       context.CancelFunc
	controller   chan<- Event
	writerTx     chan []byte
	handle       Handle

	startedAt time.Time
}

// Pool manages the set of live/retained TerminalRuns for one UI session.
// All mutations to its run table go through a single mutex — the table
// itself is small and short-held, unlike the History Store's single-
// threaded-owned design, because Cancel/Resize/SendInput are called from
// the main loop but Start's spawned goroutines must reach back in to
// clear run state on exit.
type Pool struct {
	mu       sync.Mutex
	runs     map[RunID]*run
	nextID   RunID
	uiEvents chan<- Event
	log      *slog.Logger
}

// NewPool creates a Pool that posts run lifecycle events onto uiEvents.
func NewPool(uiEvents chan<- Event, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{runs: make(map[RunID]*run), uiEvents: uiEvents, log: logger}
}

func displayLine(command []string) string {
	return strings.Join(command, " ")
}

// Start launches command on backend, following the startup sequence from
// spec.md §4.6. It always returns a RunID; failures are reported as
// synthetic stderr+exit events on uiEvents/controller rather than as a Go
// error, matching the spec's "emit then return" failure handling.
func (p *Pool) Start(ctx context.Context, backend Backend, command []string, rows, cols uint16, controller chan<- Event) RunID {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.mu.Unlock()

	display := displayLine(command)

	if len(command) == 0 {
		p.emit(id, controller, stderrChunk(id, 0, []byte("Install command not resolved")))
		code := 1
		p.emit(id, controller, exitEvent(id, &code, 0))
		return id
	}

	r := &run{command: command, display: display, backend: backend, rows: rows, cols: cols, controller: controller}
	p.mu.Lock()
	p.runs[id] = r
	p.mu.Unlock()

	p.launch(ctx, id, r)
	return id
}

// launch opens the backend session and spawns the writer/reader/waiter
// goroutines. Called both from Start and from Rerun.
func (p *Pool) launch(parent context.Context, id RunID, r *run) {
	p.emit(id, r.controller, stdoutChunk(id, 0, []byte("$ "+r.display+"\n")))

	rows, cols := r.rows, r.cols
	if rows == 0 || cols == 0 {
		rows, cols = defaultRows, defaultCols
	}

	label := backendLabel(r.backend)

	ctx, cancel := context.WithCancel(parent)
	handle, err := r.backend.Start(ctx, r.command, rows, cols)
	if err != nil {
		cancel()
		observability.TermRunExecsTotal.WithLabelValues(label, "failed").Inc()
		p.emit(id, r.controller, stderrChunk(id, 0, []byte(err.Error())))
		code := 1
		p.emit(id, r.controller, exitEvent(id, &code, 0))
		return
	}
	observability.TermRunExecsTotal.WithLabelValues(label, "started").Inc()

	r.mu.Lock()
	r.handle = handle
	r.cancel = cancel
	r.running = true
	r.writerTx = make(chan []byte, 64)
	r.startedAt = time.Now()
	writerTx := r.writerTx
	r.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)

	go p.writerLoop(handle, writerTx, &wg)
	go p.readerLoop(id, r, handle, &wg)
	go p.waiterLoop(id, r, handle, ctx, cancel, writerTx, &wg)
}

func (p *Pool) writerLoop(handle Handle, writerTx <-chan []byte, wg *sync.WaitGroup) {
	defer wg.Done()
	for chunk := range writerTx {
		if _, err := handle.Write(chunk); err != nil {
			return
		}
	}
}

func (p *Pool) readerLoop(id RunID, r *run, handle Handle, wg *sync.WaitGroup) {
	defer wg.Done()
	buf := make([]byte, readChunkSize)
	var offset int64
	for {
		n, err := handle.Read(buf)
		if n > 0 {
			p.emit(id, r.controller, stdoutChunk(id, offset, buf[:n]))
			offset += int64(n)
		}
		if err != nil {
			if err.Error() != "EOF" {
				p.emit(id, r.controller, stderrChunk(id, 0, []byte(err.Error())))
			}
			return
		}
	}
}

func (p *Pool) waiterLoop(id RunID, r *run, handle Handle, ctx context.Context, cancel context.CancelFunc, writerTx chan []byte, wg *sync.WaitGroup) {
	exitCh := make(chan int, 1)
	waitErrCh := make(chan error, 1)
	go func() {
		code, err := handle.Wait()
		waitErrCh <- err
		exitCh <- code
	}()

	var code int
	select {
	case <-ctx.Done():
		_ = handle.Close()
		code = <-exitCh
	case code = <-exitCh:
	}
	<-waitErrCh
	cancel()

	r.mu.Lock()
	r.writerClosed = true
	r.mu.Unlock()
	close(writerTx)
	wg.Wait()

	r.mu.Lock()
	r.running = false
	dur := time.Since(r.startedAt)
	controller := r.controller
	backend := r.backend
	r.mu.Unlock()

	label := backendLabel(backend)
	observability.TermRunExecsTotal.WithLabelValues(label, "exited").Inc()
	observability.TermRunDuration.WithLabelValues(label).Observe(dur.Seconds())

	ec := code
	p.emit(id, controller, exitEvent(id, &ec, dur))

	if code == 0 && controller == nil {
		p.mu.Lock()
		delete(p.runs, id)
		p.mu.Unlock()
	}
}

func (p *Pool) emit(id RunID, controller chan<- Event, ev Event) {
	select {
	case p.uiEvents <- ev:
	default:
		p.log.Warn("termrun: dropped event, ui channel full", "run_id", id, "kind", ev.Kind)
	}
	if controller != nil {
		select {
		case controller <- ev:
		default:
			p.log.Warn("termrun: dropped event, controller channel full", "run_id", id, "kind", ev.Kind)
		}
	}
}

// Cancel sends the one-shot cancel signal for id, marks it not running,
// and drops the controller/writer/PTY references. The entry itself is
// only removed from the table if a controller was attached — otherwise
// the caller (the UI) owns cleanup via ForceClose.
func (p *Pool) Cancel(id RunID) {
	p.mu.Lock()
	r, ok := p.runs[id]
	p.mu.Unlock()
	if !ok {
		return
	}

	r.mu.Lock()
	cancel := r.cancel
	hadController := r.controller != nil
	r.running = false
	r.controller = nil
	r.writerTx = nil
	r.handle = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if hadController {
		p.mu.Lock()
		delete(p.runs, id)
		p.mu.Unlock()
	}
}

// Rerun relaunches a non-running run's stored command/display/controller.
// No-op if the run is unknown or already running.
func (p *Pool) Rerun(ctx context.Context, id RunID) {
	p.mu.Lock()
	r, ok := p.runs[id]
	p.mu.Unlock()
	if !ok {
		return
	}

	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if running {
		return
	}

	p.launch(ctx, id, r)
}

// SendInput enqueues bytes for the run's writer goroutine. A failed
// (closed) channel is treated as the writer having already exited, so
// the send is simply dropped rather than panicking.
func (p *Pool) SendInput(id RunID, data []byte) {
	p.mu.Lock()
	r, ok := p.runs[id]
	p.mu.Unlock()
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writerTx == nil || r.writerClosed {
		return
	}
	select {
	case r.writerTx <- data:
	default:
		// Writer is backed up or gone; drop rather than block the caller.
	}
}

// Resize propagates new dimensions to the run's PTY master. Ignored when
// either dimension is zero, or the run has no live handle.
func (p *Pool) Resize(id RunID, rows, cols uint16) error {
	if rows == 0 || cols == 0 {
		return nil
	}
	p.mu.Lock()
	r, ok := p.runs[id]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("termrun: unknown run %d", id)
	}

	r.mu.Lock()
	r.rows, r.cols = rows, cols
	handle := r.handle
	r.mu.Unlock()
	if handle == nil {
		return nil
	}
	return handle.Resize(rows, cols)
}

// ForceClose drops the run entry outright regardless of running state,
// used when the UI closes the run's overlay view.
func (p *Pool) ForceClose(id RunID) {
	p.mu.Lock()
	r, ok := p.runs[id]
	if ok {
		delete(p.runs, id)
	}
	p.mu.Unlock()
	if !ok {
		return
	}

	r.mu.Lock()
	cancel := r.cancel
	handle := r.handle
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if handle != nil {
		_ = handle.Close()
	}
}

// Running reports whether id currently has a live process.
func (p *Pool) Running(id RunID) bool {
	p.mu.Lock()
	r, ok := p.runs[id]
	p.mu.Unlock()
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
