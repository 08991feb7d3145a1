package dispatch

import (
	"context"

	"golang.org/x/time/rate"
)

// ResizePacer throttles terminal resize events: a user dragging a
// window edge can generate hundreds of SIGWINCH-driven resize reports
// a second, each of which would otherwise force a full re-wrap and
// redraw. A report that arrives while the limiter has no budget is
// dropped, not held for later.
type ResizePacer struct {
	limiter *rate.Limiter
	post    func(Event)
}

// NewResizePacer paces resize events to at most ratePerSecond per
// second, with a burst of 1 (the first report in each window is posted).
func NewResizePacer(ratePerSecond float64, post func(Event)) *ResizePacer {
	return &ResizePacer{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1), post: post}
}

// Report records a new terminal size. If the limiter currently has
// budget the resize is posted immediately; otherwise it is dropped,
// relying on the terminal to report the final settled size once the
// drag ends (which will itself consume budget once it recovers).
func (p *ResizePacer) Report(rows, cols uint16) {
	if !p.limiter.Allow() {
		return
	}
	p.post(Event{Kind: KindRedraw, Payload: TerminalSize{Rows: rows, Cols: cols}})
}

// TerminalSize is the payload carried by a paced resize-triggered redraw.
type TerminalSize struct {
	Rows, Cols uint16
}

// WaitCommitTick blocks until the commit-animation limiter admits the
// next tick or ctx is done, returning ctx.Err() in the latter case.
// Used by the commit-animation driver to pace its frame ticks without
// hand-rolling a ticker-plus-drain loop.
func WaitCommitTick(ctx context.Context, limiter *rate.Limiter) error {
	return limiter.Wait(ctx)
}

// NewCommitTickLimiter returns a limiter pacing commit-animation frames
// at framesPerSecond, used by StartCommitAnimation.
func NewCommitTickLimiter(framesPerSecond float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(framesPerSecond), 1)
}
