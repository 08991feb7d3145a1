package dispatch

import (
	"context"

	"golang.org/x/time/rate"
)

// Dispatcher is the single-threaded event loop's source of events: it
// owns the priority Queue, the redraw coalescer, and the per-session
// key/Esc/Ctrl+C state machines. The main loop calls Next in a tight
// loop and reacts to whatever comes back; Dispatcher itself never
// blocks the caller longer than the queue's own NextEvent contract.
type Dispatcher struct {
	Queue   *Queue
	Redraw  *RedrawCoalescer
	Keys    *KeyNormalizer
	Esc     *EscPolicy
	CtrlC   *CtrlCPolicy
	Commit  *rate.Limiter
}

// New wires a Dispatcher whose RedrawCoalescer posts directly back onto
// the Queue's high channel (redraws are interactive-priority: a stale
// frame is worse than momentarily delaying a streamed chunk).
func New() *Dispatcher {
	q := NewQueue(64, 256)
	d := &Dispatcher{
		Queue: q,
		Keys:  NewKeyNormalizer(),
		Esc:   NewEscPolicy(nil),
		CtrlC: &CtrlCPolicy{},
	}
	d.Redraw = NewRedrawCoalescer(q.PostHigh, nil)
	return d
}

// Next returns the next event for the main loop to handle, per the
// high/bulk/10ms-timeout priority contract documented on Queue.NextEvent.
func (d *Dispatcher) Next() (Event, bool) { return d.Queue.NextEvent() }

// StartCommitAnimation arms a repeating commit-animation ticker paced
// at framesPerSecond, emitting KindCommitTick onto the high channel
// until ctx is cancelled (StopCommitAnimation is just cancelling ctx).
func (d *Dispatcher) StartCommitAnimation(ctx context.Context, framesPerSecond float64) {
	d.Commit = NewCommitTickLimiter(framesPerSecond)
	go func() {
		for {
			if err := WaitCommitTick(ctx, d.Commit); err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			d.Queue.PostHigh(Event{Kind: KindCommitTick})
		}
	}()
}

// HandleRawKey normalizes a raw terminal key report and enqueues the
// resulting press/release events, resetting the Esc and Ctrl+C ladders
// whenever a different key is seen.
func (d *Dispatcher) HandleRawKey(raw RawKeyEvent) {
	for _, nk := range d.Keys.Normalize(raw) {
		if nk.Kind != KeyPress {
			continue
		}
		switch nk.Keycode {
		case escKeycode:
		case ctrlC:
		default:
			d.Esc.Reset()
			d.CtrlC.Disarm()
		}
		d.Queue.PostHigh(Event{Kind: KindKey, Payload: nk})
	}
}
