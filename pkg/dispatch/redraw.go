package dispatch

import (
	"sync/atomic"
	"time"
)

// redrawDebounce is the window RequestRedraw coalesces repeated calls
// into, per spec.md §4.7.
const redrawDebounce = 33 * time.Millisecond

// RedrawCoalescer tracks the four atomic flags that keep a burst of
// redraw requests (e.g. a fast assistant stream) from producing more
// than one frame per debounce window, while never dropping the final
// redraw a caller asked for.
type RedrawCoalescer struct {
	inflight      atomic.Bool // a frame is currently being drawn
	postFrame     atomic.Bool // a redraw was requested while inflight was true
	pending       atomic.Bool // a debounce timer is already armed
	scheduled     atomic.Bool // a ScheduleFrameIn timer is already armed
	post          func(Event)
	afterFunc     func(time.Duration, func()) func() bool
}

// NewRedrawCoalescer builds a coalescer that posts KindRedraw events via
// post. afterFunc defaults to time.AfterFunc when nil (tests can inject
// a fake clock).
func NewRedrawCoalescer(post func(Event), afterFunc func(time.Duration, func()) func() bool) *RedrawCoalescer {
	if afterFunc == nil {
		afterFunc = func(d time.Duration, f func()) func() bool {
			t := time.AfterFunc(d, f)
			return t.Stop
		}
	}
	return &RedrawCoalescer{post: post, afterFunc: afterFunc}
}

// RequestRedraw asks for a frame. If one is already being drawn, the
// request is remembered (postFrame) and re-fired once the in-flight
// frame finishes via FrameDone. Otherwise it arms a debounce timer
// unless one is already pending, so N calls within redrawDebounce
// collapse into a single emitted KindRedraw.
func (c *RedrawCoalescer) RequestRedraw() {
	if c.inflight.Load() {
		c.postFrame.Store(true)
		return
	}
	if c.pending.CompareAndSwap(false, true) {
		c.afterFunc(redrawDebounce, func() {
			c.pending.Store(false)
			c.fire()
		})
	}
}

// ScheduleFrameIn arms a one-shot timer that requests a redraw after d,
// used for commit-animation ticks. Only one such timer may be armed at
// a time; subsequent calls before it fires are no-ops.
func (c *RedrawCoalescer) ScheduleFrameIn(d time.Duration) {
	if !c.scheduled.CompareAndSwap(false, true) {
		return
	}
	c.afterFunc(d, func() {
		c.scheduled.Store(false)
		c.RequestRedraw()
	})
}

// FrameStart marks a frame as in flight; call before rendering.
func (c *RedrawCoalescer) FrameStart() { c.inflight.Store(true) }

// FrameDone marks the in-flight frame as finished and, if a redraw was
// requested during it, immediately schedules another one.
func (c *RedrawCoalescer) FrameDone() {
	c.inflight.Store(false)
	if c.postFrame.CompareAndSwap(true, false) {
		c.RequestRedraw()
	}
}

func (c *RedrawCoalescer) fire() {
	if c.inflight.Load() {
		c.postFrame.Store(true)
		return
	}
	c.post(Event{Kind: KindRedraw})
}
