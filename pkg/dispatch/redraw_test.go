package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimer lets tests fire a scheduled afterFunc callback deterministically
// instead of waiting out redrawDebounce in real time.
type fakeTimer struct {
	fns []func()
}

func (f *fakeTimer) schedule(_ time.Duration, fn func()) func() bool {
	f.fns = append(f.fns, fn)
	return func() bool { return true }
}

func (f *fakeTimer) fireAll() {
	pending := f.fns
	f.fns = nil
	for _, fn := range pending {
		fn()
	}
}

func TestRedrawCoalescer_CollapsesBurstIntoOneFrame(t *testing.T) {
	var posted int
	ft := &fakeTimer{}
	c := NewRedrawCoalescer(func(Event) { posted++ }, ft.schedule)

	c.RequestRedraw()
	c.RequestRedraw()
	c.RequestRedraw()
	require.Len(t, ft.fns, 1, "only one debounce timer should be armed for a burst")

	ft.fireAll()
	assert.Equal(t, 1, posted)
}

func TestRedrawCoalescer_RequestDuringFrameRefiresAfterDone(t *testing.T) {
	var posted int
	ft := &fakeTimer{}
	c := NewRedrawCoalescer(func(Event) { posted++ }, ft.schedule)

	c.FrameStart()
	c.RequestRedraw() // arrives while a frame is in flight
	assert.Empty(t, ft.fns, "no debounce timer should arm while inflight")

	c.FrameDone()
	require.Len(t, ft.fns, 1, "FrameDone should schedule the deferred redraw")
	ft.fireAll()
	assert.Equal(t, 1, posted)
}

func TestRedrawCoalescer_ScheduleFrameInIsSingleShot(t *testing.T) {
	var posted int
	ft := &fakeTimer{}
	c := NewRedrawCoalescer(func(Event) { posted++ }, ft.schedule)

	c.ScheduleFrameIn(50 * time.Millisecond)
	c.ScheduleFrameIn(50 * time.Millisecond)
	require.Len(t, ft.fns, 1, "a second ScheduleFrameIn before the first fires should be a no-op")

	ft.fireAll()
	// ScheduleFrameIn's callback calls RequestRedraw, which arms the debounce timer.
	require.Len(t, ft.fns, 1)
	ft.fireAll()
	assert.Equal(t, 1, posted)
}
