// Package dispatch implements the Event Dispatcher: a two-priority event
// queue (interactive "high" events ahead of streamed "bulk" data),
// redraw coalescing, key-release normalization, and the Esc cancel/undo
// policy described in spec.md §4.7.
package dispatch

import (
	"time"

	"github.com/relaycode/tuichat/pkg/observability"
)

// Kind discriminates a queued Event.
type Kind string

const (
	KindKey               Kind = "key"
	KindMouse              Kind = "mouse"
	KindPaste              Kind = "paste"
	KindFocus              Kind = "focus"
	KindHistoryInsert       Kind = "history_insert"
	KindAssistantDelta      Kind = "assistant_delta"
	KindBackgroundEvent     Kind = "background_event"
	KindRedraw              Kind = "redraw"
	KindCommitTick          Kind = "commit_tick"
	KindExitRequest         Kind = "exit_request"
	KindJumpBackForked      Kind = "jump_back_forked"
)

// Event is the dispatcher's queued unit. Payload is left as `any` since
// the dispatcher itself never interprets history/domain payloads — it
// only orders and coalesces them; the main loop downcasts by Kind.
type Event struct {
	Kind    Kind
	Payload any
}

// priorityOf reports whether an Event belongs on the high (interactive)
// or bulk (streamed) channel.
func priorityOf(kind Kind) bool {
	switch kind {
	case KindKey, KindMouse, KindPaste, KindFocus, KindExitRequest, KindJumpBackForked:
		return true
	default:
		return false
	}
}

// highPollTimeout is how long NextEvent blocks on the high channel before
// polling high and then bulk again, per spec.md §4.7.
const highPollTimeout = 10 * time.Millisecond

// Queue is the two-channel event queue underlying the dispatcher.
type Queue struct {
	high chan Event
	bulk chan Event
}

// NewQueue creates a Queue with the given channel capacities.
func NewQueue(highCap, bulkCap int) *Queue {
	return &Queue{high: make(chan Event, highCap), bulk: make(chan Event, bulkCap)}
}

// Post enqueues ev on the channel matching its Kind.
func (q *Queue) Post(ev Event) {
	observability.DispatchEventsTotal.WithLabelValues(string(ev.Kind)).Inc()
	if priorityOf(ev.Kind) {
		q.high <- ev
	} else {
		q.bulk <- ev
	}
}

// PostHigh/PostBulk bypass Kind-based routing for callers (tests, the
// animation ticker) that already know which channel they mean.
func (q *Queue) PostHigh(ev Event) {
	observability.DispatchEventsTotal.WithLabelValues(string(ev.Kind)).Inc()
	q.high <- ev
}

func (q *Queue) PostBulk(ev Event) {
	observability.DispatchEventsTotal.WithLabelValues(string(ev.Kind)).Inc()
	q.bulk <- ev
}

// NextEvent polls high, then bulk, then blocks on high with a 10ms
// timeout (starting over when it expires) and falls through to a
// blocking bulk receive once high is known to be disconnected (closed). ok is false only when both
// channels are closed and drained.
func (q *Queue) NextEvent() (Event, bool) {
	for {
		select {
		case ev, ok := <-q.high:
			if ok {
				return ev, true
			}
			return q.blockOnBulk()
		default:
		}

		select {
		case ev, ok := <-q.bulk:
			if ok {
				return ev, true
			}
		default:
		}

		select {
		case ev, ok := <-q.high:
			if !ok {
				return q.blockOnBulk()
			}
			return ev, true
		case ev, ok := <-q.bulk:
			if !ok {
				return Event{}, false
			}
			return ev, true
		case <-time.After(highPollTimeout):
			// Start over so a high event that arrives later is never
			// stuck behind a blocking bulk receive.
		}
	}
}

func (q *Queue) blockOnBulk() (Event, bool) {
	ev, ok := <-q.bulk
	return ev, ok
}

// CloseHigh closes the high channel, used by the input reader on a fatal
// read error so NextEvent permanently falls through to bulk.
func (q *Queue) CloseHigh() { close(q.high) }
