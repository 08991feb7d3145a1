package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_HighBeforeBulk(t *testing.T) {
	q := NewQueue(4, 4)
	q.PostBulk(Event{Kind: KindAssistantDelta})
	q.PostHigh(Event{Kind: KindKey})

	ev, ok := q.NextEvent()
	require.True(t, ok)
	assert.Equal(t, KindKey, ev.Kind)

	ev, ok = q.NextEvent()
	require.True(t, ok)
	assert.Equal(t, KindAssistantDelta, ev.Kind)
}

func TestQueue_DeliversBulkWhenHighIsEmpty(t *testing.T) {
	q := NewQueue(4, 4)
	q.PostBulk(Event{Kind: KindBackgroundEvent})

	start := time.Now()
	ev, ok := q.NextEvent()
	elapsed := time.Since(start)

	require.True(t, ok)
	assert.Equal(t, KindBackgroundEvent, ev.Kind)
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestQueue_PostRoutesByKind(t *testing.T) {
	q := NewQueue(4, 4)
	q.Post(Event{Kind: KindMouse})
	q.Post(Event{Kind: KindHistoryInsert})

	select {
	case ev := <-q.high:
		assert.Equal(t, KindMouse, ev.Kind)
	default:
		t.Fatal("expected KindMouse on high channel")
	}
	select {
	case ev := <-q.bulk:
		assert.Equal(t, KindHistoryInsert, ev.Kind)
	default:
		t.Fatal("expected KindHistoryInsert on bulk channel")
	}
}

func TestQueue_ClosedHighFallsThroughPermanently(t *testing.T) {
	q := NewQueue(4, 4)
	q.CloseHigh()
	q.PostBulk(Event{Kind: KindRedraw})

	ev, ok := q.NextEvent()
	require.True(t, ok)
	assert.Equal(t, KindRedraw, ev.Kind)
}
