package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscriber channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubscribe_SnapshotFirst(t *testing.T) {
	h := New(func() any { return []string{"a1", "a2"} }, nil)

	sub := h.Subscribe(4)
	h.Publish(Event{Type: EventLog, Data: "rec"})

	first := recv(t, sub)
	assert.Equal(t, EventAlerts, first.Type)
	assert.Equal(t, []string{"a1", "a2"}, first.Data)

	second := recv(t, sub)
	assert.Equal(t, EventLog, second.Type)
	assert.Equal(t, 1, h.Len())
}

func TestSubscribe_DefaultSnapshotIsEmptyList(t *testing.T) {
	h := New(nil, nil)
	ev := recv(t, h.Subscribe(1))
	assert.Equal(t, EventAlerts, ev.Type)
	assert.Empty(t, ev.Data)
}

func TestPublish_FullQueueDropsForThatSubscriberOnly(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := New(nil, logger)

	slow := h.Subscribe(1) // snapshot fills the queue
	fast := h.Subscribe(8)
	recv(t, fast)

	var dropped []string
	h.OnDrop = func(sub *Subscriber, _ Event) { dropped = append(dropped, sub.ID) }

	h.Publish(Event{Type: EventLog, Data: 1})
	h.Publish(Event{Type: EventLog, Data: 2})

	assert.Equal(t, 1, recv(t, fast).Data)
	assert.Equal(t, 2, recv(t, fast).Data)

	assert.Equal(t, int64(2), slow.Dropped())
	assert.Equal(t, int64(0), fast.Dropped())
	assert.Equal(t, []string{slow.ID, slow.ID}, dropped)
	assert.Equal(t, int64(2), h.Stats().Dropped)

	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestUnsubscribe_OthersStillReceive(t *testing.T) {
	h := New(nil, nil)
	a := h.Subscribe(4)
	b := h.Subscribe(4)
	recv(t, a)
	recv(t, b)

	h.Unsubscribe(a)
	h.Unsubscribe(a) // idempotent

	_, ok := <-a.Events()
	assert.False(t, ok, "unsubscribed channel should be closed")

	h.Publish(Event{Type: EventAlert, Data: "x"})
	assert.Equal(t, EventAlert, recv(t, b).Type)
	assert.Equal(t, 1, h.Len())
}

func TestCommit_SnapshotNeverMissesOrDuplicates(t *testing.T) {
	var mu sync.Mutex
	var history []int
	h := New(func() any {
		mu.Lock()
		defer mu.Unlock()
		return append([]int(nil), history...)
	}, nil)

	const total = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			i := i
			h.Commit(func() {
				mu.Lock()
				history = append(history, i)
				mu.Unlock()
			}, Event{Type: EventAlert, Data: i})
		}
	}()

	// Subscribers joining mid-stream must see each alert exactly once,
	// either in the snapshot or as a live event.
	var subs []*Subscriber
	for i := 0; i < 20; i++ {
		subs = append(subs, h.Subscribe(total+1))
	}
	<-done
	h.Close()

	for _, sub := range subs {
		seen := make(map[int]int)
		first := <-sub.Events()
		require.Equal(t, EventAlerts, first.Type)
		for _, v := range first.Data.([]int) {
			seen[v]++
		}
		for ev := range sub.Events() {
			seen[ev.Data.(int)]++
		}
		require.Len(t, seen, total)
		for v, n := range seen {
			require.Equal(t, 1, n, "alert %d seen %d times", v, n)
		}
	}
}

func TestClose(t *testing.T) {
	h := New(nil, nil)
	sub := h.Subscribe(2)
	h.Close()
	h.Close()

	recv(t, sub)
	_, ok := <-sub.Events()
	assert.False(t, ok)

	late := h.Subscribe(2)
	assert.Equal(t, EventAlerts, recv(t, late).Type)
	_, ok = <-late.Events()
	assert.False(t, ok)
	assert.Equal(t, 0, h.Len())

	// Publishing after close is a no-op.
	h.Publish(Event{Type: EventLog})
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	h := New(nil, nil)
	var wg sync.WaitGroup

	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				h.Publish(Event{Type: EventLog, Data: i})
			}
		}()
	}
	for s := 0; s < 4; s++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				sub := h.Subscribe(8)
				h.Unsubscribe(sub)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.Len())
}
