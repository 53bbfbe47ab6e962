package hub

import (
	"sync"
	"testing"
)

func TestPublishReachesSubscribersInOrder(t *testing.T) {
	h := New()
	var got []int
	h.Subscribe(QueryUpdate, func(ev Event) { got = append(got, 1) })
	h.Subscribe(QueryUpdate, func(ev Event) { got = append(got, 2) })
	h.Subscribe(QueryResult, func(ev Event) { got = append(got, 99) })

	h.Publish(Event{Type: QueryUpdate, SessionID: 7})

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected handlers 1 then 2, got %v", got)
	}
}

func TestPublishCarriesSessionAndPayload(t *testing.T) {
	h := New()
	var seen Event
	h.Subscribe(MemberJoined, func(ev Event) { seen = ev })

	h.Publish(Event{Type: MemberJoined, SessionID: 3, Payload: map[string]any{"user_id": int64(9)}})

	if seen.SessionID != 3 {
		t.Fatalf("expected session 3, got %d", seen.SessionID)
	}
	if seen.Payload["user_id"] != int64(9) {
		t.Fatalf("unexpected payload: %v", seen.Payload)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	h := New()
	calls := 0
	sub := h.Subscribe(QueryUpdate, func(ev Event) { calls++ })

	h.Publish(Event{Type: QueryUpdate})
	sub.Cancel()
	h.Publish(Event{Type: QueryUpdate})

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if n := h.SubscriberCount(QueryUpdate); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	h := New()
	a := h.Subscribe(QueryUpdate, func(ev Event) {})
	b := h.Subscribe(QueryUpdate, func(ev Event) {})

	a.Cancel()
	a.Cancel()
	a.Cancel()

	if n := h.SubscriberCount(QueryUpdate); n != 1 {
		t.Fatalf("expected 1 subscriber after repeated cancel, got %d", n)
	}
	b.Cancel()
	if n := h.SubscriberCount(QueryUpdate); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}
}

func TestCancelInsideHandler(t *testing.T) {
	h := New()
	var sub *Subscription
	calls := 0
	sub = h.Subscribe(QueryResult, func(ev Event) {
		calls++
		sub.Cancel()
	})
	after := 0
	h.Subscribe(QueryResult, func(ev Event) { after++ })

	h.Publish(Event{Type: QueryResult})
	h.Publish(Event{Type: QueryResult})

	if calls != 1 {
		t.Fatalf("expected self-cancelling handler to run once, got %d", calls)
	}
	if after != 2 {
		t.Fatalf("expected later subscriber to keep receiving, got %d", after)
	}
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	h := New()
	var mu sync.Mutex
	total := 0
	for i := 0; i < 8; i++ {
		h.Subscribe(QueryUpdate, func(ev Event) {
			mu.Lock()
			total++
			mu.Unlock()
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Publish(Event{Type: QueryUpdate})
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if total != 8*16 {
		t.Fatalf("expected %d deliveries, got %d", 8*16, total)
	}
}
