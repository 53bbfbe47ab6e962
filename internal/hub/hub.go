// Package hub is the in-process broadcast bus for session realtime events.
// Events are ephemeral: a subscriber that was not registered when an event
// was published never sees it.
package hub

import "sync"

// EventType names one of the four broadcast categories.
type EventType string

const (
	QueryUpdate  EventType = "query:update"
	QueryResult  EventType = "query:result"
	MemberJoined EventType = "member:joined"
	MemberLeft   EventType = "member:left"
)

// Event is a broadcast payload routed by session id. Subscribers receive
// every event of their type and filter on SessionID themselves.
type Event struct {
	Type      EventType
	SessionID int64
	Payload   map[string]any
}

// Handler receives published events. Handlers run synchronously inside
// Publish and must not block; deliver to slow consumers through a channel.
type Handler func(Event)

type subscriber struct {
	id      uint64
	handler Handler
}

// Subscription identifies one registered handler. Cancel is idempotent.
type Subscription struct {
	hub  *Hub
	typ  EventType
	id   uint64
	once sync.Once
}

// Cancel removes the subscription. Calling it twice is a safe no-op.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.hub.remove(s.typ, s.id)
	})
}

// Hub fans events out to subscribers in subscription order. Construct one
// explicitly with New and inject it; there is no package-level instance.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[EventType][]subscriber
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{subs: make(map[EventType][]subscriber)}
}

// Subscribe registers a handler for one event type and returns its handle.
func (h *Hub) Subscribe(typ EventType, handler Handler) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.subs[typ] = append(h.subs[typ], subscriber{id: id, handler: handler})
	return &Subscription{hub: h, typ: typ, id: id}
}

// Publish delivers the event to every current subscriber of its type, in
// subscription order. Handlers are invoked on a snapshot of the subscriber
// list, so they may subscribe or cancel reentrantly without corrupting the
// iteration.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	snapshot := make([]subscriber, len(h.subs[ev.Type]))
	copy(snapshot, h.subs[ev.Type])
	h.mu.Unlock()

	for _, sub := range snapshot {
		sub.handler(ev)
	}
}

// SubscriberCount reports how many handlers are registered for the type.
func (h *Hub) SubscriberCount(typ EventType) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[typ])
}

func (h *Hub) remove(typ EventType, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subs[typ]
	for i, sub := range subs {
		if sub.id == id {
			h.subs[typ] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}
