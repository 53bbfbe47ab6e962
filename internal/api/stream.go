package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"queryjam/internal/hub"
)

// streamBuffer bounds how many events a slow client can fall behind before
// its connection is closed and it has to reconnect.
const streamBuffer = 256

// streamSession serves the per-session event stream over SSE. Membership is
// checked before any subscription exists, so a rejected client never
// consumes hub resources. Each connection subscribes to all four event
// types, filtered to its session.
func (h *Handler) streamSession(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	session, err := h.collab.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !session.IsOwner(userID) && !session.IsMember(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a session member"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	queue := newEventQueue(sessionID, streamBuffer)

	bus := h.collab.Hub()
	subs := []*hub.Subscription{
		bus.Subscribe(hub.QueryUpdate, queue.forward),
		bus.Subscribe(hub.QueryResult, queue.forward),
		bus.Subscribe(hub.MemberJoined, queue.forward),
		bus.Subscribe(hub.MemberLeft, queue.forward),
	}
	defer func() {
		for _, sub := range subs {
			sub.Cancel()
		}
	}()

	sendFrame := func(payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := sendFrame(gin.H{"type": "connected", "session_id": sessionID, "user_id": userID}); err != nil {
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-queue.overflow:
			// the client fell too far behind to guarantee it sees every
			// terminal transition; drop the connection so it reconnects
			return
		case ev := <-queue.events:
			frame := gin.H{"type": string(ev.Type)}
			for k, v := range ev.Payload {
				frame[k] = v
			}
			if err := sendFrame(frame); err != nil {
				return
			}
		}
	}
}

// eventQueue buffers one connection's events. Publishers must never block,
// so forward does a non-blocking send; when the buffer is full the queue
// signals overflow instead of dropping the event silently.
type eventQueue struct {
	sessionID int64
	events    chan hub.Event
	overflow  chan struct{}
	once      sync.Once
}

func newEventQueue(sessionID int64, size int) *eventQueue {
	return &eventQueue{
		sessionID: sessionID,
		events:    make(chan hub.Event, size),
		overflow:  make(chan struct{}),
	}
}

func (q *eventQueue) forward(ev hub.Event) {
	if ev.SessionID != q.sessionID {
		return
	}
	select {
	case q.events <- ev:
	default:
		q.once.Do(func() { close(q.overflow) })
	}
}
