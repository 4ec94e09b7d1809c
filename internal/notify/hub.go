// Package notify delivers session events to players and spectators.
package notify

import (
	"context"
	"sync"

	"ludo-arena/internal/game"
)

// Hub fans events out in process, one EventBuffer per session.
type Hub struct {
	mu      sync.Mutex
	size    int
	buffers map[string]*EventBuffer
}

func NewHub(bufferSize int) *Hub {
	return &Hub{size: bufferSize, buffers: make(map[string]*EventBuffer)}
}

func (h *Hub) Notify(_ context.Context, sessionID string, ev game.Event) {
	h.Buffer(sessionID).Append(ev)
	metricNotified.Add(1)
}

// Buffer returns the buffer for sessionID, creating it on first use.
func (h *Hub) Buffer(sessionID string) *EventBuffer {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.buffers[sessionID]
	if !ok {
		b = NewEventBuffer(sessionID, h.size)
		h.buffers[sessionID] = b
	}
	return b
}

// Purge closes and forgets the buffer of a deleted session.
func (h *Hub) Purge(sessionID string) {
	h.mu.Lock()
	b, ok := h.buffers[sessionID]
	delete(h.buffers, sessionID)
	h.mu.Unlock()
	if ok {
		b.Close()
	}
}

// Close ends every live subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	buffers := h.buffers
	h.buffers = make(map[string]*EventBuffer)
	h.mu.Unlock()
	for _, b := range buffers {
		b.Close()
	}
}

// Notifier is satisfied by Hub and RedisPublisher.
type Notifier interface {
	Notify(ctx context.Context, sessionID string, ev game.Event)
}

// Fanout sends every event to each of its notifiers in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, sessionID string, ev game.Event) {
	for _, n := range f {
		n.Notify(ctx, sessionID, ev)
	}
}
