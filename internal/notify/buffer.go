package notify

import (
	"strconv"
	"sync"
	"time"

	"ludo-arena/internal/game"
)

// StreamEvent is one delivered event as seen by stream consumers. EventID
// increases by one per event within a session.
type StreamEvent struct {
	EventID   string         `json:"event_id"`
	Event     game.EventKind `json:"event"`
	SessionID string         `json:"session_id"`
	ServerTS  int64          `json:"server_ts"`
	Data      any            `json:"data"`
}

// EventBuffer keeps the most recent events of one session for replay and
// pushes new ones to live subscribers. A subscriber that falls behind loses
// events rather than stalling the session.
type EventBuffer struct {
	sessionID string
	mu        sync.Mutex
	nextID    int64
	max       int
	events    []StreamEvent
	watchers  map[chan StreamEvent]struct{}
	closed    bool
}

func NewEventBuffer(sessionID string, max int) *EventBuffer {
	if max <= 0 {
		max = 256
	}
	return &EventBuffer{
		sessionID: sessionID,
		max:       max,
		watchers:  map[chan StreamEvent]struct{}{},
	}
}

func (b *EventBuffer) Append(ev game.Event) StreamEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return StreamEvent{}
	}
	b.nextID++
	se := StreamEvent{
		EventID:   strconv.FormatInt(b.nextID, 10),
		Event:     ev.Kind,
		SessionID: b.sessionID,
		ServerTS:  time.Now().UnixMilli(),
		Data:      ev.Payload,
	}
	b.events = append(b.events, se)
	if len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}
	for ch := range b.watchers {
		select {
		case ch <- se:
		default:
			metricDropped.Add(1)
		}
	}
	return se
}

// ReplayAfter returns the buffered events newer than lastEventID. An empty or
// malformed id replays everything still buffered.
func (b *EventBuffer) ReplayAfter(lastEventID string) []StreamEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	last, err := strconv.ParseInt(lastEventID, 10, 64)
	if lastEventID == "" || err != nil {
		last = 0
	}
	out := make([]StreamEvent, 0, len(b.events))
	for _, ev := range b.events {
		id, _ := strconv.ParseInt(ev.EventID, 10, 64)
		if id > last {
			out = append(out, ev)
		}
	}
	return out
}

func (b *EventBuffer) Subscribe() chan StreamEvent {
	ch := make(chan StreamEvent, 32)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	metricSubscribers.Add(1)
	return ch
}

func (b *EventBuffer) Unsubscribe(ch chan StreamEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; ok {
		delete(b.watchers, ch)
		close(ch)
		metricSubscribers.Add(-1)
	}
}

// Close ends every subscription. Appends after Close are dropped.
func (b *EventBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
		delete(b.watchers, ch)
		metricSubscribers.Add(-1)
	}
}
