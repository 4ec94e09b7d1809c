package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"ludo-arena/internal/app/session"
	"ludo-arena/internal/notify"

	"github.com/go-chi/chi/v5"
)

var pingInterval = 15 * time.Second

// EventsHandler streams a session's events as SSE. Reconnecting clients send
// Last-Event-ID and receive what they missed while it is still buffered.
func EventsHandler(svc *session.Service, hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")
		if _, err := svc.View(r.Context(), sessionID); err != nil {
			writeServiceError(w, err)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteHTTPError(w, http.StatusInternalServerError, "streaming_unsupported")
			return
		}
		buf := hub.Buffer(sessionID)
		ch := buf.Subscribe()
		defer buf.Unsubscribe(ch)

		metricSSEConnectionsTotal.Add(1)
		metricSSEConnectionsActive.Add(1)
		defer metricSSEConnectionsActive.Add(-1)

		notify.SetSSEHeaders(w)
		w.WriteHeader(http.StatusOK)
		lastEventID := r.Header.Get("Last-Event-ID")
		replayed := ""
		for _, ev := range buf.ReplayAfter(lastEventID) {
			if err := notify.WriteSSE(w, ev); err != nil {
				return
			}
			replayed = ev.EventID
		}
		flusher.Flush()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				// Subscribed before the replay, so the first live events may
				// repeat what was just replayed.
				if replayed != "" && !newer(ev.EventID, replayed) {
					continue
				}
				if err := notify.WriteSSE(w, ev); err != nil {
					return
				}
				flusher.Flush()
			case <-ticker.C:
				now := time.Now().UnixMilli()
				ping := notify.StreamEvent{Event: "ping", SessionID: sessionID, ServerTS: now, Data: map[string]any{"ts": now}}
				if err := notify.WriteSSE(w, ping); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func newer(id, than string) bool {
	a, _ := strconv.ParseInt(id, 10, 64)
	b, _ := strconv.ParseInt(than, 10, 64)
	return a > b
}
