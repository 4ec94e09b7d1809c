package httptransport

import (
	"encoding/json"
	"net/http"

	"ludo-arena/internal/app/session"

	"github.com/go-chi/chi/v5"
)

type SessionHandlers struct {
	svc *session.Service
}

func NewSessionHandlers(svc *session.Service) *SessionHandlers {
	return &SessionHandlers{svc: svc}
}

func (h *SessionHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := h.svc.View(r.Context(), chi.URLParam(r, "session_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (h *SessionHandlers) Roll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricActionSubmitTotal.Add(1)
		resp, err := h.svc.Roll(r.Context(), chi.URLParam(r, "session_id"), actorFrom(r))
		if err != nil {
			metricActionSubmitErrors.Add(1)
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type moveRequest struct {
	TokenIndex *int `json:"token_index"`
}

func (h *SessionHandlers) Move() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricActionSubmitTotal.Add(1)
		var req moveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TokenIndex == nil {
			metricActionSubmitErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		resp, err := h.svc.Move(r.Context(), chi.URLParam(r, "session_id"), actorFrom(r), *req.TokenIndex)
		if err != nil {
			metricActionSubmitErrors.Add(1)
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *SessionHandlers) Disconnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Disconnect(r.Context(), chi.URLParam(r, "session_id"), actorFrom(r)); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *SessionHandlers) Reconnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Reconnect(r.Context(), chi.URLParam(r, "session_id"), actorFrom(r)); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}
