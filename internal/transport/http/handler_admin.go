package httptransport

import (
	"encoding/json"
	"net/http"

	"ludo-arena/internal/app/session"

	"github.com/go-chi/chi/v5"
)

type AdminHandlers struct {
	svc *session.Service
}

func NewAdminHandlers(svc *session.Service) *AdminHandlers {
	return &AdminHandlers{svc: svc}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

func (h *AdminHandlers) CreateSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricSessionCreateTotal.Add(1)
		var req session.CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metricSessionCreateErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		view, err := h.svc.CreateSession(r.Context(), req)
		if err != nil {
			metricSessionCreateErrors.Add(1)
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func (h *AdminHandlers) Profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.svc.Profile(r.Context(), chi.URLParam(r, "user_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (h *AdminHandlers) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.History(r.Context(), r.URL.Query().Get("user_id"), parseLimit(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
