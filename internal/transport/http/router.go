package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"ludo-arena/internal/app/session"
	"ludo-arena/internal/config"
	"ludo-arena/internal/mcpserver"
	"ludo-arena/internal/notify"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	Service *session.Service
	Hub     *notify.Hub
	// WS serves /ws when set.
	WS http.Handler
}

func NewRouter(d Deps, cfg config.ServerConfig) *chi.Mux {
	sessionHandlers := NewSessionHandlers(d.Service)
	adminHandlers := NewAdminHandlers(d.Service)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", HeaderUserID, "X-Admin-Key", "Last-Event-ID", "Mcp-Session-Id"},
		MaxAge:         300,
	}))

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())
	if d.WS != nil {
		r.With(APILogMiddleware()).Get("/ws", d.WS.ServeHTTP)
	}
	if cfg.MCPEnabled {
		mcpSrv := mcpserver.New(d.Service)
		r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", mcpSrv.Handler())
		r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", mcpSrv.Handler())
		r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", mcpSrv.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/sessions/{session_id}", sessionHandlers.Get())
		r.Get("/sessions/{session_id}/events", EventsHandler(d.Service, d.Hub))

		r.Group(func(r chi.Router) {
			r.Use(RequireActor)
			r.Post("/sessions/{session_id}/roll", sessionHandlers.Roll())
			r.Post("/sessions/{session_id}/move", sessionHandlers.Move())
			r.Post("/sessions/{session_id}/disconnect", sessionHandlers.Disconnect())
			r.Post("/sessions/{session_id}/reconnect", sessionHandlers.Reconnect())
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Use(BodyCaptureMiddleware(4096))
			r.Post("/sessions", adminHandlers.CreateSession())
			r.Get("/profiles/{user_id}", adminHandlers.Profile())
			r.Get("/history", adminHandlers.History())
		})

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	fmt.Fprintf(&b, "Registered routes (%d):\n", len(routes))
	for _, rt := range routes {
		fmt.Fprintf(&b, "  %-6s %s\n", rt.Method, rt.Path)
	}
	fmt.Print(b.String())
}
