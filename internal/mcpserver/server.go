// Package mcpserver exposes session play as MCP tools for agent clients.
package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"ludo-arena/internal/app/session"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Server struct {
	svc *session.Service

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(svc *session.Service) *Server {
	mcpSrv := server.NewMCPServer(
		"ludo-arena",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		svc:        svc,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerSessionTools()
	s.registerGameplayTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"session://{session_id}/view",
			"session_view",
			mcp.WithTemplateDescription("Public snapshot of a Ludo session"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := request.Params.URI
			if !strings.HasPrefix(raw, "session://") || !strings.HasSuffix(raw, "/view") {
				return nil, nil
			}
			sessionID := strings.TrimSuffix(strings.TrimPrefix(raw, "session://"), "/view")
			if sessionID == "" {
				return nil, nil
			}
			view, err := s.svc.View(ctx, sessionID)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(view)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      raw,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}
