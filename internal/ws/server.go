// Package ws serves the realtime socket players and spectators attach to.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"ludo-arena/internal/app/session"
	"ludo-arena/internal/game"
	"ludo-arena/internal/notify"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	sendBuffer      = 32
	writeWait       = 5 * time.Second
	disconnectGrace = 5 * time.Second
)

type Client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	role      string
	sessionID string
	userID    string
	closed    bool
	// replaced is set when a newer socket took over this seat; its loss is
	// then not a disconnect.
	replaced bool
}

type seatKey struct {
	sessionID string
	userID    string
}

type Server struct {
	svc      *session.Service
	hub      *notify.Hub
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*Client]struct{}
	bySeat   map[seatKey]*Client
	closed   bool
}

func NewServer(svc *session.Service, hub *notify.Hub) *Server {
	return &Server{
		svc:      svc,
		hub:      hub,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  map[*Client]struct{}{},
		bySeat:   map[seatKey]*Client{},
	}
}

// ServeHTTP upgrades /ws?session_id=&user_id= for players or
// /ws?session_id=&role=spectator for watchers.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := strings.TrimSpace(q.Get("session_id"))
	userID := strings.TrimSpace(q.Get("user_id"))
	role := RolePlayer
	if q.Get("role") == RoleSpectator {
		role = RoleSpectator
		userID = ""
	}
	if sessionID == "" || (role == RolePlayer && userID == "") {
		http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
		return
	}
	if _, err := s.svc.View(r.Context(), sessionID); err != nil {
		code := game.Code(err)
		status := http.StatusServiceUnavailable
		if errors.Is(err, game.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, `{"error":"`+code+`"}`, status)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &Client{
		id:        uuid.NewString(),
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		role:      role,
		sessionID: sessionID,
		userID:    userID,
	}
	if !s.register(c) {
		_ = conn.Close()
		return
	}
	metricConnectionsTotal.Add(1)
	metricConnectionsActive.Add(1)
	logger := log.With().Str("conn_id", c.id).Str("session_id", sessionID).Str("user_id", userID).Str("role", role).Logger()
	logger.Info().Msg("ws connected")

	go s.writeLoop(c)

	if role == RolePlayer {
		if err := s.svc.Reconnect(r.Context(), sessionID, userID); err != nil {
			s.sendJSON(c, ActionResult{Type: "join_result", ProtocolVersion: ProtocolVersion, Error: game.Code(err)})
			logger.Warn().Err(err).Msg("ws join rejected")
			s.unregister(c)
			return
		}
	}
	view, err := s.svc.View(r.Context(), sessionID)
	if err != nil {
		s.unregister(c)
		return
	}
	s.sendJSON(c, Welcome{
		Type:            "welcome",
		ProtocolVersion: ProtocolVersion,
		ConnectionID:    c.id,
		Role:            role,
		UserID:          userID,
		Session:         view,
	})

	buf := s.hub.Buffer(sessionID)
	events := buf.Subscribe()
	go s.pumpEvents(c, events)

	s.readLoop(c)
	buf.Unsubscribe(events)
	if s.unregister(c) && role == RolePlayer {
		ctx, cancel := context.WithTimeout(context.Background(), disconnectGrace)
		if err := s.svc.Disconnect(ctx, sessionID, userID); err != nil {
			logger.Warn().Err(err).Msg("mark disconnected failed")
		}
		cancel()
	}
	logger.Info().Msg("ws closed")
}

func (s *Server) register(c *Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	if c.role != RolePlayer {
		return true
	}
	key := seatKey{c.sessionID, c.userID}
	if old := s.bySeat[key]; old != nil {
		old.replaced = true
		s.closeClient(old)
	}
	s.bySeat[key] = c
	return true
}

// unregister drops c and reports whether its loss leaves the seat without a
// live socket.
func (s *Server) unregister(c *Client) bool {
	s.mu.Lock()
	_, present := s.clients[c]
	delete(s.clients, c)
	owned := false
	if c.role == RolePlayer {
		key := seatKey{c.sessionID, c.userID}
		if s.bySeat[key] == c {
			delete(s.bySeat, key)
			owned = true
		}
	}
	replaced := c.replaced
	closing := s.closed
	s.closeClient(c)
	s.mu.Unlock()
	if present {
		metricConnectionsActive.Add(-1)
	}
	return owned && !replaced && !closing
}

// closeClient stops the send queue; writeLoop then closes the socket, which
// also ends readLoop. Callers hold s.mu.
func (s *Server) closeClient(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Close drops every socket. Seats are left as they are so players can
// reconnect to the next process.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for c := range s.clients {
		s.closeClient(c)
	}
}

func (s *Server) readLoop(c *Client) {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			s.sendJSON(c, ActionResult{Type: "action_result", ProtocolVersion: ProtocolVersion, Error: "invalid_json"})
			continue
		}
		switch base.Type {
		case TypeRollDice, TypeMoveToken, TypeReconnect:
			s.handleAction(c, base.Type, msg)
		default:
			s.sendJSON(c, ActionResult{Type: "action_result", ProtocolVersion: ProtocolVersion, Action: base.Type, Error: "unknown_type"})
		}
	}
}

func (s *Server) handleAction(c *Client, kind string, raw []byte) {
	var msg ActionMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.sendResult(c, kind, "", nil, session.ErrInvalidRequest)
		return
	}
	if msg.RequestID == "" || len(msg.RequestID) > maxRequestIDLen {
		s.sendJSON(c, ActionResult{Type: "action_result", ProtocolVersion: ProtocolVersion, RequestID: msg.RequestID, Action: kind, Error: "invalid_request_id"})
		return
	}
	if c.role != RolePlayer {
		s.sendJSON(c, ActionResult{Type: "action_result", ProtocolVersion: ProtocolVersion, RequestID: msg.RequestID, Action: kind, Error: "spectator_read_only"})
		return
	}
	metricActionsTotal.Add(1)

	ctx := context.Background()
	var (
		data any
		err  error
	)
	switch kind {
	case TypeRollDice:
		data, err = s.svc.Roll(ctx, c.sessionID, c.userID)
	case TypeMoveToken:
		if msg.TokenIndex == nil {
			err = session.ErrInvalidRequest
			break
		}
		data, err = s.svc.Move(ctx, c.sessionID, c.userID, *msg.TokenIndex)
	case TypeReconnect:
		err = s.svc.Reconnect(ctx, c.sessionID, c.userID)
	}
	s.sendResult(c, kind, msg.RequestID, data, err)
}

func (s *Server) sendResult(c *Client, kind, requestID string, data any, err error) {
	res := ActionResult{Type: "action_result", ProtocolVersion: ProtocolVersion, RequestID: requestID, Action: kind, Ok: err == nil}
	if err != nil {
		metricActionErrors.Add(1)
		res.Error = errorCode(err)
	} else {
		res.Data = data
	}
	s.sendJSON(c, res)
}

func errorCode(err error) string {
	if errors.Is(err, session.ErrInvalidRequest) {
		return "invalid_request"
	}
	return game.Code(err)
}

func (s *Server) pumpEvents(c *Client, events <-chan notify.StreamEvent) {
	for ev := range events {
		s.sendJSON(c, EventMessage{Type: "event", ProtocolVersion: ProtocolVersion, Event: ev})
	}
}

func (s *Server) writeLoop(c *Client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// sendJSON queues v without blocking. A socket whose queue is full loses the
// message.
func (s *Server) sendJSON(c *Client, v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("conn_id", c.id).Msg("ws encode failed")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		metricSendDropped.Add(1)
	}
}
