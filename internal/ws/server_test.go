package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ludo-arena/internal/game"
	"ludo-arena/internal/testutil"

	"github.com/gorilla/websocket"
)

type wsFixture struct {
	arena *testutil.Arena
	srv   *Server
	http  *httptest.Server
}

func newFixture(t *testing.T, dice ...int) *wsFixture {
	t.Helper()
	a := testutil.NewArena(t, dice...)
	a.Seed(t, "s1", "ann", "bob")
	srv := NewServer(a.Service, a.Hub)
	hs := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Close()
		hs.Close()
	})
	return &wsFixture{arena: a, srv: srv, http: hs}
}

func (f *wsFixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws?" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", query, err, status)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readType returns the next message of the wanted type, skipping others.
func readType(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		var msg map[string]any
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
		if msg["type"] == want {
			return msg
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPlayerRollsOverSocket(t *testing.T) {
	f := newFixture(t, 4)
	conn := f.dial(t, "session_id=s1&user_id=ann")

	welcome := readType(t, conn, "welcome")
	if welcome["role"] != RolePlayer || welcome["connection_id"] == "" {
		t.Fatalf("welcome = %v", welcome)
	}

	if err := conn.WriteJSON(map[string]any{"type": TypeRollDice, "request_id": "r1"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	res := readType(t, conn, "action_result")
	if res["ok"] != true || res["request_id"] != "r1" {
		t.Fatalf("result = %v", res)
	}
	ev := readType(t, conn, "event")
	inner := ev["event"].(map[string]any)
	if inner["event"] != string(game.EventDiceRolled) {
		t.Fatalf("event = %v", inner)
	}
}

func TestActionErrorsOverSocket(t *testing.T) {
	f := newFixture(t, 3)
	conn := f.dial(t, "session_id=s1&user_id=bob")
	readType(t, conn, "welcome")

	tests := []struct {
		name string
		msg  map[string]any
		want string
	}{
		{name: "missing request id", msg: map[string]any{"type": TypeRollDice}, want: "invalid_request_id"},
		{name: "request id too long", msg: map[string]any{"type": TypeRollDice, "request_id": strings.Repeat("a", 65)}, want: "invalid_request_id"},
		{name: "not your turn", msg: map[string]any{"type": TypeRollDice, "request_id": "r2"}, want: "invalid_turn"},
		{name: "move without token", msg: map[string]any{"type": TypeMoveToken, "request_id": "r3"}, want: "invalid_request"},
		{name: "unknown type", msg: map[string]any{"type": "fold", "request_id": "r4"}, want: "unknown_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteJSON(tt.msg); err != nil {
				t.Fatalf("write: %v", err)
			}
			res := readType(t, conn, "action_result")
			if res["ok"] == true || res["error"] != tt.want {
				t.Fatalf("result = %v, want error %s", res, tt.want)
			}
		})
	}
}

func TestSpectatorIsReadOnly(t *testing.T) {
	f := newFixture(t, 5)
	watcher := f.dial(t, "session_id=s1&role=spectator")
	if w := readType(t, watcher, "welcome"); w["role"] != RoleSpectator {
		t.Fatalf("welcome = %v", w)
	}
	if err := watcher.WriteJSON(map[string]any{"type": TypeRollDice, "request_id": "r1"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if res := readType(t, watcher, "action_result"); res["error"] != "spectator_read_only" {
		t.Fatalf("result = %v", res)
	}

	player := f.dial(t, "session_id=s1&user_id=ann")
	readType(t, player, "welcome")
	if err := player.WriteJSON(map[string]any{"type": TypeRollDice, "request_id": "r2"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ev := readType(t, watcher, "event")
	if inner := ev["event"].(map[string]any); inner["event"] != string(game.EventDiceRolled) {
		t.Fatalf("spectator event = %v", inner)
	}
}

func TestSocketLossMarksDisconnected(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "session_id=s1&user_id=bob")
	readType(t, conn, "welcome")
	_ = conn.Close()

	waitFor(t, "bob disconnected", func() bool {
		p := f.arena.Session(t, "s1").Player("bob")
		return p.ConnectionStatus == game.ConnDisconnected && p.DisconnectTime != nil
	})

	again := f.dial(t, "session_id=s1&user_id=bob")
	readType(t, again, "welcome")
	if got := f.arena.Session(t, "s1").Player("bob").ConnectionStatus; got != game.ConnActive {
		t.Fatalf("bob after reconnect = %s", got)
	}
}

func TestNewerSocketTakesOverSeat(t *testing.T) {
	f := newFixture(t)
	first := f.dial(t, "session_id=s1&user_id=ann")
	readType(t, first, "welcome")
	second := f.dial(t, "session_id=s1&user_id=ann")
	readType(t, second, "welcome")

	_ = first.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}
	time.Sleep(50 * time.Millisecond)
	if got := f.arena.Session(t, "s1").Player("ann").ConnectionStatus; got != game.ConnActive {
		t.Fatalf("ann after takeover = %s", got)
	}
}

func TestDialRejectsUnknownSessionAndStranger(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws?session_id=nope&user_id=ann"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown session dial err=%v resp=%v", err, resp)
	}

	conn := f.dial(t, "session_id=s1&user_id=eve")
	res := readType(t, conn, "join_result")
	if res["error"] != "player_not_found" {
		t.Fatalf("join result = %v", res)
	}
}
