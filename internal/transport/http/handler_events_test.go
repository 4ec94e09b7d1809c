package httptransport

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type parsedSSE struct {
	ID    string
	Event string
	Data  string
}

func readEventWithTimeout(t *testing.T, rd *bufio.Reader, timeout time.Duration) parsedSSE {
	t.Helper()
	ch := make(chan parsedSSE, 1)
	errCh := make(chan error, 1)
	go func() {
		ev, err := readEvent(rd)
		if err != nil {
			errCh <- err
			return
		}
		ch <- ev
	}()
	select {
	case ev := <-ch:
		return ev
	case err := <-errCh:
		t.Fatalf("read event: %v", err)
	case <-time.After(timeout):
		t.Fatal("timeout waiting for sse event")
	}
	return parsedSSE{}
}

func readEvent(rd *bufio.Reader) (parsedSSE, error) {
	ev := parsedSSE{}
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return ev, err
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return ev, nil
		}
		switch {
		case strings.HasPrefix(line, "id: "):
			ev.ID = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.Data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func openStream(t *testing.T, ctx context.Context, url, lastEventID string) (*http.Response, *bufio.Reader) {
	t.Helper()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open sse: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sse status = %d", resp.StatusCode)
	}
	return resp, bufio.NewReader(resp.Body)
}

func TestEventsReplayAndLastEventID(t *testing.T) {
	r, a := newTestRouter(t, 6, 3)
	a.Seed(t, "s1", "ann", "bob")
	srv := httptest.NewServer(r)
	defer srv.Close()

	if w := do(t, r, http.MethodPost, "/api/sessions/s1/roll", "ann", nil); w.Code != http.StatusOK {
		t.Fatalf("roll status=%d", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/api/sessions/s1/move", "ann", map[string]any{"token_index": 0}); w.Code != http.StatusOK {
		t.Fatalf("move status=%d", w.Code)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp, rd := openStream(t, ctx, srv.URL+"/api/sessions/s1/events", "")
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	first := readEventWithTimeout(t, rd, time.Second)
	second := readEventWithTimeout(t, rd, time.Second)
	if first.ID != "1" || first.Event != "dice_rolled" || second.ID != "2" || second.Event != "token_moved" {
		t.Fatalf("replay = %+v %+v", first, second)
	}

	resp2, rd2 := openStream(t, ctx, srv.URL+"/api/sessions/s1/events", "1")
	defer resp2.Body.Close()
	if ev := readEventWithTimeout(t, rd2, time.Second); ev.ID != "2" {
		t.Fatalf("replay after 1 = %+v", ev)
	}

	if w := do(t, r, http.MethodPost, "/api/sessions/s1/roll", "ann", nil); w.Code != http.StatusOK {
		t.Fatalf("second roll status=%d", w.Code)
	}
	live := readEventWithTimeout(t, rd2, time.Second)
	if live.ID != "3" || live.Event != "dice_rolled" || !strings.Contains(live.Data, `"dice":3`) {
		t.Fatalf("live = %+v", live)
	}
}

func TestEventsHeartbeat(t *testing.T) {
	prev := pingInterval
	pingInterval = 20 * time.Millisecond
	defer func() { pingInterval = prev }()

	r, a := newTestRouter(t)
	a.Seed(t, "s1", "ann", "bob")
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp, rd := openStream(t, ctx, srv.URL+"/api/sessions/s1/events", "")
	defer resp.Body.Close()
	if ev := readEventWithTimeout(t, rd, time.Second); ev.Event != "ping" || ev.ID != "" {
		t.Fatalf("heartbeat = %+v", ev)
	}
}

func TestEventsUnknownSession(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/sessions/missing/events", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}
