package engine

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"ludo-arena/internal/game"
	"ludo-arena/internal/sessionlock"
	"ludo-arena/internal/store/memstore"
)

var testNow = time.Unix(1700000000, 0)

type recorder struct {
	mu     sync.Mutex
	events []game.Event
}

func (r *recorder) Notify(_ context.Context, _ string, ev game.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []game.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]game.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *recorder) count(kind game.EventKind) int {
	n := 0
	for _, k := range r.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

// scriptedDice returns the given values in order, then repeats the last.
func scriptedDice(values ...int) func() int {
	var mu sync.Mutex
	i := 0
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v
	}
}

// flakyStore fails chosen operations on top of the in-memory store.
type flakyStore struct {
	*memstore.Store
	mu            sync.Mutex
	failUpdate    bool
	failProfileOf string
	settleDelay   time.Duration
	updates       int
}

var errStoreDown = errors.New("store unreachable")

func (f *flakyStore) UpdateSession(ctx context.Context, s *game.Session, fields ...game.Field) error {
	f.mu.Lock()
	fail := f.failUpdate
	f.updates++
	f.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return f.Store.UpdateSession(ctx, s, fields...)
}

func (f *flakyStore) ApplyProfileResult(ctx context.Context, userID string, d game.ResultDelta) error {
	if userID == f.failProfileOf {
		return errStoreDown
	}
	if f.settleDelay > 0 {
		time.Sleep(f.settleDelay)
	}
	return f.Store.ApplyProfileResult(ctx, userID, d)
}

type harness struct {
	engine *Engine
	store  *flakyStore
	events *recorder
}

func newHarness(t *testing.T, dice func() int, userIDs ...string) *harness {
	t.Helper()
	if len(userIDs) == 0 {
		userIDs = []string{"a", "b"}
	}
	mode := game.ModeTwoPlayer
	if len(userIDs) == 4 {
		mode = game.ModeFourPlayer
	}
	st := &flakyStore{Store: memstore.New()}
	ctx := context.Background()
	s, err := game.NewSession("s1", mode, userIDs, testNow, 30*time.Second)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := st.CreateSession(ctx, s); err != nil {
		t.Fatalf("create session: %v", err)
	}
	eco := game.DefaultEconomy()
	for _, uid := range userIDs {
		if err := st.EnsureProfile(ctx, eco.NewProfile(uid, testNow)); err != nil {
			t.Fatalf("ensure profile: %v", err)
		}
	}
	rec := &recorder{}
	ids := 0
	e := New(Deps{
		Sessions: st,
		Profiles: st,
		History:  st,
		Locks:    sessionlock.New(time.Second),
		Notifier: rec,
	}, Config{TurnTime: 30 * time.Second, Economy: eco},
		WithDice(dice),
		WithClock(func() time.Time { return testNow }),
		WithIDs(func() string { ids++; return "rec-" + strconv.Itoa(ids) }),
	)
	t.Cleanup(e.Close)
	return &harness{engine: e, store: st, events: rec}
}

// seed overwrites the stored session through mutate.
func (h *harness) seed(t *testing.T, mutate func(s *game.Session)) {
	t.Helper()
	ctx := context.Background()
	s, err := h.store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	mutate(s)
	if err := h.store.Store.UpdateSession(ctx, s, game.FieldPlayers, game.FieldCurrentTurn, game.FieldDiceValue, game.FieldTurnDeadline, game.FieldStatus); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func (h *harness) session(t *testing.T) *game.Session {
	t.Helper()
	s, err := h.store.GetSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	return s
}

func (h *harness) profile(t *testing.T, userID string) game.Profile {
	t.Helper()
	p, err := h.store.GetProfile(context.Background(), userID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	return *p
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
