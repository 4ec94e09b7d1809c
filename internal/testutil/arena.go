package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"ludo-arena/internal/app/session"
	"ludo-arena/internal/engine"
	"ludo-arena/internal/game"
	"ludo-arena/internal/notify"
	"ludo-arena/internal/sessionlock"
	"ludo-arena/internal/store/memstore"
)

// Arena wires the in-memory store, engine, hub and session service the way
// the server does, for transport tests.
type Arena struct {
	Store   *memstore.Store
	Locks   *sessionlock.Registry
	Hub     *notify.Hub
	Engine  *engine.Engine
	Service *session.Service
}

// NewArena builds an Arena whose dice follow values (see ScriptedDice). With
// no values every roll is a three.
func NewArena(t testing.TB, values ...int) *Arena {
	t.Helper()
	if len(values) == 0 {
		values = []int{3}
	}
	st := memstore.New()
	locks := sessionlock.New(time.Second)
	hub := notify.NewHub(64)
	eco := game.DefaultEconomy()
	eng := engine.New(engine.Deps{
		Sessions: st,
		Profiles: st,
		History:  st,
		Locks:    locks,
		Notifier: hub,
	}, engine.Config{TurnTime: 30 * time.Second, Economy: eco}, engine.WithDice(ScriptedDice(values...)))
	t.Cleanup(func() {
		eng.Close()
		hub.Close()
	})
	return &Arena{
		Store:   st,
		Locks:   locks,
		Hub:     hub,
		Engine:  eng,
		Service: session.NewService(st, eng, eco),
	}
}

// Seed stores a fresh session with a known id and profiles for every player.
func (a *Arena) Seed(t testing.TB, id string, userIDs ...string) *game.Session {
	t.Helper()
	mode := game.ModeTwoPlayer
	if len(userIDs) == 4 {
		mode = game.ModeFourPlayer
	}
	now := time.Now()
	s, err := game.NewSession(id, mode, userIDs, now, a.Engine.TurnTime())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	ctx := context.Background()
	eco := game.DefaultEconomy()
	for _, uid := range userIDs {
		if err := a.Store.EnsureProfile(ctx, eco.NewProfile(uid, now)); err != nil {
			t.Fatalf("ensure profile: %v", err)
		}
	}
	if err := a.Store.CreateSession(ctx, s); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

// Mutate rewrites the stored session through fn.
func (a *Arena) Mutate(t testing.TB, id string, fn func(s *game.Session)) {
	t.Helper()
	ctx := context.Background()
	s, err := a.Store.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	fn(s)
	fields := append([]game.Field{game.FieldStatus, game.FieldWinner}, game.TurnFields...)
	if err := a.Store.UpdateSession(ctx, s, fields...); err != nil {
		t.Fatalf("mutate session: %v", err)
	}
}

func (a *Arena) Session(t testing.TB, id string) *game.Session {
	t.Helper()
	s, err := a.Store.GetSession(context.Background(), id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	return s
}

// ScriptedDice returns the given values in order, then repeats the last.
func ScriptedDice(values ...int) func() int {
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
