package bot

import (
	"testing"
	"time"

	"ludo-arena/internal/game"
)

func session(t *testing.T, a, b [4]int) *game.Session {
	t.Helper()
	s, err := game.NewSession("s1", game.ModeTwoPlayer, []string{"a", "b"}, time.Unix(0, 0), time.Second)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	s.Players[0].Tokens = a
	s.Players[1].Tokens = b
	return s
}

func TestChooseTokenNoMoveWhenAllHomeWithoutSix(t *testing.T) {
	s := session(t, [4]int{-1, -1, -1, -1}, [4]int{-1, -1, -1, -1})
	if idx, ok := ChooseToken(s, "a", 3); ok {
		t.Fatalf("expected no move, got token %d", idx)
	}
}

func TestChooseTokenPrefersCaptureOverProgress(t *testing.T) {
	s := session(t, [4]int{10, 30, -1, -1}, [4]int{14, -1, -1, -1})
	idx, ok := ChooseToken(s, "a", 4)
	if !ok || idx != 0 {
		t.Fatalf("got %d,%v want capture token 0", idx, ok)
	}
}

func TestChooseTokenCaptureTiesByLowestIndex(t *testing.T) {
	s := session(t, [4]int{-1, 10, 12, 20}, [4]int{14, 16, -1, -1})
	idx, ok := ChooseToken(s, "a", 4)
	if !ok || idx != 1 {
		t.Fatalf("got %d,%v want token 1", idx, ok)
	}
}

func TestChooseTokenFurthestTargetWithoutCapture(t *testing.T) {
	s := session(t, [4]int{5, 40, 40, 50}, [4]int{-1, -1, -1, -1})
	idx, ok := ChooseToken(s, "a", 3)
	if !ok || idx != 1 {
		t.Fatalf("got %d,%v want token 1 (50 overshoots, 1 ties with 2)", idx, ok)
	}
}

func TestChooseTokenOpensOnSix(t *testing.T) {
	s := session(t, [4]int{-1, 52, 52, 52}, [4]int{-1, -1, -1, -1})
	s.Players[0].FinishedCount = 3
	idx, ok := ChooseToken(s, "a", 6)
	if !ok || idx != 0 {
		t.Fatalf("got %d,%v want token 0", idx, ok)
	}
	if _, ok := ChooseToken(s, "a", 5); ok {
		t.Fatal("home token cannot open on 5")
	}
}

func TestChooseTokenRunsHomeOntoOccupiedFinish(t *testing.T) {
	s := session(t, [4]int{20, 50, -1, -1}, [4]int{52, 30, -1, -1})
	s.Players[1].FinishedCount = 1
	idx, ok := ChooseToken(s, "a", 2)
	if !ok || idx != 1 {
		t.Fatalf("got %d,%v want token 1 landing on the occupied finish cell", idx, ok)
	}
}

func TestChooseTokenUnknownActor(t *testing.T) {
	s := session(t, [4]int{0, 0, 0, 0}, [4]int{0, 0, 0, 0})
	if _, ok := ChooseToken(s, "zz", 2); ok {
		t.Fatal("unknown actor should have no move")
	}
}
