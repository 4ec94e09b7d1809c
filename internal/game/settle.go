package game

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Economy holds the payout table applied once per finished session.
type Economy struct {
	StartingCoins int64 `yaml:"starting_coins" json:"starting_coins"`
	WinCoins      int64 `yaml:"win_coins" json:"win_coins"`
	LossCoins     int64 `yaml:"loss_coins" json:"loss_coins"`
}

func DefaultEconomy() Economy {
	return Economy{StartingCoins: 100, WinCoins: 50, LossCoins: 5}
}

// LoadEconomy reads a YAML economy document. Keys that are absent keep their
// defaults; an empty path returns the defaults.
func LoadEconomy(path string) (Economy, error) {
	eco := DefaultEconomy()
	if path == "" {
		return eco, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Economy{}, fmt.Errorf("read economy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &eco); err != nil {
		return Economy{}, fmt.Errorf("parse economy file: %w", err)
	}
	if eco.StartingCoins < 0 || eco.WinCoins < 0 || eco.LossCoins < 0 {
		return Economy{}, fmt.Errorf("economy amounts must be non-negative: %+v", eco)
	}
	return eco, nil
}

func (e Economy) NewProfile(userID string, now time.Time) Profile {
	return Profile{UserID: userID, Coins: e.StartingCoins, CreatedAt: now}
}

// ResultDelta is one match outcome as increments, so a store can apply it in
// a single atomic update no matter how many sessions settle the same player.
type ResultDelta struct {
	Coins int64
	Won   bool
}

func (e Economy) Delta(won bool) ResultDelta {
	if won {
		return ResultDelta{Coins: e.WinCoins, Won: true}
	}
	return ResultDelta{Coins: e.LossCoins}
}

// Apply returns p with d added.
func (d ResultDelta) Apply(p Profile) Profile {
	p.Coins += d.Coins
	if d.Won {
		p.Wins++
		p.WinStreak++
		return p
	}
	p.Losses++
	p.WinStreak = 0
	return p
}

func NewMatchRecord(id string, s *Session, winnerID string, now time.Time) MatchRecord {
	results := make([]PlayerResult, 0, len(s.Players))
	for _, p := range s.Players {
		r := ResultLoss
		if p.UserID == winnerID {
			r = ResultWin
		}
		results = append(results, PlayerResult{UserID: p.UserID, Result: r})
	}
	return MatchRecord{
		ID:        id,
		MatchID:   s.ID,
		Mode:      s.Mode,
		Players:   results,
		WinnerID:  winnerID,
		CreatedAt: now,
	}
}
