package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type GameConfig struct {
	TurnTime        time.Duration `env:"TURN_TIME" envDefault:"30s"`
	ReconnectGrace  time.Duration `env:"RECONNECT_GRACE" envDefault:"60s"`
	RetentionWindow time.Duration `env:"RETENTION_WINDOW" envDefault:"30m"`
	TickInterval    time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	LockTimeout     time.Duration `env:"LOCK_TIMEOUT" envDefault:"5s"`

	BotThinkDelay time.Duration `env:"BOT_THINK_DELAY" envDefault:"1500ms"`
	BotMoveDelay  time.Duration `env:"BOT_MOVE_DELAY" envDefault:"1s"`

	SupervisorParallelism int    `env:"SUPERVISOR_PARALLELISM" envDefault:"8"`
	EventBufferSize       int    `env:"EVENT_BUFFER_SIZE" envDefault:"256"`
	RulesPath             string `env:"GAME_RULES_PATH"`
}

func LoadGame() (GameConfig, error) {
	var cfg GameConfig
	if err := env.Parse(&cfg); err != nil {
		return GameConfig{}, err
	}
	if cfg.TurnTime <= 0 || cfg.TickInterval <= 0 {
		return GameConfig{}, fmt.Errorf("TURN_TIME and TICK_INTERVAL must be positive")
	}
	if cfg.ReconnectGrace < 0 || cfg.RetentionWindow < 0 || cfg.LockTimeout < 0 {
		return GameConfig{}, fmt.Errorf("durations must not be negative")
	}
	return cfg, nil
}
