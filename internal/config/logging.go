package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// LogConfig drives the process-wide zerolog logger. Service tags every line so
// the game server and the bot can share one log pipeline.
type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SampleEvery int    `env:"LOG_SAMPLE_EVERY" envDefault:"0"`
	File        string `env:"LOG_FILE"`
	MaxMB       int    `env:"LOG_MAX_MB" envDefault:"10"`
	Service     string `env:"LOG_SERVICE" envDefault:"ludo-arena"`
}

func LoadLog() (LogConfig, error) {
	var cfg LogConfig
	if err := env.Parse(&cfg); err != nil {
		return LogConfig{}, err
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err != nil {
		return LogConfig{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.MaxMB < 0 {
		return LogConfig{}, fmt.Errorf("LOG_MAX_MB must be >= 0, got %d", cfg.MaxMB)
	}
	return cfg, nil
}
