package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	WSURL     string `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	UserID    string `env:"USER_ID" envDefault:"bot"`
	SessionID string `env:"SESSION_ID,required,notEmpty"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
