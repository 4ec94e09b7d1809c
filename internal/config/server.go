package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

type ServerConfig struct {
	StoreDriver   string `env:"STORE_DRIVER" envDefault:"postgres"`
	PostgresDSN   string `env:"POSTGRES_DSN"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"ludo"`
	RedisURL      string `env:"REDIS_URL"`

	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	MCPEnabled         bool          `env:"MCP_ENABLED" envDefault:"true"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, err
	}
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.PostgresDSN == "" {
			return ServerConfig{}, fmt.Errorf("POSTGRES_DSN is required for STORE_DRIVER=postgres")
		}
	case StoreDriverMongo:
		if cfg.MongoURI == "" {
			return ServerConfig{}, fmt.Errorf("MONGO_URI is required for STORE_DRIVER=mongo")
		}
	case StoreDriverMemory:
	default:
		return ServerConfig{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}
