package config

import (
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/ludo?sslmode=disable")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.StoreDriver != StoreDriverPostgres || !cfg.MCPEnabled {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
}

func TestLoadServerRequiresPostgresDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	_, err := LoadServer()
	if err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}

func TestLoadServerMongoDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	if _, err := LoadServer(); err == nil {
		t.Fatal("LoadServer() expected error without MONGO_URI")
	}
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.MongoDatabase != "ludo" {
		t.Fatalf("MongoDatabase = %q", cfg.MongoDatabase)
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MCP_ENABLED", "false")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.MCPEnabled || cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}

func TestLoadServerRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	if _, err := LoadServer(); err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}
