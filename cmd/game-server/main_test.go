package main

import (
	"context"
	"testing"

	"ludo-arena/internal/config"
)

func TestOpenStoreMemory(t *testing.T) {
	st, err := openStore(context.Background(), config.ServerConfig{StoreDriver: config.StoreDriverMemory})
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	defer st.Close()
	if err := st.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	if _, err := openStore(context.Background(), config.ServerConfig{StoreDriver: "sqlite"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
