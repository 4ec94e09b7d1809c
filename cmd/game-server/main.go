package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ludo-arena/internal/app/session"
	"ludo-arena/internal/config"
	"ludo-arena/internal/engine"
	"ludo-arena/internal/game"
	"ludo-arena/internal/logging"
	"ludo-arena/internal/notify"
	"ludo-arena/internal/sessionlock"
	"ludo-arena/internal/store"
	"ludo-arena/internal/store/memstore"
	"ludo-arena/internal/store/mongostore"
	"ludo-arena/internal/supervisor"
	httptransport "ludo-arena/internal/transport/http"
	"ludo-arena/internal/ws"

	"github.com/rs/zerolog/log"
)

// backend is everything the process needs from a store driver.
type backend interface {
	engine.SessionStore
	engine.ProfileStore
	engine.HistoryStore
	supervisor.Store
	session.Store
	Close()
}

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.AppConfig) error {
	eco, err := game.LoadEconomy(cfg.Game.RulesPath)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg.Server)
	if err != nil {
		return err
	}
	defer st.Close()

	locks := sessionlock.New(cfg.Game.LockTimeout)
	hub := notify.NewHub(cfg.Game.EventBufferSize)
	defer hub.Close()
	notifier := notify.Fanout{hub}
	if cfg.Server.RedisURL != "" {
		pub, err := notify.NewRedisPublisher(cfg.Server.RedisURL)
		if err != nil {
			return err
		}
		defer pub.Close()
		if err := pub.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		notifier = append(notifier, pub)
		log.Info().Msg("redis event publishing enabled")
	}

	eng := engine.New(engine.Deps{
		Sessions: st,
		Profiles: st,
		History:  st,
		Locks:    locks,
		Notifier: notifier,
	}, engine.Config{
		TurnTime:      cfg.Game.TurnTime,
		BotThinkDelay: cfg.Game.BotThinkDelay,
		BotMoveDelay:  cfg.Game.BotMoveDelay,
		Economy:       eco,
	})
	defer eng.Close()

	sup := supervisor.New(st, locks, eng, notifier, supervisor.Config{
		TickInterval:    cfg.Game.TickInterval,
		TurnTime:        cfg.Game.TurnTime,
		ReconnectGrace:  cfg.Game.ReconnectGrace,
		RetentionWindow: cfg.Game.RetentionWindow,
		Parallelism:     cfg.Game.SupervisorParallelism,
	}, hub)
	supCtx, cancelSup := context.WithCancel(context.Background())
	sup.Start(supCtx)

	svc := session.NewService(st, eng, eco)
	wsSrv := ws.NewServer(svc, hub)
	r := httptransport.NewRouter(httptransport.Deps{Service: svc, Hub: hub, WS: wsSrv}, cfg.Server)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Str("store", cfg.Server.StoreDriver).Msg("http listening")
		serveErr <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown incomplete")
	}
	wsSrv.Close()
	cancelSup()
	select {
	case <-sup.Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("supervisor did not stop before the shutdown deadline")
	}
	log.Info().Msg("server stopped")
	return runErr
}

func openStore(ctx context.Context, cfg config.ServerConfig) (backend, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		st, err := store.New(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := st.Ping(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		return st, nil
	case config.StoreDriverMongo:
		st, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StoreDriverMemory:
		log.Warn().Msg("memory store selected; sessions do not survive a restart")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
