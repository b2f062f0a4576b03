package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/lobby-chat/internal/broadcast"
	"github.com/weiawesome/lobby-chat/internal/config"
	"github.com/weiawesome/lobby-chat/internal/handler"
	"github.com/weiawesome/lobby-chat/internal/history"
	"github.com/weiawesome/lobby-chat/internal/hub"
	"github.com/weiawesome/lobby-chat/internal/idgen"
	"github.com/weiawesome/lobby-chat/internal/presence"
	"github.com/weiawesome/lobby-chat/internal/session"
	pkglog "github.com/weiawesome/lobby-chat/pkg/log"
	"github.com/weiawesome/lobby-chat/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	if cfg.Log.ServiceName == "" {
		cfg.Log.ServiceName = "lobby-chat"
	}
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = pkglog.WithLogger(ctx, logger)

	ids, err := idgen.NewSnowflake(cfg.History.MachineID, idgen.DefaultEpoch)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create id generator")
	}

	// Initialize history store
	store, err := newHistoryStore(ctx, cfg, ids)
	if err != nil {
		logger.Fatal().Err(err).Str(pkglog.FieldBackend, cfg.History.Backend).Msg("failed to create history store")
	}
	defer store.Close()

	if err := store.Initialize(ctx); err != nil {
		logger.Fatal().Err(err).Str(pkglog.FieldBackend, cfg.History.Backend).Msg("failed to initialize history store")
	}
	stored, _ := store.Len(ctx)
	logger.Info().
		Str(pkglog.FieldBackend, cfg.History.Backend).
		Int("messages", stored).
		Int("max_entries", cfg.History.MaxEntries).
		Msg("history store ready")

	// Initialize hub and session manager
	wsHub := hub.NewHub(cfg.WebSocket)
	sessions := session.NewManager(cfg.Session(), presence.NewRegistry(), store, broadcast.NewRouter(wsHub))

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	handler.NewHandler(sessions, cfg.Server.PublicDir).RegisterRoutes(r)
	handler.NewWSHandler(wsHub, sessions, cfg.WebSocket).RegisterRoutes(r)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sessions.Run(gCtx)
		return nil
	})

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Str("mode", string(sessions.Mode())).Msg("lobby-chat listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		wsHub.CloseAll()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("lobby-chat stopped with error")
		return
	}
	logger.Info().Msg("lobby-chat stopped")
}

func newHistoryStore(ctx context.Context, cfg *config.Config, ids idgen.Generator) (history.Store, error) {
	switch cfg.History.Backend {
	case config.BackendRedis:
		return history.NewRedisStore(cfg.RedisHistory(), cfg.History.MaxEntries, ids)
	default:
		s, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		return history.NewFileStore(s, cfg.History.Key, cfg.History.MaxEntries, ids), nil
	}
}
