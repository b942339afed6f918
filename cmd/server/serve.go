// cmd/server/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/happyfamilies/internal/cache"
	"github.com/jason-s-yu/happyfamilies/internal/catalog"
	"github.com/jason-s-yu/happyfamilies/internal/config"
	"github.com/jason-s-yu/happyfamilies/internal/database"
	"github.com/jason-s-yu/happyfamilies/internal/handlers"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server (default).",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger()

	cat, closeCatalog, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCatalog()

	gs := handlers.NewGameServer(cat, cfg.Rules(), logger)
	gs.PublicURL = cfg.PublicURL

	if cfg.RedisAddr != "" {
		pub, err := cache.NewPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisQueue, logger)
		if err != nil {
			logger.WithError(err).Warn("action log disabled")
		} else {
			defer pub.Close()
			gs.Sessions.ActionLogFn = pub.Record
			logger.WithField("queue", pub.Queue()).Info("publishing game actions to redis")
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(gs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", srv.Addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openCatalog loads the family catalog from Postgres when DATABASE_URL is set, falling back to
// process memory otherwise. Generation is enabled only with a Gemini key.
func openCatalog(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*catalog.Catalog, func(), error) {
	closer := func() {}

	var store catalog.Store
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := database.NewFamilyRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		store = repo
		closer = pool.Close
		logger.Info("family catalog backed by postgres")
	}

	var gen catalog.Generator
	if cfg.GeminiAPIKey != "" {
		gen = catalog.NewGeminiGenerator(catalog.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
		})
		logger.WithField("model", cfg.GeminiModel).Info("family generation enabled")
	} else {
		logger.Warn("GEMINI_API_KEY not set, the catalog will not grow")
	}

	cat := catalog.New(store, gen, logger)
	if err := cat.Load(ctx); err != nil {
		closer()
		return nil, nil, err
	}
	return cat, closer, nil
}
