// cmd/server/historian.go
package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/happyfamilies/internal/cache"
	"github.com/jason-s-yu/happyfamilies/internal/config"
	"github.com/jason-s-yu/happyfamilies/internal/database"
	"github.com/jason-s-yu/happyfamilies/internal/historian"
	"github.com/spf13/cobra"
)

func newHistorianCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "historian",
		Short: "Archive game actions from the Redis queue into Postgres.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseURL == "" || cfg.RedisAddr == "" {
				return errors.New("historian needs both DATABASE_URL and REDIS_ADDR")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := cfg.NewLogger()

			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := database.NewHistoryRepository(pool)
			if err := repo.EnsureSchema(ctx); err != nil {
				return err
			}

			rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
			if err != nil {
				return err
			}
			defer rdb.Close()

			hs := historian.New(rdb, repo, historian.Config{
				Queue:         cfg.RedisQueue,
				BatchSize:     cfg.Historian.BatchSize,
				FlushInterval: cfg.Historian.FlushInterval,
				Inactivity:    cfg.Historian.Inactivity,
			}, logger)
			return hs.Run(ctx)
		},
	}
}
