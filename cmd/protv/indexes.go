package main

import (
	"context"
	"fmt"

	"protv/internal/store"

	"github.com/urfave/cli/v2"
)

var indexesCommand = &cli.Command{
	Name:  "indexes",
	Usage: "Create the application store indexes",
	Action: func(cCtx *cli.Context) error {
		logger := newLogger()

		cfg, err := loadConfig(cCtx)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		applicationStore, err := store.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to application store: %w", err)
		}
		defer closeStore(logger, applicationStore)

		logger.WithField("driver", cfg.StoreDriver).Info("connected to application store")

		if err := applicationStore.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		logger.Info("indexes created")
		return nil
	},
}
