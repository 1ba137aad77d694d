package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"protv/internal/intake"
	"protv/internal/seed"
	"protv/internal/store"

	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Submit fake applications through the intake workflow",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of applications to submit",
			Value:   6,
		},
	},
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

		fileStorage, err := newStorage(ctx, cfg, logger)
		if err != nil {
			return err
		}

		intakeService, err := intake.New(logger, fileStorage, applicationStore, nil)
		if err != nil {
			return err
		}

		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		if err := seed.SeedApplications(ctx, logger, intakeService, cCtx.Int("count"), rng); err != nil {
			return err
		}

		return nil
	},
}
