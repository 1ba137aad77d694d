package main

import (
	"context"
	"errors"
	"fmt"

	"protv/internal/store"
	"protv/pkg/types"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var showCommand = &cli.Command{
	Name:      "show",
	Usage:     "Print a stored application",
	ArgsUsage: "<submission-id>",
	Action: func(cCtx *cli.Context) error {
		submissionID := cCtx.Args().First()
		if submissionID == "" {
			return fmt.Errorf("submission id is required")
		}

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

		app, err := applicationStore.ApplicationBySubmissionID(ctx, submissionID)
		if errors.Is(err, types.ErrApplicationNotFound) {
			return fmt.Errorf("no application with submission id %s", submissionID)
		}
		if err != nil {
			return err
		}

		pp.Println(app)
		return nil
	},
}
