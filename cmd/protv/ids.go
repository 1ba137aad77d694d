package main

import (
	"fmt"
	"time"

	"protv/internal/intake"
	"protv/internal/utils"

	"github.com/urfave/cli/v2"
)

var appIDCommand = &cli.Command{
	Name:  "appid",
	Usage: "Generate application and submission ids",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of id pairs to generate",
			Value:   1,
		},
		&cli.StringFlag{
			Name:    "key",
			Aliases: []string{"k"},
			Usage:   "Idempotency key to derive the submission id from",
		},
	},
	Action: func(c *cli.Context) error {
		count := c.Int("count")
		key := c.String("key")
		for range count {
			fmt.Printf("%s\t%s\n", intake.NewApplicationID(time.Now().UTC()), intake.NewSubmissionID(key))
		}
		return nil
	},
}

var nanoidCommand = &cli.Command{
	Name:  "nanoid",
	Usage: "Generate NanoIDs for use as idempotency keys",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of IDs to generate",
			Value:   1,
		},
	},
	Action: func(c *cli.Context) error {
		count := c.Int("count")
		for range count {
			fmt.Println(utils.NanoID())
		}
		return nil
	},
}
