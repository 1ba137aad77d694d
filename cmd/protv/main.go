package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "protv",
		Usage: "PROTV job application intake API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Aliases: []string{"e"},
				Usage:   "Optional .env file loaded before the environment is read",
				Value:   ".env",
			},
		},
		Commands: []*cli.Command{
			serveCommand,
			indexesCommand,
			seedCommand,
			showCommand,
			appIDCommand,
			nanoidCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
