package main

import (
	"context"
	"log"
	"os"

	"github.com/rxtech-lab/argo-indicators/internal/version"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "indicators",
		Usage:   "Compute chart indicators over OHLCV bars",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file. Defaults are used when omitted.",
			},
		},
		Commands: []*cli.Command{
			computeCommand(),
			serveCommand(),
			symbolsCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
