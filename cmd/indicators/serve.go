package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-indicators/internal/api"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve indicator series over HTTP and WebSocket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to a parquet or CSV file of bars. Without it only POSTed bars can be computed.",
			},
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "Listen address. Overrides the config file.",
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := newRuntime(cmd, cmd.String("data"))
	if err != nil {
		return err
	}
	defer rt.close()

	address := rt.config.Server.Address
	if cmd.IsSet("addr") {
		address = cmd.String("addr")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(rt.service, rt.metrics, rt.logger)

	return server.ListenAndServe(ctx, address)
}
