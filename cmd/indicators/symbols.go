package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func symbolsCommand() *cli.Command {
	return &cli.Command{
		Name:  "symbols",
		Usage: "List the symbols of a bar file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to a parquet or CSV file of bars",
				Required: true,
			},
		},
		Action: symbolsAction,
	}
}

func symbolsAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := newRuntime(cmd, cmd.String("data"))
	if err != nil {
		return err
	}
	defer rt.close()

	symbols, err := rt.service.Symbols(ctx)
	if err != nil {
		return err
	}

	for _, symbol := range symbols {
		if _, err := fmt.Fprintln(cmd.Root().Writer, symbol); err != nil {
			return err
		}
	}

	return nil
}
