package main

import (
	"context"
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-indicators/internal/datasource"
	"github.com/rxtech-lab/argo-indicators/internal/writer"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func dateFlag(name, alias, usage string) *cli.TimestampFlag {
	return &cli.TimestampFlag{
		Name:    name,
		Aliases: []string{alias},
		Usage:   usage,
		Config: cli.TimestampConfig{
			Layouts: []string{"2006-01-02", time.RFC3339},
		},
	}
}

func computeCommand() *cli.Command {
	return &cli.Command{
		Name:  "compute",
		Usage: "Compute the indicator series of one symbol and export it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to a parquet or CSV file of bars",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Symbol to compute",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Output file path",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (json or parquet). Overrides the config file.",
			},
			dateFlag("start", "S", "Only bars at or after this time (`YYYY-MM-DD` or RFC3339)"),
			dateFlag("end", "E", "Only bars at or before this time (`YYYY-MM-DD` or RFC3339)"),
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide the progress bar",
			},
		},
		Action: computeAction,
	}
}

// queryFromFlags builds the bar query from the symbol and optional time bounds.
func queryFromFlags(cmd *cli.Command) datasource.BarQuery {
	q := datasource.BarQuery{
		Symbol: cmd.String("symbol"),
		Start:  optional.None[time.Time](),
		End:    optional.None[time.Time](),
	}

	if cmd.IsSet("start") {
		q.Start = optional.Some(cmd.Timestamp("start"))
	}

	if cmd.IsSet("end") {
		q.End = optional.Some(cmd.Timestamp("end"))
	}

	return q
}

func computeAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := newRuntime(cmd, cmd.String("data"))
	if err != nil {
		return err
	}
	defer rt.close()

	format := rt.config.Output.Format
	if cmd.IsSet("format") {
		format = cmd.String("format")
	}

	w, err := writer.New(format, cmd.String("output"), rt.config.Output.Precision, rt.logger)
	if err != nil {
		return err
	}

	q := queryFromFlags(cmd)

	var (
		bar      *progressbar.ProgressBar
		progress writer.Progress
	)

	if !cmd.Bool("quiet") {
		total, err := rt.source.Count(ctx, q)
		if err != nil {
			return err
		}

		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription(fmt.Sprintf("Writing %s", q.Symbol)),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(cmd.Root().ErrWriter),
		)
		progress = bar
	}

	outputPath, err := rt.service.Export(ctx, q, w, progress)
	if err != nil {
		return err
	}

	// Count includes bars the skip policy drops, so the bar may stop short.
	if bar != nil {
		_ = bar.Finish()
	}

	rt.logger.Info("Indicator series written",
		zap.String("symbol", q.Symbol),
		zap.String("format", format),
		zap.String("path", outputPath),
	)

	return nil
}
