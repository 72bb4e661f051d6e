package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-indicators/internal/config"
	"github.com/rxtech-lab/argo-indicators/internal/datasource"
	"github.com/rxtech-lab/argo-indicators/internal/indicator"
	"github.com/rxtech-lab/argo-indicators/internal/logger"
	"github.com/rxtech-lab/argo-indicators/internal/metrics"
	"github.com/rxtech-lab/argo-indicators/internal/service"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/urfave/cli/v3"
)

// newSourceLoader returns a loader that computes series from source,
// building one service per oscillator mode on first use.
func newSourceLoader(source datasource.BarSource, cfg config.Config, logger *logger.Logger) SeriesLoader {
	var mu sync.Mutex

	services := make(map[types.OscillatorMode]*service.Service)
	m := metrics.NewMetrics()

	serviceFor := func(mode types.OscillatorMode) (*service.Service, error) {
		mu.Lock()
		defer mu.Unlock()

		if svc, ok := services[mode]; ok {
			return svc, nil
		}

		indicators := cfg.Indicators
		indicators.OscillatorMode = mode

		engine, err := indicator.NewEngine(indicators)
		if err != nil {
			return nil, err
		}

		svc, err := service.NewService(source, engine, cfg.ValidationPolicy, logger, m)
		if err != nil {
			return nil, err
		}

		services[mode] = svc

		return svc, nil
	}

	// Loads run as tea commands on their own goroutines.
	return func(ctx context.Context, symbol string, mode types.OscillatorMode) ([]types.IndicatorSeries, error) {
		svc, err := serviceFor(mode)
		if err != nil {
			return nil, err
		}

		return svc.Run(ctx, datasource.BarQuery{Symbol: symbol})
	}
}

func chartAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}

		cfg = loaded
	}

	// The terminal belongs to the viewer, so nothing is logged.
	silent := logger.NewNopLogger()

	source, err := datasource.NewDataSource(":memory:", cfg.DataSource, silent)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := source.Initialize(cmd.String("data")); err != nil {
		return err
	}

	symbols, err := source.Symbols(ctx)
	if err != nil {
		return err
	}

	model := NewModel(newSourceLoader(source, cfg, silent), symbols)

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("chart viewer failed: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "chart",
		Usage: "Browse computed indicator series in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to a parquet or CSV file of bars",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
			},
		},
		Action: chartAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
