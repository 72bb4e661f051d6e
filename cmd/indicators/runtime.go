package main

import (
	"fmt"

	"github.com/rxtech-lab/argo-indicators/internal/config"
	"github.com/rxtech-lab/argo-indicators/internal/datasource"
	"github.com/rxtech-lab/argo-indicators/internal/indicator"
	"github.com/rxtech-lab/argo-indicators/internal/logger"
	"github.com/rxtech-lab/argo-indicators/internal/metrics"
	"github.com/rxtech-lab/argo-indicators/internal/service"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// runtime holds everything a subcommand needs. Call close when done.
type runtime struct {
	config  config.Config
	logger  *logger.Logger
	metrics *metrics.Metrics
	source  *datasource.DuckDBDataSource
	service *service.Service
}

// newRuntime loads the config, builds the logger and opens dataPath when it is set.
func newRuntime(cmd *cli.Command, dataPath string) (*runtime, error) {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	log, err := logger.NewLoggerWithLevel(cmd.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	engine, err := indicator.NewEngine(cfg.Indicators)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		config:  cfg,
		logger:  log,
		metrics: metrics.NewMetrics(),
	}

	// A nil *DuckDBDataSource must not reach the service as a non-nil interface.
	var source datasource.BarSource

	if dataPath != "" {
		ds, err := datasource.NewDataSource(":memory:", cfg.DataSource, log)
		if err != nil {
			return nil, err
		}

		if err := ds.Initialize(dataPath); err != nil {
			_ = ds.Close()

			return nil, err
		}

		rt.source = ds
		source = ds
	}

	rt.service, err = service.NewService(source, engine, cfg.ValidationPolicy, log, rt.metrics)
	if err != nil {
		rt.close()

		return nil, err
	}

	log.Debug("Runtime ready",
		zap.String("data", dataPath),
		zap.String("oscillator_mode", string(cfg.Indicators.OscillatorMode)),
		zap.String("validation_policy", string(cfg.ValidationPolicy)),
	)

	return rt, nil
}

func (r *runtime) close() {
	if r.source != nil {
		if err := r.source.Close(); err != nil {
			r.logger.Warn("Failed to close data source", zap.Error(err))
		}
	}

	_ = r.logger.Sync()
}
