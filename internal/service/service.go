// Package service runs the load, validate, compute and export pipeline around the indicator engine.
package service

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-indicators/internal/datasource"
	"github.com/rxtech-lab/argo-indicators/internal/indicator"
	"github.com/rxtech-lab/argo-indicators/internal/logger"
	"github.com/rxtech-lab/argo-indicators/internal/metrics"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/internal/writer"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
	"go.uber.org/zap"
)

// Service validates ingested bars under a ValidationPolicy and computes their indicator series.
type Service struct {
	source  datasource.BarSource
	engine  *indicator.Engine
	policy  types.ValidationPolicy
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewService creates a Service. source may be nil when bars are only supplied
// directly through ComputeBars.
func NewService(
	source datasource.BarSource,
	engine *indicator.Engine,
	policy types.ValidationPolicy,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*Service, error) {
	switch policy {
	case types.ValidationPolicyReject, types.ValidationPolicySkip, types.ValidationPolicyAccept:
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidPolicy, "unknown validation policy %q", policy)
	}

	if engine == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "engine is required")
	}

	return &Service{
		source:  source,
		engine:  engine,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Policy returns the validation policy applied at ingestion.
func (s *Service) Policy() types.ValidationPolicy {
	return s.policy
}

// ComputeBars validates bars under the service policy and computes their series.
// Under the skip policy the result is aligned with the kept bars.
func (s *Service) ComputeBars(bars []types.PriceBar) ([]types.IndicatorSeries, error) {
	kept, err := s.validate(bars)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	series := s.engine.Compute(kept)
	s.metrics.ObserveCompute(time.Since(start), len(kept))

	return series, nil
}

func (s *Service) validate(bars []types.PriceBar) ([]types.PriceBar, error) {
	if s.policy == types.ValidationPolicyAccept {
		return bars, nil
	}

	problems := types.ValidateSeries(bars)
	if len(problems) == 0 {
		return bars, nil
	}

	if s.policy == types.ValidationPolicyReject {
		s.metrics.RecordRejected(len(problems))
		s.logger.Warn("Rejected series with malformed bars",
			zap.Int("bars", len(bars)),
			zap.Int("malformed", len(problems)),
		)

		return nil, errors.Wrap(errors.ErrCodeMalformedBar, "series contains malformed bars", errors.NewMalformedBarError(problems))
	}

	dropped := make(map[int]bool, len(problems))
	for _, problem := range problems {
		dropped[problem.Index] = true

		s.logger.Warn("Skipping malformed bar",
			zap.Int("index", problem.Index),
			zap.String("reason", problem.Reason),
		)
	}

	kept := make([]types.PriceBar, 0, len(bars)-len(problems))
	for i, bar := range bars {
		if !dropped[i] {
			kept = append(kept, bar)
		}
	}

	s.metrics.RecordSkipped(len(problems))

	return kept, nil
}

// Run reads the bars selected by q from the source and computes their series.
func (s *Service) Run(ctx context.Context, q datasource.BarQuery) ([]types.IndicatorSeries, error) {
	bars, err := s.readBars(ctx, q)
	if err != nil {
		return nil, err
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	return s.ComputeBars(bars)
}

// Symbols lists the symbols available in the source.
func (s *Service) Symbols(ctx context.Context) ([]string, error) {
	if s.source == nil {
		return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "no bar source configured")
	}

	return s.source.Symbols(ctx)
}

// Export computes the series selected by q and writes it with w.
func (s *Service) Export(ctx context.Context, q datasource.BarQuery, w writer.SeriesWriter, progress writer.Progress) (string, error) {
	series, err := s.Run(ctx, q)
	if err != nil {
		return "", err
	}

	if err := checkContext(ctx); err != nil {
		return "", err
	}

	outputPath, err := writer.WriteAll(w, series, progress)
	if err != nil {
		return "", err
	}

	s.logger.Info("Exported series",
		zap.String("symbol", q.Symbol),
		zap.Int("entries", len(series)),
		zap.String("path", outputPath),
	)

	return outputPath, nil
}

func (s *Service) readBars(ctx context.Context, q datasource.BarQuery) ([]types.PriceBar, error) {
	if s.source == nil {
		return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "no bar source configured")
	}

	if q.Symbol == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "symbol is required")
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	bars, err := s.source.ReadBars(ctx, q)
	if err != nil {
		return nil, err
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no bars found for symbol %s", q.Symbol)
	}

	s.logger.Debug("Loaded bars", zap.String("symbol", q.Symbol), zap.Int("count", len(bars)))

	return bars, nil
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeContextCanceled, "operation canceled", err)
	}

	return nil
}
