package datasource

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-indicators/internal/types"
)

// BarQuery selects bars of one symbol, optionally bounded in time (inclusive).
// An empty Symbol matches every symbol.
type BarQuery struct {
	Symbol string
	Start  optional.Option[time.Time]
	End    optional.Option[time.Time]
}

// BarSource supplies ordered price bars to the indicator service.
type BarSource interface {
	// ReadBars returns the bars matching q ordered by time. Missing values are NaN.
	ReadBars(ctx context.Context, q BarQuery) ([]types.PriceBar, error)
	// Symbols lists the distinct symbols in the source.
	Symbols(ctx context.Context) ([]string, error)
	// Count returns the number of bars matching q.
	Count(ctx context.Context, q BarQuery) (int, error)
	// Close closes the source and releases any resources
	Close() error
}

// DataSource is a BarSource loaded from a file.
type DataSource interface {
	BarSource
	// Initialize points the source at a parquet or CSV file
	Initialize(path string) error
}
