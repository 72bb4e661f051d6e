package writer

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-indicators/internal/config"
	"github.com/rxtech-lab/argo-indicators/internal/logger"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
	"github.com/shopspring/decimal"
)

// SeriesWriter defines the interface for exporting a computed indicator series.
type SeriesWriter interface {
	// Initialize sets up the writer, creating tables or files.
	Initialize() error
	// Write persists a single series entry.
	Write(entry types.IndicatorSeries) error
	// Finalize completes the writing process (e.g., commits transactions, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// Progress receives the number of entries written since the last call.
// *progressbar.ProgressBar satisfies it.
type Progress interface {
	Add(num int) error
}

// WriteAll runs the full writer lifecycle over series. progress may be nil.
func WriteAll(w SeriesWriter, series []types.IndicatorSeries, progress Progress) (outputPath string, err error) {
	if err := w.Initialize(); err != nil {
		return "", err
	}

	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(errors.ErrCodeWriteFailed, "failed to close writer", closeErr)
		}
	}()

	for _, entry := range series {
		if err := w.Write(entry); err != nil {
			return "", err
		}

		if progress != nil {
			_ = progress.Add(1)
		}
	}

	return w.Finalize()
}

// roundValue rounds v half away from zero to precision decimal places.
// Non-finite values have no decimal form and are written as null.
func roundValue(v optional.Option[float64], precision int) optional.Option[float64] {
	if v.IsNone() {
		return v
	}

	if finite := types.Finite(v.Unwrap()); finite.IsNone() {
		return finite
	}

	return optional.Some(decimal.NewFromFloat(v.Unwrap()).Round(int32(precision)).InexactFloat64())
}

// roundSeries returns a copy of entry with every derived value rounded.
// Bar prices are left untouched.
func roundSeries(entry types.IndicatorSeries, precision int) types.IndicatorSeries {
	rounded := entry

	rounded.MA5 = roundValue(entry.MA5, precision)
	rounded.MA10 = roundValue(entry.MA10, precision)
	rounded.MA20 = roundValue(entry.MA20, precision)
	rounded.MA60 = roundValue(entry.MA60, precision)
	rounded.BollMid = roundValue(entry.BollMid, precision)
	rounded.BollUpper = roundValue(entry.BollUpper, precision)
	rounded.BollLower = roundValue(entry.BollLower, precision)
	rounded.Dif = roundValue(entry.Dif, precision)
	rounded.Dea = roundValue(entry.Dea, precision)
	rounded.MACDBar = roundValue(entry.MACDBar, precision)
	rounded.RSI = roundValue(entry.RSI, precision)
	rounded.K = roundValue(entry.K, precision)
	rounded.D = roundValue(entry.D, precision)
	rounded.J = roundValue(entry.J, precision)

	return rounded
}

// nullable maps None to a SQL NULL.
func nullable(v optional.Option[float64]) any {
	if v.IsNone() {
		return nil
	}

	return v.Unwrap()
}

// New returns the writer for format ("json" or "parquet").
func New(format string, outputPath string, precision int, logger *logger.Logger) (SeriesWriter, error) {
	switch format {
	case config.OutputFormatJSON:
		return NewJSONWriter(outputPath, precision, logger), nil
	case config.OutputFormatParquet:
		return NewDuckDBWriter(outputPath, precision, logger), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedFormat, "unsupported output format %q", format)
	}
}
