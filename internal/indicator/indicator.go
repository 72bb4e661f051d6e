package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
)

// Indicator interface defines methods that any technical indicator must implement
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Config applies indicator specific parameters
	Config(params ...any) error
	// Lookback returns the number of bars needed before the first value is produced
	Lookback() int
	// Apply writes the indicator fields of out, which must be index-aligned with bars.
	// Only bars at index <= i are used for out[i].
	Apply(bars []types.PriceBar, out []types.IndicatorSeries)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func closes(bars []types.PriceBar) []float64 {
	values := make([]float64, len(bars))
	for i, bar := range bars {
		values[i] = bar.Close
	}

	return values
}

// intParam accepts int or a whole float64 (YAML and JSON numbers decode as float64).
func intParam(param any, name string) (int, error) {
	switch p := param.(type) {
	case int:
		return p, nil
	case float64:
		if p != math.Trunc(p) {
			return 0, errors.Newf(errors.ErrCodeInvalidType, "invalid value for %s parameter, expected a whole number, got %v", name, p)
		}

		return int(p), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter, expected int", name)
	}
}

func periodParam(param any, name string) (int, error) {
	period, err := intParam(param, name)
	if err != nil {
		return 0, err
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, period)
	}

	return period, nil
}
