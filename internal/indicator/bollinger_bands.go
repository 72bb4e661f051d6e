package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
)

// BollingerBands implements the Indicator interface for Bollinger Bands.
type BollingerBands struct {
	period int     // Number of periods for moving average
	stdDev float64 // Number of standard deviations
}

// NewBollingerBands creates a new Bollinger Bands indicator with default configuration.
func NewBollingerBands() Indicator {
	return &BollingerBands{
		period: 20,  // Default period
		stdDev: 2.0, // Default standard deviation
	}
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Config configures the Bollinger Bands indicator. Expected parameters: period (int), stdDev (float64).
func (bb *BollingerBands) Config(params ...any) error {
	if len(params) != 2 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 2 parameters: period (int), stdDev (float64)")
	}

	period, err := periodParam(params[0], "period")
	if err != nil {
		return err
	}

	var stdDev float64

	switch v := params[1].(type) {
	case float64:
		stdDev = v
	case int:
		stdDev = float64(v)
	default:
		return errors.New(errors.ErrCodeInvalidType, "invalid type for stdDev parameter, expected float64")
	}

	if stdDev <= 0 || !isFinite(stdDev) {
		return errors.Newf(errors.ErrCodeInvalidMultiplier, "stdDev must be a positive number, got %f", stdDev)
	}

	bb.period = period
	bb.stdDev = stdDev

	return nil
}

// Lookback returns the number of bars needed before the first value.
func (bb *BollingerBands) Lookback() int {
	return bb.period - 1
}

// Apply writes bollMid, bollUpper and bollLower.
func (bb *BollingerBands) Apply(bars []types.PriceBar, out []types.IndicatorSeries) {
	values := closes(bars)

	for i := 0; i < len(out) && i < len(values); i++ {
		if i < bb.period-1 {
			continue
		}

		upper, middle, lower, ok := bb.calculateBands(values[i-bb.period+1 : i+1])
		if !ok {
			continue
		}

		out[i].BollMid = optional.Some(middle)
		out[i].BollUpper = optional.Some(upper)
		out[i].BollLower = optional.Some(lower)
	}
}

// calculateBands calculates the Bollinger Bands values over one window.
// The deviation is the population standard deviation (divisor = period).
func (bb *BollingerBands) calculateBands(window []float64) (upper, middle, lower float64, ok bool) {
	middle, ok = windowMean(window)
	if !ok {
		return 0, 0, 0, false
	}

	var squaredDiffSum float64

	for _, v := range window {
		diff := v - middle
		squaredDiffSum += diff * diff
	}

	stdDev := math.Sqrt(squaredDiffSum / float64(len(window)))

	upper = middle + (bb.stdDev * stdDev)
	lower = middle - (bb.stdDev * stdDev)

	// Overflowing windows drop all three bands so they stay symmetric.
	if !isFinite(middle) || !isFinite(upper) || !isFinite(lower) {
		return 0, 0, 0, false
	}

	return upper, middle, lower, true
}
