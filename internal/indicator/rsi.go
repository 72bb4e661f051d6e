package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
)

// RSI indicator implements Relative Strength Index with Wilder smoothing.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := periodParam(params[0], "period")
	if err != nil {
		return err
	}

	r.period = period

	return nil
}

// Lookback returns the number of bars needed before the first value.
func (r *RSI) Lookback() int {
	return r.period
}

// Apply writes rsi.
func (r *RSI) Apply(bars []types.PriceBar, out []types.IndicatorSeries) {
	values := r.values(closes(bars))

	for i := 0; i < len(out) && i < len(values); i++ {
		out[i].RSI = types.Finite(values[i])
	}
}

// values returns RSI per bar, NaN where undefined. The first average is the
// plain mean of period changes; after that avg = (avg*(period-1) + x) / period.
// A non-finite close restarts the warm-up.
func (r *RSI) values(closes []float64) []float64 {
	result := make([]float64, len(closes))
	period := float64(r.period)

	prevClose := math.NaN()
	changes := 0
	avgGain, avgLoss := 0.0, 0.0

	for i, price := range closes {
		result[i] = math.NaN()

		if !isFinite(price) {
			prevClose = math.NaN()
			changes = 0
			avgGain, avgLoss = 0, 0

			continue
		}

		if !isFinite(prevClose) {
			prevClose = price

			continue
		}

		change := price - prevClose
		prevClose = price

		gain := math.Max(change, 0)
		loss := math.Max(-change, 0)

		changes++

		switch {
		case changes < r.period:
			avgGain += gain
			avgLoss += loss

			continue
		case changes == r.period:
			avgGain = (avgGain + gain) / period
			avgLoss = (avgLoss + loss) / period
		default:
			avgGain = (avgGain*(period-1) + gain) / period
			avgLoss = (avgLoss*(period-1) + loss) / period
		}

		result[i] = relativeStrengthIndex(avgGain, avgLoss)
	}

	return result
}

func relativeStrengthIndex(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}

		return 100
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}
