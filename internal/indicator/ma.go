package indicator

import (
	"fmt"
	"slices"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
)

// MA indicator implements Simple Moving Average calculation.
type MA struct {
	period int
}

// NewMA creates a new MA indicator for one of types.MovingAveragePeriods.
func NewMA(period int) (Indicator, error) {
	ma := &MA{period: 20}
	if err := ma.Config(period); err != nil {
		return nil, err
	}

	return ma, nil
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	return types.IndicatorType(fmt.Sprintf("ma%d", m.period))
}

// Config configures the MA indicator. Expected parameters: period (int).
func (m *MA) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := periodParam(params[0], "period")
	if err != nil {
		return err
	}

	if !slices.Contains(types.MovingAveragePeriods, period) {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be one of %v, got %d", types.MovingAveragePeriods, period)
	}

	m.period = period

	return nil
}

// Lookback returns the number of bars needed before the first value.
func (m *MA) Lookback() int {
	return m.period - 1
}

// Apply writes the moving average of close into the matching maN field.
func (m *MA) Apply(bars []types.PriceBar, out []types.IndicatorSeries) {
	values := simpleMovingAverage(closes(bars), m.period)

	for i := 0; i < len(out) && i < len(values); i++ {
		// period is restricted to MovingAveragePeriods by Config
		_ = out[i].SetMA(m.period, values[i])
	}
}

// simpleMovingAverage returns the trailing mean over period values.
// A window containing a non-finite value yields None.
func simpleMovingAverage(values []float64, period int) []optional.Option[float64] {
	result := make([]optional.Option[float64], len(values))

	for i := range values {
		if i < period-1 {
			result[i] = optional.None[float64]()

			continue
		}

		mean, ok := windowMean(values[i-period+1 : i+1])
		if !ok {
			result[i] = optional.None[float64]()

			continue
		}

		// A finite window can still overflow its sum
		result[i] = types.Finite(mean)
	}

	return result
}

// windowMean calculates the arithmetic mean of window, reporting false if any value is not finite.
func windowMean(window []float64) (float64, bool) {
	sum := 0.0

	for _, v := range window {
		if !isFinite(v) {
			return 0, false
		}

		sum += v
	}

	return sum / float64(len(window)), true
}
