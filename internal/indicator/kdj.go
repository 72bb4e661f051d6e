package indicator

import (
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
)

// KDJ is the stochastic oscillator with K and D smoothed from 50 and J = 3K - 2D.
type KDJ struct {
	period     int
	kSmoothing int
	dSmoothing int
}

// NewKDJ creates a new KDJ indicator with default configuration (9, 3, 3).
func NewKDJ() Indicator {
	return &KDJ{
		period:     9,
		kSmoothing: 3,
		dSmoothing: 3,
	}
}

// Name returns the name of the indicator.
func (k *KDJ) Name() types.IndicatorType {
	return types.IndicatorTypeKDJ
}

// Config configures the KDJ indicator. Expected parameters: period (int), kSmoothing (int), dSmoothing (int).
func (k *KDJ) Config(params ...any) error {
	if len(params) != 3 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 3 parameters: period (int), kSmoothing (int), dSmoothing (int)")
	}

	period, err := periodParam(params[0], "period")
	if err != nil {
		return err
	}

	kSmoothing, err := periodParam(params[1], "kSmoothing")
	if err != nil {
		return err
	}

	dSmoothing, err := periodParam(params[2], "dSmoothing")
	if err != nil {
		return err
	}

	k.period = period
	k.kSmoothing = kSmoothing
	k.dSmoothing = dSmoothing

	return nil
}

// Lookback returns the number of bars needed before the first value.
func (k *KDJ) Lookback() int {
	return k.period - 1
}

// Apply writes k, d and j. A bar with a non-finite high, low or close
// resets K and D to 50 and the next period bars are warm-up again.
func (k *KDJ) Apply(bars []types.PriceBar, out []types.IndicatorSeries) {
	m1 := float64(k.kSmoothing)
	m2 := float64(k.dSmoothing)
	kValue, dValue := 50.0, 50.0
	run := 0

	for i := 0; i < len(out) && i < len(bars); i++ {
		bar := bars[i]
		if !isFinite(bar.High) || !isFinite(bar.Low) || !isFinite(bar.Close) {
			run = 0
			kValue, dValue = 50, 50

			continue
		}

		run++
		if run < k.period {
			continue
		}

		rsv := rawStochasticValue(bars[i-k.period+1:i+1], bar.Close)
		kValue = ((m1-1)*kValue + rsv) / m1
		dValue = ((m2-1)*dValue + kValue) / m2
		jValue := 3*kValue - 2*dValue

		out[i].K = types.Finite(kValue)
		out[i].D = types.Finite(dValue)
		out[i].J = types.Finite(jValue)
	}
}

// rawStochasticValue is (close - LLV(low)) / (HHV(high) - LLV(low)) * 100, or 50 for a zero range.
func rawStochasticValue(window []types.PriceBar, close float64) float64 {
	highest := window[0].High
	lowest := window[0].Low

	for _, bar := range window[1:] {
		if bar.High > highest {
			highest = bar.High
		}

		if bar.Low < lowest {
			lowest = bar.Low
		}
	}

	if highest == lowest {
		return 50
	}

	return (close - lowest) / (highest - lowest) * 100
}
