package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
)

// PlaceholderOscillators fills dif, dea, macdBar, rsi, k, d and j with
// deterministic waves of the bar index. Used by the demo dashboard in place
// of the real oscillators.
type PlaceholderOscillators struct{}

// NewPlaceholderOscillators creates the placeholder oscillator indicator.
func NewPlaceholderOscillators() Indicator {
	return &PlaceholderOscillators{}
}

// Name returns the name of the indicator.
func (p *PlaceholderOscillators) Name() types.IndicatorType {
	return types.IndicatorTypePlaceholderOscillators
}

// Config takes no parameters.
func (p *PlaceholderOscillators) Config(params ...any) error {
	if len(params) != 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "Config expects no parameters, got %d", len(params))
	}

	return nil
}

// Lookback is zero: every bar with a finite close has a value.
func (p *PlaceholderOscillators) Lookback() int {
	return 0
}

// Apply writes the oscillator fields for every bar with a finite close.
func (p *PlaceholderOscillators) Apply(bars []types.PriceBar, out []types.IndicatorSeries) {
	for i := 0; i < len(out) && i < len(bars); i++ {
		if !isFinite(bars[i].Close) {
			continue
		}

		t := float64(i)
		dif := 1.5 * math.Sin(t/6)
		dea := 1.2 * math.Sin((t-2)/6)
		k := 50 + 30*math.Sin(t/4)
		d := 50 + 25*math.Sin((t-1)/4)

		out[i].Dif = optional.Some(dif)
		out[i].Dea = optional.Some(dea)
		out[i].MACDBar = optional.Some(2 * (dif - dea))
		out[i].RSI = optional.Some(50 + 25*math.Sin(t/5))
		out[i].K = optional.Some(k)
		out[i].D = optional.Some(d)
		out[i].J = optional.Some(3*k - 2*d)
	}
}
