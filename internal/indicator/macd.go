package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
)

// MACD represents the Moving Average Convergence Divergence indicator.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with default configuration.
func NewMACD() Indicator {
	return &MACD{
		fastPeriod:   12, // Default fast period
		slowPeriod:   26, // Default slow period
		signalPeriod: 9,  // Default signal period
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Config configures the MACD indicator. Expected parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int).
func (m *MACD) Config(params ...any) error {
	if len(params) != 3 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 3 parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int)")
	}

	fastPeriod, err := periodParam(params[0], "fastPeriod")
	if err != nil {
		return err
	}

	slowPeriod, err := periodParam(params[1], "slowPeriod")
	if err != nil {
		return err
	}

	signalPeriod, err := periodParam(params[2], "signalPeriod")
	if err != nil {
		return err
	}

	if slowPeriod <= fastPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "slowPeriod (%d) must be greater than fastPeriod (%d)", slowPeriod, fastPeriod)
	}

	m.fastPeriod = fastPeriod
	m.slowPeriod = slowPeriod
	m.signalPeriod = signalPeriod

	return nil
}

// Lookback returns the number of bars needed before dea is produced.
func (m *MACD) Lookback() int {
	return m.slowPeriod + m.signalPeriod - 2
}

// Apply writes dif, dea and macdBar.
func (m *MACD) Apply(bars []types.PriceBar, out []types.IndicatorSeries) {
	dif, dea := m.lines(closes(bars))

	for i := 0; i < len(out) && i < len(dif); i++ {
		out[i].Dif = types.Finite(dif[i])
		out[i].Dea = types.Finite(dea[i])
		out[i].MACDBar = types.Finite(2 * (dif[i] - dea[i]))
	}
}

// lines returns the dif and dea lines, NaN where undefined.
func (m *MACD) lines(values []float64) (dif, dea []float64) {
	fast := exponentialMovingAverage(values, m.fastPeriod)
	slow := exponentialMovingAverage(values, m.slowPeriod)

	dif = make([]float64, len(values))
	for i := range values {
		if !isFinite(fast[i]) || !isFinite(slow[i]) {
			dif[i] = math.NaN()

			continue
		}

		dif[i] = fast[i] - slow[i]
	}

	dea = exponentialMovingAverage(dif, m.signalPeriod)

	return dif, dea
}
