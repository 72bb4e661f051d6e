package indicator

import (
	"github.com/rxtech-lab/argo-indicators/internal/config"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
)

// Engine turns an ordered bar slice into a parallel IndicatorSeries slice.
// It holds no per-call state, so one Engine may serve concurrent callers.
type Engine struct {
	registry IndicatorRegistry
}

// NewEngine builds an engine whose registry follows cfg.
func NewEngine(cfg config.IndicatorConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := NewIndicatorRegistry()

	for _, period := range types.MovingAveragePeriods {
		ma, err := NewMA(period)
		if err != nil {
			return nil, err
		}

		if err := registry.RegisterIndicator(ma); err != nil {
			return nil, err
		}
	}

	bollinger := NewBollingerBands()
	if err := bollinger.Config(cfg.BollingerPeriod, cfg.BollingerMultiplier); err != nil {
		return nil, err
	}

	if err := registry.RegisterIndicator(bollinger); err != nil {
		return nil, err
	}

	oscillators, err := newOscillators(cfg)
	if err != nil {
		return nil, err
	}

	for _, oscillator := range oscillators {
		if err := registry.RegisterIndicator(oscillator); err != nil {
			return nil, err
		}
	}

	return &Engine{registry: registry}, nil
}

// NewEngineWithRegistry creates an engine over a caller-built registry.
func NewEngineWithRegistry(registry IndicatorRegistry) *Engine {
	return &Engine{registry: registry}
}

func newOscillators(cfg config.IndicatorConfig) ([]Indicator, error) {
	switch cfg.OscillatorMode {
	case types.OscillatorModePlaceholder:
		return []Indicator{NewPlaceholderOscillators()}, nil
	case types.OscillatorModeTextbook:
		macd := NewMACD()
		if err := macd.Config(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal); err != nil {
			return nil, err
		}

		rsi := NewRSI()
		if err := rsi.Config(cfg.RSIPeriod); err != nil {
			return nil, err
		}

		kdj := NewKDJ()
		if err := kdj.Config(cfg.KDJPeriod, cfg.KDJKSmoothing, cfg.KDJDSmoothing); err != nil {
			return nil, err
		}

		return []Indicator{macd, rsi, kdj}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidMode, "unknown oscillator mode %q", cfg.OscillatorMode)
	}
}

// Registry returns the indicators the engine applies.
func (e *Engine) Registry() IndicatorRegistry {
	return e.registry
}

// Compute returns one IndicatorSeries per bar. bars is not modified and
// out[i] depends only on bars[0..i].
func (e *Engine) Compute(bars []types.PriceBar) []types.IndicatorSeries {
	out := make([]types.IndicatorSeries, len(bars))
	for i, bar := range bars {
		out[i] = types.NewIndicatorSeries(bar)
	}

	if len(bars) == 0 {
		return out
	}

	for _, indicator := range e.registry.Indicators() {
		indicator.Apply(bars, out)
	}

	return out
}

var defaultEngine = mustDefaultEngine()

func mustDefaultEngine() *Engine {
	engine, err := NewEngine(config.DefaultIndicatorConfig())
	if err != nil {
		panic(err)
	}

	return engine
}

// Compute runs the default engine: SMA 5/10/20/60, Bollinger(20, 2),
// MACD(12, 26, 9), RSI(14) and KDJ(9, 3, 3).
func Compute(bars []types.PriceBar) []types.IndicatorSeries {
	return defaultEngine.Compute(bars)
}
