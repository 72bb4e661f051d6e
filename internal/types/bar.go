package types

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
)

// PriceBar is one OHLCV observation. Missing values are held as NaN.
type PriceBar struct {
	// Time is the bar open time, unique and strictly increasing within a series
	Time time.Time
	// Symbol is the instrument the bar belongs to (optional)
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

type priceBarJSON struct {
	Time   time.Time                `json:"time"`
	Symbol string                   `json:"symbol,omitempty"`
	Open   optional.Option[float64] `json:"open"`
	High   optional.Option[float64] `json:"high"`
	Low    optional.Option[float64] `json:"low"`
	Close  optional.Option[float64] `json:"close"`
	Volume optional.Option[float64] `json:"volume"`
}

// MarshalJSON writes non-finite values as null.
func (b PriceBar) MarshalJSON() ([]byte, error) {
	return json.Marshal(priceBarJSON{
		Time:   b.Time,
		Symbol: b.Symbol,
		Open:   Finite(b.Open),
		High:   Finite(b.High),
		Low:    Finite(b.Low),
		Close:  Finite(b.Close),
		Volume: Finite(b.Volume),
	})
}

// UnmarshalJSON reads null or absent prices as NaN.
func (b *PriceBar) UnmarshalJSON(data []byte) error {
	var wire priceBarJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	b.Time = wire.Time
	b.Symbol = wire.Symbol
	b.Open = wire.Open.TakeOr(math.NaN())
	b.High = wire.High.TakeOr(math.NaN())
	b.Low = wire.Low.TakeOr(math.NaN())
	b.Close = wire.Close.TakeOr(math.NaN())
	b.Volume = wire.Volume.TakeOr(math.NaN())

	return nil
}

// Finite wraps v in an Option, mapping NaN and ±Inf to None.
func Finite(v float64) optional.Option[float64] {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return optional.None[float64]()
	}

	return optional.Some(v)
}

// Validate reports the first OHLCV invariant the bar breaks.
// NaN fields are treated as missing, not malformed.
func (b PriceBar) Validate() error {
	if b.Time.IsZero() {
		return errors.New(errors.ErrCodeMalformedBar, "missing time")
	}

	fields := []struct {
		name  string
		value float64
	}{
		{"open", b.Open},
		{"high", b.High},
		{"low", b.Low},
		{"close", b.Close},
		{"volume", b.Volume},
	}

	for _, f := range fields {
		if math.IsInf(f.value, 0) {
			return errors.Newf(errors.ErrCodeMalformedBar, "%s is infinite", f.name)
		}
	}

	for _, f := range fields[:4] {
		if !math.IsNaN(f.value) && f.value <= 0 {
			return errors.Newf(errors.ErrCodeMalformedBar, "non-positive %s %v", f.name, f.value)
		}
	}

	if !math.IsNaN(b.Volume) && b.Volume < 0 {
		return errors.Newf(errors.ErrCodeMalformedBar, "negative volume %v", b.Volume)
	}

	if !math.IsNaN(b.High) && !math.IsNaN(b.Low) && b.High < b.Low {
		return errors.Newf(errors.ErrCodeMalformedBar, "high %v below low %v", b.High, b.Low)
	}

	for _, f := range []struct {
		name  string
		value float64
	}{{"open", b.Open}, {"close", b.Close}} {
		if math.IsNaN(f.value) {
			continue
		}

		if !math.IsNaN(b.High) && f.value > b.High {
			return errors.Newf(errors.ErrCodeMalformedBar, "%s %v above high %v", f.name, f.value, b.High)
		}

		if !math.IsNaN(b.Low) && f.value < b.Low {
			return errors.Newf(errors.ErrCodeMalformedBar, "%s %v below low %v", f.name, f.value, b.Low)
		}
	}

	return nil
}

// ValidateSeries checks every bar and the time ordering of the series.
// Ordering is checked against the last bar that passed validation, so the
// bars left after dropping every reported index form a valid series.
func ValidateSeries(bars []PriceBar) []errors.BarProblem {
	var (
		problems []errors.BarProblem
		last     time.Time
	)

	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			reason := err.Error()

			var coded *errors.Error
			if errors.As(err, &coded) {
				reason = coded.Message
			}

			problems = append(problems, errors.BarProblem{Index: i, Reason: reason})

			continue
		}

		if !last.IsZero() && !bar.Time.After(last) {
			problems = append(problems, errors.BarProblem{
				Index:  i,
				Reason: fmt.Sprintf("time %s not after previous bar %s", bar.Time.Format(time.RFC3339), last.Format(time.RFC3339)),
			})

			continue
		}

		last = bar.Time
	}

	return problems
}
