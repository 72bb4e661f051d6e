package types

import (
	"fmt"

	"github.com/moznion/go-optional"
)

// IndicatorSeries is a bar plus the indicator values derived for it.
// Every derived field is None until enough valid history exists.
type IndicatorSeries struct {
	Bar PriceBar `json:"bar"`

	MA5  optional.Option[float64] `json:"ma5"`
	MA10 optional.Option[float64] `json:"ma10"`
	MA20 optional.Option[float64] `json:"ma20"`
	MA60 optional.Option[float64] `json:"ma60"`

	BollMid   optional.Option[float64] `json:"bollMid"`
	BollUpper optional.Option[float64] `json:"bollUpper"`
	BollLower optional.Option[float64] `json:"bollLower"`

	Dif     optional.Option[float64] `json:"dif"`
	Dea     optional.Option[float64] `json:"dea"`
	MACDBar optional.Option[float64] `json:"macdBar"`
	RSI     optional.Option[float64] `json:"rsi"`
	K       optional.Option[float64] `json:"k"`
	D       optional.Option[float64] `json:"d"`
	J       optional.Option[float64] `json:"j"`
}

// NewIndicatorSeries returns a series entry for bar with every derived field empty.
func NewIndicatorSeries(bar PriceBar) IndicatorSeries {
	return IndicatorSeries{Bar: bar}
}

// MA returns the moving average for one of MovingAveragePeriods.
func (s IndicatorSeries) MA(period int) (optional.Option[float64], error) {
	switch period {
	case 5:
		return s.MA5, nil
	case 10:
		return s.MA10, nil
	case 20:
		return s.MA20, nil
	case 60:
		return s.MA60, nil
	}

	return optional.None[float64](), fmt.Errorf("unsupported moving average period %d", period)
}

// SetMA stores the moving average for one of MovingAveragePeriods.
func (s *IndicatorSeries) SetMA(period int, value optional.Option[float64]) error {
	switch period {
	case 5:
		s.MA5 = value
	case 10:
		s.MA10 = value
	case 20:
		s.MA20 = value
	case 60:
		s.MA60 = value
	default:
		return fmt.Errorf("unsupported moving average period %d", period)
	}

	return nil
}

// NamedValue is one derived column of a series entry.
type NamedValue struct {
	Name  string
	Value optional.Option[float64]
}

// SeriesColumns is the column order used by writers and viewers.
var SeriesColumns = []string{
	"ma5", "ma10", "ma20", "ma60",
	"boll_mid", "boll_upper", "boll_lower",
	"dif", "dea", "macd_bar", "rsi", "k", "d", "j",
}

// Values returns the derived fields in SeriesColumns order.
func (s IndicatorSeries) Values() []NamedValue {
	return []NamedValue{
		{"ma5", s.MA5},
		{"ma10", s.MA10},
		{"ma20", s.MA20},
		{"ma60", s.MA60},
		{"boll_mid", s.BollMid},
		{"boll_upper", s.BollUpper},
		{"boll_lower", s.BollLower},
		{"dif", s.Dif},
		{"dea", s.Dea},
		{"macd_bar", s.MACDBar},
		{"rsi", s.RSI},
		{"k", s.K},
		{"d", s.D},
		{"j", s.J},
	}
}
