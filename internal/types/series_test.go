package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIndicatorSeriesStartsEmpty(t *testing.T) {
	bar := PriceBar{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 10}
	s := NewIndicatorSeries(bar)

	assert.Equal(t, bar, s.Bar)
	for _, v := range s.Values() {
		assert.True(t, v.Value.IsNone(), v.Name)
	}
}

func TestSetAndGetMA(t *testing.T) {
	var s IndicatorSeries

	for _, period := range MovingAveragePeriods {
		require.NoError(t, s.SetMA(period, optional.Some(float64(period))))
	}

	for _, period := range MovingAveragePeriods {
		v, err := s.MA(period)
		require.NoError(t, err)
		assert.Equal(t, float64(period), v.Unwrap())
	}

	assert.Error(t, s.SetMA(7, optional.Some(1.0)))
	_, err := s.MA(7)
	assert.Error(t, err)
}

func TestValuesFollowSeriesColumns(t *testing.T) {
	values := IndicatorSeries{}.Values()
	require.Len(t, values, len(SeriesColumns))

	for i, v := range values {
		assert.Equal(t, SeriesColumns[i], v.Name)
	}
}

func TestIndicatorSeriesJSONUsesNullForMissing(t *testing.T) {
	s := NewIndicatorSeries(PriceBar{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 1, High: 1, Low: 1, Close: 1})
	s.MA5 = optional.Some(3.0)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 3.0, decoded["ma5"])
	assert.Nil(t, decoded["ma10"])
	assert.Contains(t, decoded, "bollUpper")
	assert.Contains(t, decoded, "bar")
}
