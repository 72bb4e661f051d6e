package main

import "github.com/rxtech-lab/argo-indicators/internal/types"

// SeriesLoadedMsg carries a computed series for display.
type SeriesLoadedMsg struct {
	Symbol string
	Series []types.IndicatorSeries
}

// LoadErrorMsg indicates the series could not be loaded.
type LoadErrorMsg struct {
	Err error
}
