package mocks

//go:generate mockgen -destination=./mock_bar_source.go -package=mocks github.com/rxtech-lab/argo-indicators/internal/datasource BarSource
//go:generate mockgen -destination=./mock_series_writer.go -package=mocks github.com/rxtech-lab/argo-indicators/internal/writer SeriesWriter
//go:generate mockgen -destination=./mock_indicator.go -package=mocks github.com/rxtech-lab/argo-indicators/internal/indicator Indicator
