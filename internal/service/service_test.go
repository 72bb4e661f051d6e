package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rxtech-lab/argo-indicators/internal/config"
	"github.com/rxtech-lab/argo-indicators/internal/datasource"
	"github.com/rxtech-lab/argo-indicators/internal/indicator"
	"github.com/rxtech-lab/argo-indicators/internal/logger"
	"github.com/rxtech-lab/argo-indicators/internal/metrics"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/mocks"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ServiceTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	source  *mocks.MockBarSource
	engine  *indicator.Engine
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (suite *ServiceTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.source = mocks.NewMockBarSource(suite.ctrl)
	suite.metrics = metrics.NewMetrics()
	suite.logger = logger.NewNopLogger()

	engine, err := indicator.NewEngine(config.DefaultIndicatorConfig())
	suite.Require().NoError(err)
	suite.engine = engine
}

func (suite *ServiceTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *ServiceTestSuite) newService(policy types.ValidationPolicy) *Service {
	svc, err := NewService(suite.source, suite.engine, policy, suite.logger, suite.metrics)
	suite.Require().NoError(err)

	return svc
}

// malformedBars returns 30 valid bars with a high-below-low bar at index 10.
func malformedBars() []types.PriceBar {
	bars := mocks.GenerateSeries("AAPL", 30)
	bars[10].High = bars[10].Low - 1

	return bars
}

func (suite *ServiceTestSuite) TestNewServiceInvalidPolicy() {
	_, err := NewService(suite.source, suite.engine, "ignore", suite.logger, suite.metrics)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPolicy))

	_, err = NewService(suite.source, nil, types.ValidationPolicyReject, suite.logger, suite.metrics)
	suite.Error(err)
}

func (suite *ServiceTestSuite) TestComputeBarsValid() {
	svc := suite.newService(types.ValidationPolicyReject)
	bars := mocks.GenerateSeries("AAPL", 80)

	series, err := svc.ComputeBars(bars)
	suite.Require().NoError(err)
	suite.Len(series, 80)
	suite.Equal(suite.engine.Compute(bars), series)
	suite.Equal(80.0, testutil.ToFloat64(suite.metrics.BarsTotal))
}

func (suite *ServiceTestSuite) TestRejectPolicy() {
	svc := suite.newService(types.ValidationPolicyReject)

	series, err := svc.ComputeBars(malformedBars())
	suite.Error(err)
	suite.Nil(series)
	suite.True(errors.HasCode(err, errors.ErrCodeMalformedBar))
	suite.True(errors.IsMalformedBarError(err))
	suite.Contains(err.Error(), "bar 10")
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.BarsRejected))
	suite.Equal(0.0, testutil.ToFloat64(suite.metrics.BarsTotal))
}

func (suite *ServiceTestSuite) TestSkipPolicy() {
	svc := suite.newService(types.ValidationPolicySkip)
	bars := malformedBars()

	series, err := svc.ComputeBars(bars)
	suite.Require().NoError(err)
	suite.Len(series, 29)

	// aligned with the kept bars
	suite.Equal(bars[9].Time, series[9].Bar.Time)
	suite.Equal(bars[11].Time, series[10].Bar.Time)
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.BarsSkipped))

	kept := append(append([]types.PriceBar{}, bars[:10]...), bars[11:]...)
	suite.Equal(suite.engine.Compute(kept), series)
}

func (suite *ServiceTestSuite) TestSkipPolicyOutOfOrder() {
	svc := suite.newService(types.ValidationPolicySkip)
	bars := mocks.GenerateSeries("AAPL", 10)
	bars[5].Time = bars[2].Time

	series, err := svc.ComputeBars(bars)
	suite.Require().NoError(err)
	suite.Len(series, 9)
}

func (suite *ServiceTestSuite) TestAcceptPolicy() {
	svc := suite.newService(types.ValidationPolicyAccept)
	bars := malformedBars()

	series, err := svc.ComputeBars(bars)
	suite.Require().NoError(err)
	suite.Len(series, 30)
	suite.Equal(bars[10], series[10].Bar)
}

func (suite *ServiceTestSuite) TestNaNIsNotMalformed() {
	svc := suite.newService(types.ValidationPolicyReject)
	bars := mocks.WithMissingCloses(mocks.GenerateSeries("AAPL", 30), 12)

	series, err := svc.ComputeBars(bars)
	suite.Require().NoError(err)
	suite.Len(series, 30)
	suite.True(series[12].MA5.IsNone())
}

func (suite *ServiceTestSuite) TestComputeBarsEmpty() {
	svc := suite.newService(types.ValidationPolicyReject)

	series, err := svc.ComputeBars(nil)
	suite.Require().NoError(err)
	suite.NotNil(series)
	suite.Empty(series)
}

func (suite *ServiceTestSuite) TestRun() {
	svc := suite.newService(types.ValidationPolicyReject)
	q := datasource.BarQuery{
		Symbol: "AAPL",
		Start:  optional.Some(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	bars := mocks.GenerateSeries("AAPL", 40)

	suite.source.EXPECT().ReadBars(gomock.Any(), q).Return(bars, nil)

	series, err := svc.Run(context.Background(), q)
	suite.Require().NoError(err)
	suite.Len(series, 40)
	suite.True(series[39].MA20.IsSome())
}

func (suite *ServiceTestSuite) TestRunRequiresSymbol() {
	svc := suite.newService(types.ValidationPolicyReject)

	_, err := svc.Run(context.Background(), datasource.BarQuery{})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *ServiceTestSuite) TestRunNoBars() {
	svc := suite.newService(types.ValidationPolicyReject)
	suite.source.EXPECT().ReadBars(gomock.Any(), gomock.Any()).Return([]types.PriceBar{}, nil)

	_, err := svc.Run(context.Background(), datasource.BarQuery{Symbol: "TSLA"})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *ServiceTestSuite) TestRunSourceError() {
	svc := suite.newService(types.ValidationPolicyReject)
	suite.source.EXPECT().ReadBars(gomock.Any(), gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeQueryFailed, "boom"))

	_, err := svc.Run(context.Background(), datasource.BarQuery{Symbol: "AAPL"})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeQueryFailed))
}

func (suite *ServiceTestSuite) TestRunCanceled() {
	svc := suite.newService(types.ValidationPolicyReject)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, datasource.BarQuery{Symbol: "AAPL"})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeContextCanceled))
}

func (suite *ServiceTestSuite) TestRunWithoutSource() {
	svc, err := NewService(nil, suite.engine, types.ValidationPolicyReject, suite.logger, suite.metrics)
	suite.Require().NoError(err)

	_, err = svc.Run(context.Background(), datasource.BarQuery{Symbol: "AAPL"})
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))

	_, err = svc.Symbols(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}

func (suite *ServiceTestSuite) TestSymbols() {
	svc := suite.newService(types.ValidationPolicyReject)
	suite.source.EXPECT().Symbols(gomock.Any()).Return([]string{"AAPL", "MSFT"}, nil)

	symbols, err := svc.Symbols(context.Background())
	suite.Require().NoError(err)
	suite.Equal([]string{"AAPL", "MSFT"}, symbols)
}

func (suite *ServiceTestSuite) TestExport() {
	svc := suite.newService(types.ValidationPolicyReject)
	bars := mocks.GenerateSeries("AAPL", 5)
	w := mocks.NewMockSeriesWriter(suite.ctrl)

	suite.source.EXPECT().ReadBars(gomock.Any(), gomock.Any()).Return(bars, nil)

	gomock.InOrder(
		w.EXPECT().Initialize().Return(nil),
		w.EXPECT().Write(gomock.Any()).Return(nil).Times(5),
		w.EXPECT().Finalize().Return("out.json", nil),
		w.EXPECT().Close().Return(nil),
	)

	path, err := svc.Export(context.Background(), datasource.BarQuery{Symbol: "AAPL"}, w, nil)
	suite.Require().NoError(err)
	suite.Equal("out.json", path)
}

func (suite *ServiceTestSuite) TestExportWriteFailure() {
	svc := suite.newService(types.ValidationPolicyReject)
	w := mocks.NewMockSeriesWriter(suite.ctrl)

	suite.source.EXPECT().ReadBars(gomock.Any(), gomock.Any()).Return(mocks.GenerateSeries("AAPL", 5), nil)
	w.EXPECT().Initialize().Return(nil)
	w.EXPECT().Write(gomock.Any()).Return(errors.New(errors.ErrCodeWriteFailed, "disk full"))
	w.EXPECT().Close().Return(nil)

	_, err := svc.Export(context.Background(), datasource.BarQuery{Symbol: "AAPL"}, w, nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeWriteFailed))
}

func (suite *ServiceTestSuite) TestSkippedBarsNeverReachIndicators() {
	mockIndicator := mocks.NewMockIndicator(suite.ctrl)
	mockIndicator.EXPECT().Name().Return(types.IndicatorType("fake")).AnyTimes()
	mockIndicator.EXPECT().Apply(gomock.Any(), gomock.Any()).Do(func(bars []types.PriceBar, out []types.IndicatorSeries) {
		suite.Len(bars, 29)
		suite.Len(out, 29)

		for _, bar := range bars {
			suite.NoError(bar.Validate())
			suite.False(math.IsInf(bar.High, 0))
		}
	})

	registry := indicator.NewIndicatorRegistry()
	suite.Require().NoError(registry.RegisterIndicator(mockIndicator))

	svc, err := NewService(suite.source, indicator.NewEngineWithRegistry(registry), types.ValidationPolicySkip, suite.logger, suite.metrics)
	suite.Require().NoError(err)

	_, err = svc.ComputeBars(malformedBars())
	suite.NoError(err)
}
