package api

import (
	"bytes"
	"context"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/moznion/go-optional"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rxtech-lab/argo-indicators/internal/config"
	"github.com/rxtech-lab/argo-indicators/internal/datasource"
	"github.com/rxtech-lab/argo-indicators/internal/indicator"
	"github.com/rxtech-lab/argo-indicators/internal/logger"
	"github.com/rxtech-lab/argo-indicators/internal/metrics"
	"github.com/rxtech-lab/argo-indicators/internal/service"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/mocks"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// seriesPayload decodes a series response with raw values so nulls stay visible.
type seriesPayload struct {
	Series []map[string]any `json:"series"`
}

type ServerTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	source  *mocks.MockBarSource
	metrics *metrics.Metrics
	server  *Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.source = mocks.NewMockBarSource(suite.ctrl)
	suite.metrics = metrics.NewMetrics()

	engine, err := indicator.NewEngine(config.DefaultIndicatorConfig())
	suite.Require().NoError(err)

	svc, err := service.NewService(suite.source, engine, types.ValidationPolicyReject, logger.NewNopLogger(), suite.metrics)
	suite.Require().NoError(err)

	suite.server = NewServer(svc, suite.metrics, logger.NewNopLogger())
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *ServerTestSuite) do(method, target string, body io.Reader) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	suite.server.Handler().ServeHTTP(recorder, httptest.NewRequest(method, target, body))

	return recorder
}

func (suite *ServerTestSuite) decodeError(recorder *httptest.ResponseRecorder) ErrorResponse {
	var resp ErrorResponse
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &resp))

	return resp
}

func (suite *ServerTestSuite) TestHealth() {
	recorder := suite.do(http.MethodGet, "/healthz", nil)

	suite.Equal(http.StatusOK, recorder.Code)
	suite.Contains(recorder.Body.String(), `"status":"ok"`)
	suite.NotEmpty(recorder.Header().Get(requestIDHeader))
}

func (suite *ServerTestSuite) TestRequestIDIsEchoed() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")

	recorder := httptest.NewRecorder()
	suite.server.Handler().ServeHTTP(recorder, req)

	suite.Equal("abc-123", recorder.Header().Get(requestIDHeader))
}

func (suite *ServerTestSuite) TestComputeRamp() {
	bars := make([]types.PriceBar, 25)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	for i := range bars {
		c := 100 + float64(i)
		bars[i] = types.PriceBar{Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 10}
	}

	body, err := json.Marshal(ComputeRequest{Bars: bars})
	suite.Require().NoError(err)

	recorder := suite.do(http.MethodPost, "/v1/indicators", bytes.NewReader(body))
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())

	var resp seriesPayload
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &resp))
	suite.Require().Len(resp.Series, 25)

	suite.Nil(resp.Series[0]["ma5"])
	suite.InDelta(114.5, resp.Series[24]["ma20"].(float64), 1e-9)
	suite.InDelta(114.5, resp.Series[24]["bollMid"].(float64), 1e-9)
	suite.Nil(resp.Series[24]["dif"])

	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.HTTPRequests.WithLabelValues("/v1/indicators", "200")))
}

func (suite *ServerTestSuite) TestComputeEmpty() {
	recorder := suite.do(http.MethodPost, "/v1/indicators", strings.NewReader(`{"bars":[]}`))

	suite.Equal(http.StatusOK, recorder.Code)
	suite.JSONEq(`{"series":[]}`, recorder.Body.String())
}

func (suite *ServerTestSuite) TestComputeNullClose() {
	body := `{"bars":[
		{"time":"2024-01-02T00:00:00Z","open":10,"high":11,"low":9,"close":10,"volume":1},
		{"time":"2024-01-03T00:00:00Z","open":10,"high":11,"low":9,"close":null,"volume":1}
	]}`

	recorder := suite.do(http.MethodPost, "/v1/indicators", strings.NewReader(body))
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())

	var resp seriesPayload
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &resp))

	bar := resp.Series[1]["bar"].(map[string]any)
	suite.Nil(bar["close"])
}

func (suite *ServerTestSuite) TestComputeMalformedBar() {
	body := `{"bars":[{"time":"2024-01-02T00:00:00Z","open":10,"high":8,"low":9,"close":10,"volume":1}]}`

	recorder := suite.do(http.MethodPost, "/v1/indicators", strings.NewReader(body))
	suite.Equal(http.StatusBadRequest, recorder.Code)

	resp := suite.decodeError(recorder)
	suite.Equal(errors.ErrCodeMalformedBar, resp.Code)
	suite.Contains(resp.Error, "bar 0")
}

func (suite *ServerTestSuite) TestComputeOverflowingCloses() {
	bars := make([]types.PriceBar, 25)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	for i := range bars {
		bars[i] = types.PriceBar{Time: start.AddDate(0, 0, i), Open: 1e308, High: 1e308, Low: 1e308, Close: 1e308, Volume: 1}
	}

	body, err := json.Marshal(ComputeRequest{Bars: bars})
	suite.Require().NoError(err)

	recorder := suite.do(http.MethodPost, "/v1/indicators", bytes.NewReader(body))
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())

	var resp seriesPayload
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &resp))
	suite.Require().Len(resp.Series, 25)
	suite.Nil(resp.Series[24]["ma5"])
	suite.Nil(resp.Series[24]["bollLower"])
}

func (suite *ServerTestSuite) TestWriteJSONEncodeFailure() {
	recorder := httptest.NewRecorder()
	writeJSON(recorder, http.StatusOK, map[string]float64{"value": math.Inf(1)})

	suite.Equal(http.StatusInternalServerError, recorder.Code)
	suite.Equal(errors.ErrCodeUnknown, suite.decodeError(recorder).Code)
}

func (suite *ServerTestSuite) TestComputeInvalidBody() {
	recorder := suite.do(http.MethodPost, "/v1/indicators", strings.NewReader(`{"bars":`))

	suite.Equal(http.StatusBadRequest, recorder.Code)
	suite.Equal(errors.ErrCodeDecodeFailed, suite.decodeError(recorder).Code)
}

func (suite *ServerTestSuite) TestComputeWrongMethod() {
	recorder := suite.do(http.MethodGet, "/v1/indicators", nil)
	suite.Equal(http.StatusMethodNotAllowed, recorder.Code)
}

func (suite *ServerTestSuite) TestSymbols() {
	suite.source.EXPECT().Symbols(gomock.Any()).Return([]string{"AAPL", "MSFT"}, nil)

	recorder := suite.do(http.MethodGet, "/v1/symbols", nil)

	suite.Equal(http.StatusOK, recorder.Code)
	suite.JSONEq(`{"symbols":["AAPL","MSFT"]}`, recorder.Body.String())
}

func (suite *ServerTestSuite) TestSymbolIndicators() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	expected := datasource.BarQuery{Symbol: "AAPL", Start: optional.Some(start), End: optional.None[time.Time]()}

	suite.source.EXPECT().ReadBars(gomock.Any(), expected).Return(mocks.GenerateSeries("AAPL", 30), nil)

	recorder := suite.do(http.MethodGet, "/v1/symbols/AAPL/indicators?start=2024-01-01T00:00:00Z", nil)
	suite.Require().Equal(http.StatusOK, recorder.Code, recorder.Body.String())

	var resp seriesPayload
	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &resp))
	suite.Len(resp.Series, 30)
	suite.NotNil(resp.Series[29]["ma20"])

	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.HTTPRequests.WithLabelValues("/v1/symbols/{symbol}/indicators", "200")))
}

func (suite *ServerTestSuite) TestSymbolIndicatorsUnknownSymbol() {
	suite.source.EXPECT().ReadBars(gomock.Any(), gomock.Any()).Return([]types.PriceBar{}, nil)

	recorder := suite.do(http.MethodGet, "/v1/symbols/NOPE/indicators", nil)

	suite.Equal(http.StatusNotFound, recorder.Code)
	suite.Equal(errors.ErrCodeDataNotFound, suite.decodeError(recorder).Code)
}

func (suite *ServerTestSuite) TestSymbolIndicatorsBadTime() {
	recorder := suite.do(http.MethodGet, "/v1/symbols/AAPL/indicators?end=yesterday", nil)

	suite.Equal(http.StatusBadRequest, recorder.Code)
	suite.Equal(errors.ErrCodeBadRequest, suite.decodeError(recorder).Code)
}

func (suite *ServerTestSuite) TestSourceFailureIs500() {
	suite.source.EXPECT().ReadBars(gomock.Any(), gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeQueryFailed, "duckdb gone"))

	recorder := suite.do(http.MethodGet, "/v1/symbols/AAPL/indicators", nil)
	suite.Equal(http.StatusInternalServerError, recorder.Code)
}

func (suite *ServerTestSuite) TestMetricsEndpoint() {
	suite.do(http.MethodGet, "/healthz", nil)

	recorder := suite.do(http.MethodGet, "/metrics", nil)

	suite.Equal(http.StatusOK, recorder.Code)
	suite.Contains(recorder.Body.String(), `indicators_http_requests_total{code="200",route="/healthz"} 1`)
}

func (suite *ServerTestSuite) TestWebSocketRecomputes() {
	httpServer := httptest.NewServer(suite.server.Handler())
	defer httpServer.Close()

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/v1/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	suite.Require().NoError(err)
	defer conn.Close()

	for _, n := range []int{5, 6} {
		payload, err := json.Marshal(mocks.GenerateSeries("AAPL", n))
		suite.Require().NoError(err)
		suite.Require().NoError(conn.WriteMessage(websocket.TextMessage, payload))

		_, data, err := conn.ReadMessage()
		suite.Require().NoError(err)

		var resp seriesPayload
		suite.Require().NoError(json.Unmarshal(data, &resp))
		suite.Len(resp.Series, n)
		suite.NotNil(resp.Series[4]["ma5"])
	}

	suite.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte(`{"not":"an array"}`)))

	_, data, err := conn.ReadMessage()
	suite.Require().NoError(err)

	var resp ErrorResponse
	suite.Require().NoError(json.Unmarshal(data, &resp))
	suite.Equal(errors.ErrCodeDecodeFailed, resp.Code)
}

func (suite *ServerTestSuite) TestServeShutsDownOnCancel() {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	suite.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- suite.server.Serve(ctx, listener)
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/healthz")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		suite.NoError(err)
	case <-time.After(5 * time.Second):
		suite.Fail("server did not shut down")
	}
}

func (suite *ServerTestSuite) TestStatusFor() {
	suite.Equal(http.StatusNotFound, statusFor(errors.New(errors.ErrCodeDataNotFound, "x")))
	suite.Equal(http.StatusBadRequest, statusFor(errors.New(errors.ErrCodeMissingParameter, "x")))
	suite.Equal(http.StatusBadRequest, statusFor(errors.New(errors.ErrCodeDecodeFailed, "x")))
	suite.Equal(http.StatusInternalServerError, statusFor(errors.New(errors.ErrCodeWriteFailed, "x")))
	suite.Equal(http.StatusInternalServerError, statusFor(io.EOF))
}
