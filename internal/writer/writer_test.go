package writer

import (
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-indicators/internal/logger"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type countingProgress struct {
	total int
}

func (p *countingProgress) Add(num int) error {
	p.total += num

	return nil
}

func testSeries(n int) []types.IndicatorSeries {
	series := make([]types.IndicatorSeries, n)
	base := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)

	for i := range series {
		series[i] = types.NewIndicatorSeries(types.PriceBar{
			Time:   base.AddDate(0, 0, i),
			Symbol: "SPY",
			Open:   450 + float64(i),
			High:   455 + float64(i),
			Low:    448 + float64(i),
			Close:  452 + float64(i),
			Volume: 5000000,
		})
	}

	series[n-1].MA5 = optional.Some(453.123456)
	series[n-1].RSI = optional.Some(66.66666)

	return series
}

type WriterTestSuite struct {
	suite.Suite
	tempDir string
	logger  *logger.Logger
}

func TestWriterSuite(t *testing.T) {
	suite.Run(t, new(WriterTestSuite))
}

func (suite *WriterTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
	suite.logger = logger.NewNopLogger()
}

func (suite *WriterTestSuite) TestRoundValue() {
	suite.True(roundValue(optional.None[float64](), 2).IsNone())
	suite.Equal(1.23, roundValue(optional.Some(1.2345), 2).Unwrap())
	suite.Equal(1.235, roundValue(optional.Some(1.2345), 3).Unwrap())
	suite.Equal(-2.0, roundValue(optional.Some(-1.5), 0).Unwrap())
}

func (suite *WriterTestSuite) TestRoundValueNonFinite() {
	suite.True(roundValue(optional.Some(math.Inf(1)), 4).IsNone())
	suite.True(roundValue(optional.Some(math.Inf(-1)), 4).IsNone())
	suite.True(roundValue(optional.Some(math.NaN()), 4).IsNone())
}

func (suite *WriterTestSuite) TestJSONWriteAllNonFiniteAsNull() {
	outputPath := filepath.Join(suite.tempDir, "non-finite.json")
	series := testSeries(2)
	series[1].MA5 = optional.Some(math.Inf(1))
	series[1].BollLower = optional.Some(math.NaN())

	_, err := WriteAll(NewJSONWriter(outputPath, 4, suite.logger), series, nil)
	suite.Require().NoError(err)

	data, err := os.ReadFile(outputPath)
	suite.Require().NoError(err)

	var decoded []map[string]any
	suite.Require().NoError(json.Unmarshal(data, &decoded))
	suite.Require().Len(decoded, 2)

	suite.Nil(decoded[1]["ma5"])
	suite.Nil(decoded[1]["bollLower"])
	suite.Equal(66.6667, decoded[1]["rsi"])
}

func (suite *WriterTestSuite) TestDuckDBWriteAllNonFiniteAsNull() {
	outputPath := filepath.Join(suite.tempDir, "non-finite.parquet")
	series := testSeries(2)
	series[1].MA5 = optional.Some(math.Inf(-1))

	_, err := WriteAll(NewDuckDBWriter(outputPath, 4, suite.logger), series, nil)
	suite.Require().NoError(err)

	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)
	defer db.Close()

	var ma5 sql.NullFloat64
	suite.Require().NoError(db.QueryRow("SELECT ma5 FROM read_parquet('" + outputPath + "') ORDER BY time DESC LIMIT 1").Scan(&ma5))
	suite.False(ma5.Valid)
}

func (suite *WriterTestSuite) TestNew() {
	w, err := New("json", "out.json", 4, suite.logger)
	suite.NoError(err)
	suite.IsType(&JSONWriter{}, w)

	w, err = New("parquet", "out.parquet", 4, suite.logger)
	suite.NoError(err)
	suite.IsType(&DuckDBWriter{}, w)

	_, err = New("xml", "out.xml", 4, suite.logger)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedFormat))
}

func (suite *WriterTestSuite) TestJSONWriteAll() {
	outputPath := filepath.Join(suite.tempDir, "series.json")
	progress := &countingProgress{}

	path, err := WriteAll(NewJSONWriter(outputPath, 2, suite.logger), testSeries(3), progress)
	suite.Require().NoError(err)
	suite.Equal(outputPath, path)
	suite.Equal(3, progress.total)

	data, err := os.ReadFile(outputPath)
	suite.Require().NoError(err)

	var decoded []map[string]any
	suite.Require().NoError(json.Unmarshal(data, &decoded))
	suite.Len(decoded, 3)

	suite.Nil(decoded[0]["ma5"])
	suite.Equal(453.12, decoded[2]["ma5"])
	suite.Equal(66.67, decoded[2]["rsi"])

	bar := decoded[2]["bar"].(map[string]any)
	suite.Equal(454.0, bar["close"])
	suite.Equal("SPY", bar["symbol"])
}

func (suite *WriterTestSuite) TestJSONEmptySeries() {
	outputPath := filepath.Join(suite.tempDir, "empty.json")

	_, err := WriteAll(NewJSONWriter(outputPath, 4, suite.logger), nil, nil)
	suite.Require().NoError(err)

	data, err := os.ReadFile(outputPath)
	suite.Require().NoError(err)
	suite.Equal("[]\n", string(data))
}

func (suite *WriterTestSuite) TestJSONWriteWithoutInitialize() {
	w := NewJSONWriter(filepath.Join(suite.tempDir, "x.json"), 4, suite.logger)

	err := w.Write(testSeries(1)[0])
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeWriterNotInitialized))

	_, err = w.Finalize()
	suite.Error(err)
	suite.NoError(w.Close())
}

func (suite *WriterTestSuite) TestJSONInitializeBadPath() {
	w := NewJSONWriter(filepath.Join(suite.tempDir, "missing", "x.json"), 4, suite.logger)

	err := w.Initialize()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeWriteFailed))
}

func (suite *WriterTestSuite) TestDuckDBWriteAll() {
	outputPath := filepath.Join(suite.tempDir, "series.parquet")
	series := testSeries(5)
	series[1].Bar.Close = math.NaN()

	path, err := WriteAll(NewDuckDBWriter(outputPath, 3, suite.logger), series, nil)
	suite.Require().NoError(err)
	suite.Equal(outputPath, path)

	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)
	defer db.Close()

	var count int
	suite.Require().NoError(db.QueryRow("SELECT COUNT(*) FROM read_parquet('" + outputPath + "')").Scan(&count))
	suite.Equal(5, count)

	var ma5 sql.NullFloat64
	suite.Require().NoError(db.QueryRow("SELECT ma5 FROM read_parquet('" + outputPath + "') ORDER BY time DESC LIMIT 1").Scan(&ma5))
	suite.True(ma5.Valid)
	suite.InDelta(453.123, ma5.Float64, 1e-9)

	var closePrice, rsi sql.NullFloat64
	suite.Require().NoError(db.QueryRow("SELECT close, rsi FROM read_parquet('" + outputPath + "') ORDER BY time LIMIT 1 OFFSET 1").Scan(&closePrice, &rsi))
	suite.False(closePrice.Valid)
	suite.False(rsi.Valid)

	var distinctIDs int
	suite.Require().NoError(db.QueryRow("SELECT COUNT(DISTINCT id) FROM read_parquet('" + outputPath + "')").Scan(&distinctIDs))
	suite.Equal(5, distinctIDs)
}

func (suite *WriterTestSuite) TestDuckDBWriteWithoutInitialize() {
	w := NewDuckDBWriter(filepath.Join(suite.tempDir, "x.parquet"), 4, suite.logger)

	err := w.Write(testSeries(1)[0])
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")

	_, err = w.Finalize()
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")
}

func (suite *WriterTestSuite) TestDuckDBDoubleClose() {
	w := NewDuckDBWriter(filepath.Join(suite.tempDir, "x.parquet"), 4, suite.logger)
	suite.Require().NoError(w.Initialize())

	suite.NoError(w.Close())
	suite.NoError(w.Close())

	duckWriter := w.(*DuckDBWriter)
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)
	suite.Equal(filepath.Join(suite.tempDir, "x.parquet"), w.GetOutputPath())
}
