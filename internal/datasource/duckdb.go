package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-indicators/internal/config"
	"github.com/rxtech-lab/argo-indicators/internal/logger"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
	"go.uber.org/zap"
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDataSource opens a DuckDB database at path (":memory:" for an in-memory one)
// and applies the threads and memory_limit settings from cfg.
// Initialize must be called before reading.
func NewDataSource(path string, cfg config.DataSourceConfig, logger *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = db.Exec(fmt.Sprintf("SET memory_limit='%s'; SET threads=%d;", quote(cfg.MemoryLimit), cfg.Threads))
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to set DuckDB options", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		reader = "read_parquet"
	case ".csv":
		reader = "read_csv_auto"
	default:
		return errors.Newf(errors.ErrCodeUnsupportedFormat, "unsupported data file %s: expected .parquet or .csv", path)
	}

	_, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to drop existing view", err)
	}

	// squirrel has no CREATE VIEW
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT * FROM %s('%s');
	`, reader, quote(path))

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to load %s", path)
	}

	return nil
}

// ReadBars implements BarSource.
func (d *DuckDBDataSource) ReadBars(ctx context.Context, q BarQuery) ([]types.PriceBar, error) {
	query, args, err := d.where(d.sq.
		Select("time", "symbol", "open", "high", "low", "close", "volume").
		From("market_data"), q).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err)
	}
	defer rows.Close()

	result := make([]types.PriceBar, 0, 1000)

	for rows.Next() {
		var (
			timestamp                      time.Time
			symbol                         sql.NullString
			open, high, low, close, volume sql.NullFloat64
		)

		err := rows.Scan(&timestamp, &symbol, &open, &high, &low, &close, &volume)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		result = append(result, types.PriceBar{
			Time:   timestamp,
			Symbol: symbol.String,
			Open:   nullToNaN(open),
			High:   nullToNaN(high),
			Low:    nullToNaN(low),
			Close:  nullToNaN(close),
			Volume: nullToNaN(volume),
		})
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	d.logger.Debug("Read bars",
		zap.String("symbol", q.Symbol),
		zap.Int("count", len(result)),
	)

	return result, nil
}

// Symbols implements BarSource.
func (d *DuckDBDataSource) Symbols(ctx context.Context) ([]string, error) {
	query, args, err := d.sq.
		Select("DISTINCT symbol").
		From("market_data").
		Where(squirrel.NotEq{"symbol": nil}).
		OrderBy("symbol ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	symbols := []string{}

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	return symbols, nil
}

// Count implements BarSource.
func (d *DuckDBDataSource) Count(ctx context.Context, q BarQuery) (int, error) {
	query, args, err := d.where(d.sq.Select("COUNT(*)").From("market_data"), q).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int

	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count market data", err)
	}

	return count, nil
}

// Close implements BarSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

func (d *DuckDBDataSource) where(builder squirrel.SelectBuilder, q BarQuery) squirrel.SelectBuilder {
	if q.Symbol != "" {
		builder = builder.Where(squirrel.Eq{"symbol": q.Symbol})
	}

	if q.Start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": q.Start.Unwrap()})
	}

	if q.End.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": q.End.Unwrap()})
	}

	return builder
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}

	return v.Float64
}

func quote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
