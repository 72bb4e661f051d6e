package writer

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-indicators/internal/logger"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBWriter stages rows in an in-memory DuckDB table and exports them to Parquet.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string // Parquet file written by Finalize
	precision  int
	logger     *logger.Logger
}

// NewDuckDBWriter creates a new DuckDBWriter.
func NewDuckDBWriter(outputPath string, precision int, logger *logger.Logger) SeriesWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
		precision:  precision,
		logger:     logger,
	}
}

func seriesColumns() []string {
	return append([]string{"id", "time", "symbol", "open", "high", "low", "close", "volume"}, types.SeriesColumns...)
}

// Initialize opens the database, creates the table, begins a transaction
// and prepares the insert statement.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to open DuckDB connection", err)
	}

	definitions := []string{"id TEXT", "time TIMESTAMP", "symbol TEXT"}
	for _, column := range seriesColumns()[3:] {
		definitions = append(definitions, column+" DOUBLE")
	}

	_, err = w.db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS indicator_series (%s)", strings.Join(definitions, ", ")))
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	columns := seriesColumns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")

	w.stmt, err = w.tx.Prepare(fmt.Sprintf(
		"INSERT INTO indicator_series (%s) VALUES (%s)",
		strings.Join(columns, ", "), placeholders,
	))
	if err != nil {
		w.tx.Rollback()
		w.db.Close()
		w.tx = nil
		w.db = nil

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write inserts one entry. Absent values and NaN prices become NULL.
func (w *DuckDBWriter) Write(entry types.IndicatorSeries) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeWriterNotInitialized, "writer not initialized or statement is nil")
	}

	rounded := roundSeries(entry, w.precision)
	bar := rounded.Bar

	args := []any{
		uuid.New().String(),
		bar.Time,
		bar.Symbol,
		nullable(types.Finite(bar.Open)),
		nullable(types.Finite(bar.High)),
		nullable(types.Finite(bar.Low)),
		nullable(types.Finite(bar.Close)),
		nullable(types.Finite(bar.Volume)),
	}

	for _, value := range rounded.Values() {
		args = append(args, nullable(value.Value))
	}

	if _, err := w.stmt.Exec(args...); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to insert series entry", err)
	}

	return nil
}

// Finalize commits the transaction and exports the table to Parquet.
func (w *DuckDBWriter) Finalize() (outputPath string, err error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeWriterNotInitialized, "writer not initialized or transaction is nil")
	}

	if err = w.tx.Commit(); err != nil {
		w.tx.Rollback()
		w.tx = nil

		return "", errors.Wrap(errors.ErrCodeFinalizeFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	_, err = w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM indicator_series ORDER BY time) TO '%s' (FORMAT PARQUET)`,
		strings.ReplaceAll(w.outputPath, "'", "''")))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFinalizeFailed, "failed to export to Parquet", err)
	}

	w.logger.Info("Exported indicator series", zap.String("path", w.outputPath))

	return w.outputPath, nil
}

// Close releases the statement and the database connection. It is safe to call twice.
func (w *DuckDBWriter) Close() error {
	var closeErrors []string

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to close statement: %v", err))
		}

		w.stmt = nil
	}

	// still open when Finalize was skipped or failed
	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			w.logger.Warn("failed to rollback transaction during close", zap.Error(err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to close db connection: %v", err))
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		return errors.Newf(errors.ErrCodeWriteFailed, "errors occurred during close: %s", strings.Join(closeErrors, "; "))
	}

	return nil
}

// GetOutputPath returns the Parquet file path.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}
