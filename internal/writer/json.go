package writer

import (
	"bufio"
	"os"

	"github.com/goccy/go-json"
	"github.com/rxtech-lab/argo-indicators/internal/logger"
	"github.com/rxtech-lab/argo-indicators/internal/types"
	"github.com/rxtech-lab/argo-indicators/pkg/errors"
	"go.uber.org/zap"
)

// JSONWriter streams the series as a JSON array of IndicatorSeries objects.
type JSONWriter struct {
	file       *os.File
	buf        *bufio.Writer
	outputPath string
	precision  int
	written    int
	logger     *logger.Logger
}

// NewJSONWriter creates a new JSONWriter.
func NewJSONWriter(outputPath string, precision int, logger *logger.Logger) SeriesWriter {
	return &JSONWriter{
		outputPath: outputPath,
		precision:  precision,
		logger:     logger,
	}
}

// Initialize creates the output file and opens the array.
func (w *JSONWriter) Initialize() error {
	file, err := os.Create(w.outputPath)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create %s", w.outputPath)
	}

	w.file = file
	w.buf = bufio.NewWriter(file)
	w.written = 0

	if _, err := w.buf.WriteString("["); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write output", err)
	}

	return nil
}

// Write appends one entry to the array.
func (w *JSONWriter) Write(entry types.IndicatorSeries) error {
	if w.buf == nil {
		return errors.New(errors.ErrCodeWriterNotInitialized, "writer not initialized")
	}

	data, err := json.Marshal(roundSeries(entry, w.precision))
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to encode series entry", err)
	}

	if w.written > 0 {
		if err := w.buf.WriteByte(','); err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write output", err)
		}
	}

	if _, err := w.buf.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write output", err)
	}

	w.written++

	return nil
}

// Finalize closes the array and flushes the file.
func (w *JSONWriter) Finalize() (string, error) {
	if w.buf == nil {
		return "", errors.New(errors.ErrCodeWriterNotInitialized, "writer not initialized")
	}

	if _, err := w.buf.WriteString("]\n"); err != nil {
		return "", errors.Wrap(errors.ErrCodeFinalizeFailed, "failed to write output", err)
	}

	if err := w.buf.Flush(); err != nil {
		return "", errors.Wrap(errors.ErrCodeFinalizeFailed, "failed to flush output", err)
	}

	w.buf = nil

	w.logger.Info("Exported indicator series",
		zap.String("path", w.outputPath),
		zap.Int("entries", w.written),
	)

	return w.outputPath, nil
}

// Close closes the output file. It is safe to call twice.
func (w *JSONWriter) Close() error {
	w.buf = nil

	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to close output file", err)
	}

	return nil
}

// GetOutputPath returns the JSON file path.
func (w *JSONWriter) GetOutputPath() string {
	return w.outputPath
}
