package filestore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/Strob0t/driftgate/internal/domain/metrics"
)

// MetricsFile appends partial pipeline rows to a CSV file with a fixed header.
type MetricsFile struct {
	path string
	mu   sync.Mutex
}

// NewMetricsFile returns a recorder writing to path.
func NewMetricsFile(path string) *MetricsFile {
	return &MetricsFile{path: path}
}

// Path returns the CSV file location.
func (m *MetricsFile) Path() string { return m.path }

// Append writes r as one CSV record, preceded by the header when the file is
// empty or missing.
func (m *MetricsFile) Append(_ context.Context, r metrics.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return withLock(m.path, func() error {
		empty, err := isEmpty(m.path)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if empty {
			if err := w.Write(metrics.Header); err != nil {
				return fmt.Errorf("csv header: %w", err)
			}
		}
		if err := w.Write(r.Record()); err != nil {
			return fmt.Errorf("csv row: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("csv flush: %w", err)
		}
		return appendFile(m.path, buf.Bytes())
	})
}

func isEmpty(path string) (bool, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return fi.Size() == 0, nil
}

// ReadMetrics parses every data row of the CSV at path. The header row is
// skipped wherever it appears.
func ReadMetrics(path string) ([]metrics.Row, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return decodeMetrics(f)
}

func decodeMetrics(r io.Reader) ([]metrics.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(metrics.Header)

	var rows []metrics.Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if slices.Equal(rec, metrics.Header) {
			continue
		}
		row, err := metrics.ParseRecord(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}
