package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/alejandrodnm/tradesim/internal/domain"
)

// CSVLog implementa ports.MetricSink escribiendo <dir>/<runID>/scalars.csv
// con columnas step,name,value.
type CSVLog struct {
	path string

	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// NewCSVLog crea el directorio del run y el fichero con la cabecera.
func NewCSVLog(dir, runID string) (*CSVLog, error) {
	if runID == "" {
		return nil, fmt.Errorf("storage.NewCSVLog: empty run id")
	}
	runDir := filepath.Join(dir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewCSVLog: create %q: %w", runDir, err)
	}

	path := filepath.Join(runDir, "scalars.csv")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewCSVLog: create %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"step", "name", "value"}); err != nil {
		f.Close()
		return nil, fmt.Errorf("storage.NewCSVLog: write header: %w", err)
	}

	return &CSVLog{path: path, f: f, w: w}, nil
}

// Path devuelve la ruta del fichero CSV.
func (l *CSVLog) Path() string { return l.path }

// WriteScalar añade una fila.
func (l *CSVLog) WriteScalar(_ context.Context, sc domain.Scalar) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	row := []string{
		strconv.Itoa(sc.Step),
		sc.Name,
		strconv.FormatFloat(sc.Value, 'f', -1, 64),
	}
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("storage.CSVLog: write row: %w", err)
	}
	return nil
}

// Flush vuelca el buffer y sincroniza el fichero.
func (l *CSVLog) Flush(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("storage.CSVLog: flush: %w", err)
	}
	return l.f.Sync()
}

// Close vuelca lo pendiente y cierra el fichero.
func (l *CSVLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
