package storage

// sqlite.go: log de escalares por run, para inspeccionar después.
//
// Estrategia:
//   - `runs`: una fila por run (semilla, tickers, parámetros, nº de escalares).
//   - `scalars`: (run_id, step, name, value). Una fila por escalar.
//   - Las escrituras de un run van en una sola transacción con un statement
//     preparado; Flush hace commit. Un batch de 200 trades son ~7000 filas.

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/tradesim/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id                TEXT PRIMARY KEY,
    started_at        INTEGER  NOT NULL, -- unix ms
    seed              INTEGER  NOT NULL,
    tickers           TEXT     NOT NULL,
    interval          TEXT     NOT NULL DEFAULT '',
    trades_per_ticker INTEGER  NOT NULL DEFAULT 0,
    shares            INTEGER  NOT NULL DEFAULT 0,
    scalars           INTEGER  NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS scalars (
    run_id TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    step   INTEGER NOT NULL,
    name   TEXT    NOT NULL,
    value  REAL    NOT NULL,
    seq    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scalars_run  ON scalars(run_id, seq);
CREATE INDEX IF NOT EXISTS idx_scalars_name ON scalars(run_id, name, step);
`

// RunMeta describe un run al registrarlo.
type RunMeta struct {
	ID              string
	StartedAt       time.Time
	Seed            uint64
	Tickers         []string
	Interval        string
	TradesPerTicker int
	Shares          int
}

// SQLiteStorage guarda runs y sus escalares en SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Crea el directorio padre si no existe. ":memory:" sirve para tests.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("storage.NewSQLiteStorage: create dir for %q: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{`PRAGMA journal_mode=WAL`, `PRAGMA foreign_keys=ON`} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage.NewSQLiteStorage: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// StartRun registra el run y devuelve un RunLog para escribir sus escalares.
func (s *SQLiteStorage) StartRun(ctx context.Context, meta RunMeta) (*RunLog, error) {
	if meta.ID == "" {
		return nil, fmt.Errorf("storage.StartRun: empty run id")
	}
	if meta.StartedAt.IsZero() {
		meta.StartedAt = time.Now()
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, seed, tickers, interval, trades_per_ticker, shares)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.StartedAt.UnixMilli(), int64(meta.Seed), strings.Join(meta.Tickers, ","),
		meta.Interval, meta.TradesPerTicker, meta.Shares,
	); err != nil {
		return nil, fmt.Errorf("storage.StartRun: insert run %s: %w", meta.ID, err)
	}

	return &RunLog{db: s.db, runID: meta.ID}, nil
}

// Runs devuelve los runs registrados, el más reciente primero.
func (s *SQLiteStorage) Runs(ctx context.Context) ([]RunMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, seed, tickers, interval, trades_per_ticker, shares
		FROM runs
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.Runs: query: %w", err)
	}
	defer rows.Close()

	var out []RunMeta
	for rows.Next() {
		var m RunMeta
		var seed, startedAt int64
		var tickers string
		if err := rows.Scan(&m.ID, &startedAt, &seed, &tickers, &m.Interval, &m.TradesPerTicker, &m.Shares); err != nil {
			return nil, fmt.Errorf("storage.Runs: scan row: %w", err)
		}
		m.Seed = uint64(seed)
		m.StartedAt = time.UnixMilli(startedAt).UTC()
		if tickers != "" {
			m.Tickers = strings.Split(tickers, ",")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Scalars devuelve los escalares de un run en el orden en que se escribieron.
func (s *SQLiteStorage) Scalars(ctx context.Context, runID string) ([]domain.Scalar, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value, step FROM scalars WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.Scalars: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Scalar
	for rows.Next() {
		var sc domain.Scalar
		if err := rows.Scan(&sc.Name, &sc.Value, &sc.Step); err != nil {
			return nil, fmt.Errorf("storage.Scalars: scan row: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// RunLog implementa ports.MetricSink para un run concreto.
// La transacción se abre con el primer escalar y se confirma en Flush.
type RunLog struct {
	db    *sql.DB
	runID string

	mu      sync.Mutex
	tx      *sql.Tx
	stmt    *sql.Stmt
	seq     int
	pending int
}

// RunID devuelve el id del run al que escribe este log.
func (l *RunLog) RunID() string { return l.runID }

// WriteScalar añade un escalar a la transacción en curso.
func (l *RunLog) WriteScalar(ctx context.Context, sc domain.Scalar) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tx == nil {
		if err := l.begin(ctx); err != nil {
			return err
		}
	}

	if _, err := l.stmt.ExecContext(ctx, l.runID, sc.Step, sc.Name, sc.Value, l.seq); err != nil {
		return fmt.Errorf("storage.WriteScalar: insert %q step %d: %w", sc.Name, sc.Step, err)
	}
	l.seq++
	l.pending++
	return nil
}

// Flush confirma la transacción y actualiza el contador del run.
func (l *RunLog) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tx == nil {
		return nil
	}

	l.stmt.Close()
	err := l.tx.Commit()
	l.tx, l.stmt = nil, nil
	if err != nil {
		return fmt.Errorf("storage.Flush: commit: %w", err)
	}

	// fuera de la tx: con MaxOpenConns=1 la tx tiene la única conexión
	if _, err := l.db.ExecContext(ctx,
		`UPDATE runs SET scalars = scalars + ? WHERE id = ?`, l.pending, l.runID,
	); err != nil {
		return fmt.Errorf("storage.Flush: update run %s: %w", l.runID, err)
	}
	l.pending = 0
	return nil
}

// Close descarta lo que no se haya confirmado con Flush.
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tx == nil {
		return nil
	}
	l.stmt.Close()
	err := l.tx.Rollback()
	l.tx, l.stmt = nil, nil
	l.seq -= l.pending
	l.pending = 0
	return err
}

func (l *RunLog) begin(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.WriteScalar: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scalars (run_id, step, name, value, seq) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("storage.WriteScalar: prepare: %w", err)
	}
	l.tx, l.stmt = tx, stmt
	return nil
}
