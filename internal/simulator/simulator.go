package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tradesim/internal/domain"
	"github.com/alejandrodnm/tradesim/internal/ports"
)

const defaultTradesPerTicker = 100

// Config contiene los parámetros de un run.
type Config struct {
	RunID           string // vacío = se genera un UUID
	Tickers         []string
	From            time.Time
	To              time.Time
	Interval        string
	TradesPerTicker int
	Shares          int
	Seed            uint64

	// Workers > 0 activa el muestreo concurrente con un generador por ticker.
	// Con 0 se usa un único generador compartido, en orden de ticker.
	Workers int
}

// DefaultConfig devuelve la configuración por defecto: 100 trades de 10 acciones.
func DefaultConfig() Config {
	return Config{
		Interval:        "1m",
		TradesPerTicker: defaultTradesPerTicker,
		Shares:          domain.DefaultShares,
	}
}

// Runner orquesta fetch → simulate → normalize → export → notify.
type Runner struct {
	cfg      Config
	series   ports.SeriesProvider
	sink     ports.MetricSink
	notifier ports.Notifier
	recorder ports.RunRecorder
}

// New crea un Runner con todas las dependencias inyectadas.
// notifier y recorder pueden ser nil.
func New(
	cfg Config,
	series ports.SeriesProvider,
	sink ports.MetricSink,
	notifier ports.Notifier,
	recorder ports.RunRecorder,
) *Runner {
	return &Runner{
		cfg:      cfg,
		series:   series,
		sink:     sink,
		notifier: notifier,
		recorder: recorder,
	}
}

// Run ejecuta un run completo y devuelve el batch normalizado.
func (r *Runner) Run(ctx context.Context) (domain.Run, error) {
	run := domain.Run{
		ID:        r.cfg.RunID,
		StartedAt: time.Now().UTC(),
		Seed:      r.cfg.Seed,
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	slog.Info("simulation starting",
		"run_id", run.ID,
		"tickers", r.cfg.Tickers,
		"trades_per_ticker", r.cfg.TradesPerTicker,
		"shares", r.cfg.Shares,
		"seed", r.cfg.Seed,
		"workers", r.cfg.Workers,
	)

	// 1. Series
	series, fetchSkipped := r.fetchAll(ctx)

	// 2. Trades en bruto
	trades, skipped, err := r.simulate(ctx, series)
	if err != nil {
		r.fail("simulate")
		return run, err
	}
	run.Skipped = append(fetchSkipped, skipped...)

	// 3. Normalización: necesita el batch completo
	run.Trades = domain.Normalize(trades)
	run.MinScore, run.MaxScore, _ = domain.ScoreRange(run.Trades)

	// 4. Export
	scalars, err := Export(ctx, run.Trades, r.sink)
	if err != nil {
		r.fail("export")
		return run, err
	}

	if r.notifier != nil {
		if err := r.notifier.Notify(ctx, run); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}
	if r.recorder != nil {
		r.recorder.ObserveRun(run, scalars)
	}

	slog.Info("simulation complete",
		"run_id", run.ID,
		"trades", len(run.Trades),
		"skipped", len(run.Skipped),
		"scalars", scalars,
		"min_score", run.MinScore,
		"max_score", run.MaxScore,
		"elapsed", time.Since(run.StartedAt).Round(time.Millisecond),
	)
	return run, nil
}

func (r *Runner) simulate(ctx context.Context, series map[string]domain.TimeSeries) ([]domain.Trade, []domain.SkippedTicker, error) {
	if r.cfg.Workers > 0 {
		return SimulateConcurrent(ctx, series, r.cfg.TradesPerTicker, r.cfg.Shares, r.cfg.Seed, r.cfg.Workers)
	}
	return Simulate(series, r.cfg.TradesPerTicker, r.cfg.Shares, NewRand(r.cfg.Seed))
}

// fetchAll descarga las series. Un ticker que falla se salta con warning,
// igual que uno con datos insuficientes.
func (r *Runner) fetchAll(ctx context.Context) (map[string]domain.TimeSeries, []domain.SkippedTicker) {
	series := make(map[string]domain.TimeSeries, len(r.cfg.Tickers))
	var skipped []domain.SkippedTicker

	for i, ticker := range r.cfg.Tickers {
		s, err := r.series.FetchSeries(ctx, ticker, r.cfg.From, r.cfg.To, r.cfg.Interval)
		if err != nil {
			slog.Warn("fetch series failed",
				"ticker", ticker,
				"err", err,
			)
			skipped = append(skipped, domain.SkippedTicker{
				Ticker: ticker,
				Reason: fmt.Sprintf("fetch failed: %v", err),
			})
			continue
		}
		slog.Debug("fetched series",
			"n", fmt.Sprintf("%d/%d", i+1, len(r.cfg.Tickers)),
			"ticker", ticker,
			"bars", len(s),
		)
		series[ticker] = s
	}
	return series, skipped
}

func (r *Runner) fail(stage string) {
	if r.recorder != nil {
		r.recorder.ObserveFailure(stage)
	}
}
