package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tradesim/config"
	"github.com/alejandrodnm/tradesim/internal/adapters/marketdata"
	"github.com/alejandrodnm/tradesim/internal/adapters/metrics"
	"github.com/alejandrodnm/tradesim/internal/adapters/notify"
	"github.com/alejandrodnm/tradesim/internal/adapters/storage"
	"github.com/alejandrodnm/tradesim/internal/ports"
	"github.com/alejandrodnm/tradesim/internal/simulator"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file (empty = defaults only)")
	seed := flag.Int64("seed", -1, "RNG seed (overrides config, -1 = keep config)")
	trades := flag.Int("trades", 0, "trades per ticker (overrides config)")
	shares := flag.Int("shares", 0, "shares per trade (overrides config)")
	workers := flag.Int("workers", -1, "concurrent sampling workers, 0 = sequential (overrides config)")
	source := flag.String("source", "", "series source: csv|random|chart (overrides config)")
	sink := flag.String("sink", "", "scalar sink: sqlite|csv (overrides config)")
	logDir := flag.String("log-dir", "", "directory for scalar logs (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "serve /metrics on this address and wait for Ctrl+C")
	dryRun := flag.Bool("dry-run", false, "random-walk series and in-memory sink, nothing touches disk")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print per-ticker tables (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	applyFlags(cfg, *seed, *trades, *shares, *workers, *source, *sink, *logDir, *metricsAddr)
	if *dryRun {
		cfg.Source.Kind = "random"
		cfg.Sink.Kind = "sqlite"
		cfg.Sink.LogDir = ":memory:"
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	from, to, err := cfg.Range()
	if err != nil {
		slog.Error("invalid date range", "err", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	slog.Info("tradesim starting",
		"config", *configPath,
		"run_id", runID,
		"source", cfg.Source.Kind,
		"sink", cfg.Sink.Kind,
		"from", cfg.Simulation.StartDate,
		"to", cfg.Simulation.EndDate,
		"seed", cfg.SeedValue(),
		"dry_run", *dryRun,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	provider := newProvider(cfg)

	metricSink, closeSink, err := openSink(ctx, cfg, runID)
	if err != nil {
		slog.Error("failed to open sink", "err", err, "kind", cfg.Sink.Kind, "log_dir", cfg.Sink.LogDir)
		os.Exit(1)
	}
	defer closeSink()

	recorder := metrics.NewRecorder()
	if cfg.Metrics.Addr != "" {
		srv := recorder.Serve(cfg.Metrics.Addr)
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
		slog.Info("metrics server listening", "addr", cfg.Metrics.Addr)
	}

	simCfg := simulator.DefaultConfig()
	simCfg.RunID = runID
	simCfg.Tickers = cfg.Simulation.Tickers
	simCfg.From = from
	simCfg.To = to
	simCfg.Interval = cfg.Simulation.Interval
	simCfg.TradesPerTicker = cfg.Simulation.TradesPerTicker
	simCfg.Shares = cfg.Simulation.Shares
	simCfg.Seed = cfg.SeedValue()
	simCfg.Workers = cfg.Simulation.Workers

	runner := simulator.New(simCfg, provider, metricSink, notify.NewConsole(*table), recorder)

	run, err := runner.Run(ctx)
	if err != nil {
		slog.Error("simulation failed", "err", err, "run_id", runID)
		closeSink()
		os.Exit(1)
	}

	if cfg.Sink.LogDir != ":memory:" {
		slog.Info("scalars written", "run_id", run.ID, "kind", cfg.Sink.Kind, "log_dir", cfg.Sink.LogDir)
	}

	if cfg.Metrics.Addr != "" {
		slog.Info("serving metrics, press Ctrl+C to exit", "addr", cfg.Metrics.Addr)
		<-ctx.Done()
	}

	slog.Info("tradesim stopped cleanly")
}

func applyFlags(cfg *config.Config, seed int64, trades, shares, workers int, source, sink, logDir, metricsAddr string) {
	if seed >= 0 {
		s := uint64(seed)
		cfg.Simulation.Seed = &s
	}
	if trades > 0 {
		cfg.Simulation.TradesPerTicker = trades
	}
	if shares > 0 {
		cfg.Simulation.Shares = shares
	}
	if workers >= 0 {
		cfg.Simulation.Workers = workers
	}
	if source != "" {
		cfg.Source.Kind = source
	}
	if sink != "" {
		cfg.Sink.Kind = sink
	}
	if logDir != "" {
		cfg.Sink.LogDir = logDir
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
}

func newProvider(cfg *config.Config) ports.SeriesProvider {
	switch cfg.Source.Kind {
	case "random":
		return marketdata.NewRandomWalkProvider(marketdata.RandomWalkConfig{
			Bars:       cfg.Source.Bars,
			StartPrice: cfg.Source.StartPrice,
			Volatility: cfg.Source.Volatility,
			Seed:       cfg.SeedValue(),
		})
	case "chart":
		return marketdata.NewChartClient(cfg.Source.BaseURL)
	default:
		return marketdata.NewCSVProvider(cfg.Source.Dir)
	}
}

// openSink devuelve el sink del run y una función de cierre idempotente.
func openSink(ctx context.Context, cfg *config.Config, runID string) (ports.MetricSink, func(), error) {
	switch cfg.Sink.Kind {
	case "csv":
		l, err := storage.NewCSVLog(cfg.Sink.LogDir, runID)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("csv scalar log", "path", l.Path())
		return l, onceClose(l.Close), nil
	default:
		store, err := storage.NewSQLiteStorage(cfg.Sink.DSN())
		if err != nil {
			return nil, nil, err
		}
		runLog, err := store.StartRun(ctx, storage.RunMeta{
			ID:              runID,
			StartedAt:       time.Now(),
			Seed:            cfg.SeedValue(),
			Tickers:         cfg.Simulation.Tickers,
			Interval:        cfg.Simulation.Interval,
			TradesPerTicker: cfg.Simulation.TradesPerTicker,
			Shares:          cfg.Simulation.Shares,
		})
		if err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("start run: %w", err)
		}
		return runLog, onceClose(func() error {
			runLog.Close()
			return store.Close()
		}), nil
	}
}

func onceClose(fn func() error) func() {
	done := false
	return func() {
		if done {
			return
		}
		done = true
		if err := fn(); err != nil {
			slog.Warn("close sink", "err", err)
		}
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
