// Package metrics expone contadores del pipeline de simulación en Prometheus.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alejandrodnm/tradesim/internal/domain"
)

// Recorder implementa ports.RunRecorder.
type Recorder struct {
	gatherer prometheus.Gatherer

	Runs            *prometheus.CounterVec
	TradesSampled   *prometheus.CounterVec
	TickersSkipped  prometheus.Counter
	ScalarsExported prometheus.Counter
	ScoreMin        prometheus.Gauge
	ScoreMax        prometheus.Gauge
}

// NewRecorder registra las métricas en un registry propio.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		gatherer: reg,
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradesim",
			Name:      "runs_total",
			Help:      "Simulation runs by outcome.",
		}, []string{"status"}),
		TradesSampled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradesim",
			Name:      "trades_sampled_total",
			Help:      "Synthetic trades generated per ticker.",
		}, []string{"ticker"}),
		TickersSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tradesim",
			Name:      "tickers_skipped_total",
			Help:      "Tickers that contributed no trades.",
		}),
		ScalarsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tradesim",
			Name:      "scalars_exported_total",
			Help:      "Scalar records written to the metric sink.",
		}),
		ScoreMin: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tradesim",
			Name:      "batch_score_min",
			Help:      "Minimum raw score of the last batch.",
		}),
		ScoreMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tradesim",
			Name:      "batch_score_max",
			Help:      "Maximum raw score of the last batch.",
		}),
	}
	reg.MustRegister(r.Runs, r.TradesSampled, r.TickersSkipped, r.ScalarsExported, r.ScoreMin, r.ScoreMax)
	return r
}

// ObserveRun acumula los contadores de un run terminado.
func (r *Recorder) ObserveRun(run domain.Run, scalars int) {
	r.Runs.WithLabelValues("ok").Inc()
	for _, t := range run.Trades {
		r.TradesSampled.WithLabelValues(t.Ticker).Inc()
	}
	r.TickersSkipped.Add(float64(len(run.Skipped)))
	r.ScalarsExported.Add(float64(scalars))
	if len(run.Trades) > 0 {
		r.ScoreMin.Set(run.MinScore)
		r.ScoreMax.Set(run.MaxScore)
	}
}

// ObserveFailure cuenta un run fallido en la etapa dada.
func (r *Recorder) ObserveFailure(stage string) {
	r.Runs.WithLabelValues("failed_" + stage).Inc()
}

// Handler devuelve el handler HTTP de /metrics para este registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// Serve expone /metrics en addr en segundo plano.
func (r *Recorder) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Warn("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	return srv
}
