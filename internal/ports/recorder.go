package ports

import "github.com/alejandrodnm/tradesim/internal/domain"

// RunRecorder registra contadores del pipeline (trades, tickers saltados,
// escalares exportados). La implementación real usa Prometheus.
type RunRecorder interface {
	ObserveRun(run domain.Run, scalars int)
	ObserveFailure(stage string)
}
