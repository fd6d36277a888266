package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/tradesim/internal/domain"
)

// SeriesProvider suministra la serie histórica de cierres de un instrumento.
type SeriesProvider interface {
	// FetchSeries devuelve las barras del ticker en [from, to) con el intervalo
	// dado ("1m", "5m", "1h", "1d"...), en orden cronológico.
	FetchSeries(ctx context.Context, ticker string, from, to time.Time, interval string) (domain.TimeSeries, error)
}
