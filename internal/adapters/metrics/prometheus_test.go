package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tradesim/internal/domain"
)

func TestRecorder_ObserveRun(t *testing.T) {
	r := NewRecorder()

	run := domain.Run{
		Trades: []domain.Trade{
			{Ticker: "AAPL"}, {Ticker: "AAPL"}, {Ticker: "AMZN"},
		},
		Skipped:  []domain.SkippedTicker{{Ticker: "ONE"}},
		MinScore: -3.5,
		MaxScore: 8,
	}
	r.ObserveRun(run, 120)
	r.ObserveRun(domain.Run{}, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Runs.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.TradesSampled.WithLabelValues("AAPL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.TradesSampled.WithLabelValues("AMZN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.TickersSkipped))
	assert.Equal(t, 120.0, testutil.ToFloat64(r.ScalarsExported))
	// un run vacío no pisa el rango anterior
	assert.Equal(t, -3.5, testutil.ToFloat64(r.ScoreMin))
	assert.Equal(t, 8.0, testutil.ToFloat64(r.ScoreMax))
}

func TestRecorder_ObserveFailure(t *testing.T) {
	r := NewRecorder()
	r.ObserveFailure("export")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues("failed_export")))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveRun(domain.Run{Trades: []domain.Trade{{Ticker: "AAPL"}}}, 5)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `tradesim_trades_sampled_total{ticker="AAPL"} 1`)
	assert.Contains(t, string(body), "tradesim_scalars_exported_total 5")
}
