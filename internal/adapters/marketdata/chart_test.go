package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartOK = `{"chart":{"result":[{
  "meta":{"symbol":"AAPL","currency":"USD"},
  "timestamp":[1715002200,1715002260,1715002320,1715002380],
  "indicators":{"quote":[{"close":[181.5,null,181.75,182]}]}
}],"error":null}}`

func newTestChartClient(srv *httptest.Server) *ChartClient {
	c := NewChartClient(srv.URL)
	c.retryWait = time.Millisecond
	return c
}

var (
	from = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC)
)

func TestChartClient_FetchSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1m", r.URL.Query().Get("interval"))
		assert.Equal(t, "1714953600", r.URL.Query().Get("period1"))
		assert.Equal(t, "1715040000", r.URL.Query().Get("period2"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartOK))
	}))
	defer srv.Close()

	s, err := newTestChartClient(srv).FetchSeries(context.Background(), "AAPL", from, to, "1m")
	require.NoError(t, err)
	require.Len(t, s, 3) // el null se descarta
	assert.Equal(t, "181.5", s[0].Close.String())
	assert.Equal(t, "181.75", s[1].Close.String())
	assert.Equal(t, time.Unix(1715002320, 0).UTC(), s[1].Timestamp)
	assert.NoError(t, s.Validate())
}

func TestChartClient_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(chartOK))
	}))
	defer srv.Close()

	s, err := newTestChartClient(srv).FetchSeries(context.Background(), "AAPL", from, to, "1m")
	require.NoError(t, err)
	assert.Len(t, s, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestChartClient_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestChartClient(srv).FetchSeries(context.Background(), "AAPL", from, to, "1m")
	require.Error(t, err)
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestChartClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	_, err := newTestChartClient(srv).FetchSeries(context.Background(), "NOPE", from, to, "1m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestChartClient_ChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input"}}}`))
	}))
	defer srv.Close()

	_, err := newTestChartClient(srv).FetchSeries(context.Background(), "AAPL", from, to, "1m")
	assert.ErrorContains(t, err, "Invalid input")
}

func TestChartClient_UnknownInterval(t *testing.T) {
	c := NewChartClient("http://127.0.0.1:1")
	_, err := c.FetchSeries(context.Background(), "AAPL", from, to, "7m")
	assert.ErrorContains(t, err, "unknown interval")
}
