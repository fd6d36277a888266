package marketdata

// chart.go: cliente HTTP del endpoint de velas (formato Yahoo v8 /chart).
//
// Rate limit conservador y reintentos con backoff exponencial en 429/5xx.
// Los cierres null (minutos sin negociación) se descartan.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/tradesim/internal/domain"
)

const (
	defaultChartBase = "https://query1.finance.yahoo.com"

	// ~2 req/s con ráfaga de 4: el endpoint no documenta límites y corta con 429.
	chartRatePerSec = 2
	chartBurst      = 4

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// ChartClient implementa ports.SeriesProvider contra el endpoint /v8/finance/chart.
type ChartClient struct {
	http      *http.Client
	base      string
	limiter   *rate.Limiter
	retryWait time.Duration
}

// NewChartClient crea un cliente. Si base está vacío usa el endpoint público.
func NewChartClient(base string) *ChartClient {
	if base == "" {
		base = defaultChartBase
	}
	return &ChartClient{
		http:      &http.Client{Timeout: 15 * time.Second},
		base:      base,
		limiter:   rate.NewLimiter(chartRatePerSec, chartBurst),
		retryWait: baseRetryWait,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchSeries descarga la serie del ticker en [from, to).
func (c *ChartClient) FetchSeries(ctx context.Context, ticker string, from, to time.Time, interval string) (domain.TimeSeries, error) {
	if _, err := IntervalDuration(interval); err != nil {
		return nil, fmt.Errorf("chart.FetchSeries: %w", err)
	}

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.Unix(), 10))
	q.Set("interval", interval)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.base, url.PathEscape(ticker), q.Encode())

	var resp chartResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("chart.FetchSeries %s: %w", ticker, err)
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("chart.FetchSeries %s: %s: %s", ticker, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart.FetchSeries %s: empty result", ticker)
	}

	res := resp.Chart.Result[0]
	var closes []*float64
	if len(res.Indicators.Quote) > 0 {
		closes = res.Indicators.Quote[0].Close
	}
	if len(closes) != len(res.Timestamp) {
		return nil, fmt.Errorf("chart.FetchSeries %s: %d timestamps but %d closes",
			ticker, len(res.Timestamp), len(closes))
	}

	series := make(domain.TimeSeries, 0, len(res.Timestamp))
	dropped := 0
	for i, ts := range res.Timestamp {
		if closes[i] == nil {
			dropped++
			continue
		}
		series = append(series, domain.PriceBar{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     decimal.NewFromFloat(*closes[i]),
		})
	}

	slog.Debug("fetched chart",
		"ticker", ticker,
		"interval", interval,
		"bars", len(series),
		"dropped_null", dropped,
	)
	return series, nil
}

// get hace un GET con rate limiting y retries.
func (c *ChartClient) get(ctx context.Context, u string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("chart request retry", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *ChartClient) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
