package marketdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tradesim/internal/domain"
)

// RandomWalkConfig parametriza el provider sintético.
type RandomWalkConfig struct {
	Bars       int     // barras por ticker si el rango no fija otra cosa
	StartPrice float64 // precio inicial
	Volatility float64 // retorno máximo por barra, p.ej. 0.002 = ±0.2%
	Seed       uint64
}

// RandomWalkProvider genera series sintéticas deterministas por (seed, ticker).
// Sirve para --dry-run y para tests sin ficheros ni red.
type RandomWalkProvider struct {
	cfg RandomWalkConfig
}

// NewRandomWalkProvider aplica defaults razonables a los campos vacíos.
func NewRandomWalkProvider(cfg RandomWalkConfig) *RandomWalkProvider {
	if cfg.Bars <= 0 {
		cfg.Bars = 390 // una sesión de 1m
	}
	if cfg.StartPrice <= 0 {
		cfg.StartPrice = 100
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = 0.002
	}
	return &RandomWalkProvider{cfg: cfg}
}

// FetchSeries genera cfg.Bars barras desde from, una por intervalo.
// Los precios se redondean a 4 decimales y nunca bajan de 0.01.
func (p *RandomWalkProvider) FetchSeries(_ context.Context, ticker string, from, _ time.Time, interval string) (domain.TimeSeries, error) {
	step, err := IntervalDuration(interval)
	if err != nil {
		return nil, fmt.Errorf("marketdata.RandomWalk: %w", err)
	}

	h := fnv.New64a()
	h.Write([]byte(ticker))
	r := rand.New(rand.NewPCG(p.cfg.Seed, h.Sum64()))

	price := p.cfg.StartPrice
	ts := from.UTC()
	series := make(domain.TimeSeries, p.cfg.Bars)
	for i := range series {
		series[i] = domain.PriceBar{
			Timestamp: ts,
			Close:     decimal.NewFromFloat(price).Round(4),
		}
		ret := (r.Float64() - 0.5) * 2 * p.cfg.Volatility
		price = max(price*(1+ret), 0.01)
		ts = ts.Add(step)
	}
	return series, nil
}
