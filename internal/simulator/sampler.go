package simulator

// sampler.go: genera trades sintéticos sobre series históricas.
//
// Para cada ticker con al menos 2 barras, N veces:
// 1. buy  ~ U[0, len-2]
// 2. sell ~ U[buy+1, len-1]
// 3. economía del trade + ventana de contexto previa a la compra
//
// Los trades salen en orden de ticker (lexicográfico) y, dentro de cada ticker,
// en orden de sorteo. No se ordenan por fecha ni por score.

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/alejandrodnm/tradesim/internal/domain"
)

// Rand es la fuente de aleatoriedad del sampler. *rand.Rand la cumple;
// los tests pueden inyectar una secuencia fija.
type Rand interface {
	// IntN devuelve un entero uniforme en [0, n). n > 0.
	IntN(n int) int
}

// NewRand crea un generador PCG determinista a partir de la semilla.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Simulate genera numTrades trades por ticker usando un único generador rng,
// compartido en orden de ticker. Los tickers con menos de 2 barras se saltan
// y se devuelven en skipped; no son un error.
func Simulate(
	series map[string]domain.TimeSeries,
	numTrades int,
	shares int,
	rng Rand,
) (trades []domain.Trade, skipped []domain.SkippedTicker, err error) {
	if err := checkParams(numTrades, shares); err != nil {
		return nil, nil, err
	}
	if rng == nil {
		return nil, nil, errors.New("simulator.Simulate: nil rng")
	}

	for _, ticker := range sortedTickers(series) {
		s := series[ticker]
		got, err := sampleTicker(ticker, s, numTrades, shares, rng)
		if errors.Is(err, domain.ErrInsufficientData) {
			skipped = append(skipped, skipInsufficient(ticker, len(s)))
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("simulator.Simulate: %w", err)
		}
		trades = append(trades, got...)
	}

	return trades, skipped, nil
}

// sampleTicker sortea numTrades pares (buy, sell) sobre una serie.
func sampleTicker(ticker string, s domain.TimeSeries, numTrades, shares int, rng Rand) ([]domain.Trade, error) {
	n := len(s)
	if n < 2 {
		return nil, fmt.Errorf("%s has %d bars: %w", ticker, n, domain.ErrInsufficientData)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}

	trades := make([]domain.Trade, 0, numTrades)
	for range numTrades {
		buy, sell := drawPair(rng, n)
		t, err := domain.NewTrade(ticker, s, buy, sell, shares)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}

	slog.Debug("sampled ticker",
		"ticker", ticker,
		"bars", n,
		"trades", len(trades),
	)
	return trades, nil
}

// drawPair devuelve 0 <= buy < sell < n. Los dos sorteos son independientes y
// uniformes sobre sus rangos inclusivos.
func drawPair(rng Rand, n int) (buy, sell int) {
	buy = rng.IntN(n - 1)
	sell = buy + 1 + rng.IntN(n-1-buy)
	return buy, sell
}

func checkParams(numTrades, shares int) error {
	if shares <= 0 {
		return fmt.Errorf("simulator: shares=%d: %w", shares, domain.ErrInvalidShares)
	}
	if numTrades < 0 {
		return fmt.Errorf("simulator: trades=%d: %w", numTrades, domain.ErrInvalidTradeCount)
	}
	return nil
}

func skipInsufficient(ticker string, bars int) domain.SkippedTicker {
	slog.Warn("not enough data to simulate trades",
		"ticker", ticker,
		"bars", bars,
	)
	return domain.SkippedTicker{
		Ticker: ticker,
		Bars:   bars,
		Reason: domain.ErrInsufficientData.Error(),
	}
}

func sortedTickers(series map[string]domain.TimeSeries) []string {
	tickers := make([]string, 0, len(series))
	for t := range series {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}
