package simulator

// concurrent.go: worker pool para muestrear varios tickers en paralelo.
//
// Cada ticker usa su propio generador, sembrado con TickerSeed(seed, ticker),
// así que el resultado no depende del número de workers ni del orden en que
// terminen: se reensambla siempre en orden de ticker.

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/tradesim/internal/domain"
)

// TickerSeed deriva una semilla por ticker a partir de la semilla del run.
func TickerSeed(seed uint64, ticker string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	return seed ^ h.Sum64()
}

// SimulateConcurrent es la variante paralela de Simulate.
// Si workers <= 0 usa runtime.NumCPU().
func SimulateConcurrent(
	ctx context.Context,
	series map[string]domain.TimeSeries,
	numTrades int,
	shares int,
	seed uint64,
	workers int,
) ([]domain.Trade, []domain.SkippedTicker, error) {
	if err := checkParams(numTrades, shares); err != nil {
		return nil, nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	tickers := sortedTickers(series)

	type result struct {
		trades  []domain.Trade
		skipped bool
		err     error
	}
	results := make([]result, len(tickers))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workCh := make(chan int, len(tickers))
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				if ctx.Err() != nil {
					results[i].err = ctx.Err()
					continue
				}
				ticker := tickers[i]
				rng := NewRand(TickerSeed(seed, ticker))
				trades, err := sampleTicker(ticker, series[ticker], numTrades, shares, rng)
				switch {
				case errors.Is(err, domain.ErrInsufficientData):
					results[i].skipped = true
				case err != nil:
					results[i].err = err
					cancel()
				default:
					results[i].trades = trades
				}
			}
		}()
	}

	for i := range tickers {
		workCh <- i
	}
	close(workCh)
	wg.Wait()

	var (
		trades  []domain.Trade
		skipped []domain.SkippedTicker
	)
	for _, r := range results {
		if r.err != nil && !errors.Is(r.err, context.Canceled) {
			return nil, nil, fmt.Errorf("simulator.SimulateConcurrent: %w", r.err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("simulator.SimulateConcurrent: %w", err)
	}
	for i, r := range results {
		if r.skipped {
			skipped = append(skipped, skipInsufficient(tickers[i], len(series[tickers[i]])))
			continue
		}
		trades = append(trades, r.trades...)
	}

	slog.Debug("concurrent sampling complete",
		"tickers", len(tickers),
		"trades", len(trades),
		"skipped", len(skipped),
		"workers", workers,
	)
	return trades, skipped, nil
}
