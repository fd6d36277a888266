package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// SkippedTicker registra un instrumento que no aportó trades.
type SkippedTicker struct {
	Ticker string
	Bars   int
	Reason string
}

// Run es el resultado de una simulación completa, ya normalizada.
type Run struct {
	ID        string
	StartedAt time.Time
	Seed      uint64
	Trades    []Trade
	Skipped   []SkippedTicker

	MinScore float64
	MaxScore float64
}

// TickerSummary agrega los trades de un instrumento para el resumen en consola.
type TickerSummary struct {
	Ticker     string
	Trades     int
	Wins       int
	WinRate    float64 // 0..1
	AvgPct     float64
	BestPct    float64
	WorstPct   float64
	TotalPnL   decimal.Decimal
	AvgWindow  float64 // barras de contexto por trade
	AvgHolding time.Duration
}

// Summarize agrupa los trades por ticker, ordenado por ticker.
func Summarize(trades []Trade) []TickerSummary {
	byTicker := make(map[string]*TickerSummary)
	var holding = make(map[string]time.Duration)
	var windows = make(map[string]int)

	for _, t := range trades {
		s, ok := byTicker[t.Ticker]
		if !ok {
			s = &TickerSummary{
				Ticker:   t.Ticker,
				BestPct:  t.Score,
				WorstPct: t.Score,
				TotalPnL: decimal.Zero,
			}
			byTicker[t.Ticker] = s
		}
		s.Trades++
		if t.ProfitLoss.IsPositive() {
			s.Wins++
		}
		s.AvgPct += t.Score
		s.BestPct = max(s.BestPct, t.Score)
		s.WorstPct = min(s.WorstPct, t.Score)
		s.TotalPnL = s.TotalPnL.Add(t.ProfitLoss)
		holding[t.Ticker] += t.HoldingPeriod()
		windows[t.Ticker] += len(t.Window)
	}

	out := make([]TickerSummary, 0, len(byTicker))
	for ticker, s := range byTicker {
		n := float64(s.Trades)
		s.WinRate = float64(s.Wins) / n
		s.AvgPct /= n
		s.AvgWindow = float64(windows[ticker]) / n
		s.AvgHolding = holding[ticker] / time.Duration(s.Trades)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}
