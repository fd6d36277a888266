package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var t0 = time.Date(2024, 5, 6, 13, 30, 0, 0, time.UTC)

// makeSeries crea una serie de barras de 1 minuto con los cierres dados.
func makeSeries(closes ...float64) TimeSeries {
	s := make(TimeSeries, len(closes))
	for i, c := range closes {
		s[i] = PriceBar{
			Timestamp: t0.Add(time.Duration(i) * time.Minute),
			Close:     decimal.NewFromFloat(c),
		}
	}
	return s
}

func tradesWithScores(scores ...float64) []Trade {
	out := make([]Trade, len(scores))
	for i, s := range scores {
		out[i] = Trade{Ticker: "TEST", Score: s}
	}
	return out
}
