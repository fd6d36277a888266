package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultShares es el número de acciones por trade si la config no dice otra cosa.
const DefaultShares = 10

var hundred = decimal.NewFromInt(100)

// Trade es un episodio sintético: una compra y una venta posterior sobre la
// misma serie. Se crea en bruto con NewTrade y solo NormalizedScore se rellena
// después, en una pasada sobre el batch completo (ver Normalize).
type Trade struct {
	ID     string
	Ticker string

	BuyIndex  int
	SellIndex int
	BuyDate   time.Time
	SellDate  time.Time
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	Shares    int

	ProfitLoss decimal.Decimal // (sell - buy) × shares
	PctChange  decimal.Decimal // (sell - buy) / buy × 100

	// Score es la medida bruta que se normaliza. Hoy coincide con PctChange,
	// pero se mantiene aparte para poder cambiar la función de scoring.
	Score           float64
	NormalizedScore float64

	// Window son las barras previas a BuyIndex, como mucho WindowLen.
	Window []PriceBar
}

// NewTrade construye un trade en bruto a partir de los índices de compra y venta.
// Exige 0 <= buy < sell < len(series), shares > 0 y un precio de compra distinto de 0.
func NewTrade(ticker string, series TimeSeries, buyIdx, sellIdx, shares int) (Trade, error) {
	if buyIdx < 0 || buyIdx >= sellIdx || sellIdx >= len(series) {
		return Trade{}, fmt.Errorf("domain.NewTrade: %s buy=%d sell=%d len=%d: %w",
			ticker, buyIdx, sellIdx, len(series), ErrInvalidIndices)
	}
	if shares <= 0 {
		return Trade{}, fmt.Errorf("domain.NewTrade: shares=%d: %w", shares, ErrInvalidShares)
	}

	buy := series[buyIdx]
	sell := series[sellIdx]
	if buy.Close.IsZero() {
		return Trade{}, fmt.Errorf("domain.NewTrade: %s at index %d: %w", ticker, buyIdx, ErrZeroBuyPrice)
	}

	diff := sell.Close.Sub(buy.Close)
	pct := diff.Div(buy.Close).Mul(hundred)

	return Trade{
		ID:         uuid.NewString(),
		Ticker:     ticker,
		BuyIndex:   buyIdx,
		SellIndex:  sellIdx,
		BuyDate:    buy.Timestamp,
		SellDate:   sell.Timestamp,
		BuyPrice:   buy.Close,
		SellPrice:  sell.Close,
		Shares:     shares,
		ProfitLoss: diff.Mul(decimal.NewFromInt(int64(shares))),
		PctChange:  pct,
		Score:      pct.InexactFloat64(),
		Window:     series.Window(buyIdx, WindowLen),
	}, nil
}

// HoldingPeriod devuelve el tiempo entre compra y venta.
func (t Trade) HoldingPeriod() time.Duration {
	return t.SellDate.Sub(t.BuyDate)
}
