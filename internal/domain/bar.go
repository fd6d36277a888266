package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WindowLen es el número máximo de barras previas a la compra que se guardan
// como contexto de cada trade.
const WindowLen = 30

// PriceBar es una observación de cierre en un instante dado.
type PriceBar struct {
	Timestamp time.Time
	Close     decimal.Decimal
}

// TimeSeries es la secuencia de barras de un instrumento, en orden
// cronológico estricto. El simulador solo la lee.
type TimeSeries []PriceBar

// Validate comprueba que los timestamps sean estrictamente crecientes.
func (s TimeSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Timestamp.After(s[i-1].Timestamp) {
			return fmt.Errorf("bar %d (%s) not after bar %d (%s): %w",
				i, s[i].Timestamp.Format(time.RFC3339),
				i-1, s[i-1].Timestamp.Format(time.RFC3339),
				ErrUnorderedSeries)
		}
	}
	return nil
}

// Window devuelve una copia de hasta n barras inmediatamente anteriores a idx.
// La barra idx nunca se incluye; cerca del inicio la ventana es más corta.
func (s TimeSeries) Window(idx, n int) []PriceBar {
	if idx > len(s) {
		idx = len(s)
	}
	start := max(0, idx-n)
	if idx <= start {
		return []PriceBar{}
	}
	out := make([]PriceBar, idx-start)
	copy(out, s[start:idx])
	return out
}
