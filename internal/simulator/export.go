package simulator

import (
	"context"
	"fmt"
	"iter"

	"github.com/alejandrodnm/tradesim/internal/domain"
	"github.com/alejandrodnm/tradesim/internal/ports"
)

// Scalars devuelve, de forma perezosa, los escalares de cada trade en orden.
// Para el trade en la posición i (step i):
//
//	Buy Price, Sell Price, Profit/Loss, Percentage Change, Normalized Score,
//	y luego "Past 30min Close j" por cada barra j de la ventana.
func Scalars(trades []domain.Trade) iter.Seq[domain.Scalar] {
	return func(yield func(domain.Scalar) bool) {
		for i, t := range trades {
			head := [...]domain.Scalar{
				{Name: domain.MetricBuyPrice, Value: t.BuyPrice.InexactFloat64(), Step: i},
				{Name: domain.MetricSellPrice, Value: t.SellPrice.InexactFloat64(), Step: i},
				{Name: domain.MetricProfitLoss, Value: t.ProfitLoss.InexactFloat64(), Step: i},
				{Name: domain.MetricPctChange, Value: t.PctChange.InexactFloat64(), Step: i},
				{Name: domain.MetricNormalizedScore, Value: t.NormalizedScore, Step: i},
			}
			for _, s := range head {
				if !yield(s) {
					return
				}
			}
			for j, bar := range t.Window {
				if !yield(domain.Scalar{Name: domain.WindowMetric(j), Value: bar.Close.InexactFloat64(), Step: i}) {
					return
				}
			}
		}
	}
}

// Export escribe todos los escalares del batch en el sink y hace Flush.
// Un batch vacío no escribe nada. Devuelve cuántos escalares se escribieron.
func Export(ctx context.Context, trades []domain.Trade, sink ports.MetricSink) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	n := 0
	for s := range Scalars(trades) {
		if err := sink.WriteScalar(ctx, s); err != nil {
			return n, fmt.Errorf("simulator.Export: write %q step %d: %w", s.Name, s.Step, err)
		}
		n++
	}

	if err := sink.Flush(ctx); err != nil {
		return n, fmt.Errorf("simulator.Export: flush: %w", err)
	}
	return n, nil
}
