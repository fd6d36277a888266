package domain

// Normalize reescala el Score de todo el batch a [0, 1] usando el mínimo y
// el máximo globales (todos los tickers juntos, los scores son comparables).
//
//	normalized = (score - min) / (max - min)
//
// Si max == min (batch de un solo trade o todos iguales) el resultado es 0 para
// todos. Un batch vacío devuelve un slice vacío. El input no se modifica y
// llamarlo sobre su propia salida da el mismo resultado, porque solo lee Score.
func Normalize(trades []Trade) []Trade {
	out := make([]Trade, len(trades))
	copy(out, trades)

	lo, hi, ok := ScoreRange(trades)
	if !ok {
		return out
	}

	span := hi - lo
	for i := range out {
		if span == 0 {
			out[i].NormalizedScore = 0
			continue
		}
		out[i].NormalizedScore = (out[i].Score - lo) / span
	}
	return out
}

// ScoreRange devuelve el Score mínimo y máximo del batch.
// ok es false si el batch está vacío.
func ScoreRange(trades []Trade) (lo, hi float64, ok bool) {
	if len(trades) == 0 {
		return 0, 0, false
	}
	lo, hi = trades[0].Score, trades[0].Score
	for _, t := range trades[1:] {
		lo = min(lo, t.Score)
		hi = max(hi, t.Score)
	}
	return lo, hi, true
}
