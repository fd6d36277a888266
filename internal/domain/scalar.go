package domain

import "fmt"

// Nombres de las métricas escalares exportadas por trade.
const (
	MetricBuyPrice        = "Buy Price"
	MetricSellPrice       = "Sell Price"
	MetricProfitLoss      = "Profit/Loss"
	MetricPctChange       = "Percentage Change"
	MetricNormalizedScore = "Normalized Score"
)

// Scalar es un registro (nombre, valor, step) para el sink de métricas.
// Step es la posición del trade en el batch.
type Scalar struct {
	Name  string
	Value float64
	Step  int
}

// WindowMetric devuelve el nombre del escalar para la j-ésima barra de la ventana.
func WindowMetric(j int) string {
	return fmt.Sprintf("Past 30min Close %d", j)
}
