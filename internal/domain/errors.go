package domain

import "errors"

// Errores de dominio. Los adapters y el simulador los envuelven con contexto
// (ticker, índice) usando %w para que errors.Is siga funcionando.
var (
	// ErrInsufficientData: la serie tiene menos de 2 barras. No es fatal,
	// el simulador lo registra y sigue con el resto de instrumentos.
	ErrInsufficientData = errors.New("insufficient data: need at least 2 bars")

	// ErrZeroBuyPrice: el cierre en el índice de compra es 0 y el cambio
	// porcentual no está definido. Es fatal para el batch.
	ErrZeroBuyPrice = errors.New("zero buy price: percentage change undefined")

	ErrUnorderedSeries   = errors.New("series timestamps not strictly increasing")
	ErrInvalidShares     = errors.New("shares must be positive")
	ErrInvalidTradeCount = errors.New("trades per ticker must not be negative")
	ErrInvalidIndices    = errors.New("invalid buy/sell indices")
)
