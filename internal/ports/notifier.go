package ports

import (
	"context"

	"github.com/alejandrodnm/tradesim/internal/domain"
)

// Notifier presenta el resultado de una simulación al usuario.
type Notifier interface {
	// Notify recibe el run ya normalizado.
	// En la implementación de consola, imprime un resumen por ticker.
	Notify(ctx context.Context, run domain.Run) error
}
