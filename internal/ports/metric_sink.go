package ports

import (
	"context"

	"github.com/alejandrodnm/tradesim/internal/domain"
)

// MetricSink recibe escalares indexados por step para visualizarlos después.
// El formato en disco es cosa de cada implementación.
type MetricSink interface {
	WriteScalar(ctx context.Context, s domain.Scalar) error

	// Flush hace durable todo lo escrito hasta ahora.
	Flush(ctx context.Context) error
}
