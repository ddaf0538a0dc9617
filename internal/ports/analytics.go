package ports

import (
	"context"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

// Analytics es el servicio remoto de simulación y optimización.
// Sus algoritmos son opacos para este cliente.
type Analytics interface {
	// Emulate simula el valor histórico de la allocation, día a día.
	Emulate(ctx context.Context, req domain.AnalyticsRequest) ([]domain.EmulationSample, error)

	// Optimize devuelve variantes optimizadas (Markowitz).
	// Un resultado vacío no es error: significa que no hay variante viable.
	Optimize(ctx context.Context, req domain.AnalyticsRequest) ([]domain.Variant, error)
}

// PositionProvider consulta la posición on-chain del owner vía el indexer.
type PositionProvider interface {
	// FetchPosition devuelve la posición del owner en el contrato. Vacía = sin portfolio.
	FetchPosition(ctx context.Context, owner, contractAddress string) (domain.Position, error)
}
