package ports

import (
	"context"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

// Notifier presenta avisos al usuario.
type Notifier interface {
	// Notify publica un aviso. Los fallos del notifier no afectan al ciclo de vida.
	Notify(ctx context.Context, notice domain.Notice) error
}

// Reporter renderiza los resultados de la construcción del portfolio.
// Se invoca sin locks tomados; las implementaciones no deben bloquear.
type Reporter interface {
	PrintAllocation(entries []domain.AllocationEntry)
	PrintEmulation(samples []domain.EmulationSample)
	PrintVariants(variants []domain.Variant)
}
