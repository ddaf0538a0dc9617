package ports

import (
	"context"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

// PoolProvider obtiene el catálogo de pools disponibles.
type PoolProvider interface {
	// FetchPools devuelve todos los pools. Es one-shot: no es un stream.
	FetchPools(ctx context.Context) ([]domain.Pool, error)
}
