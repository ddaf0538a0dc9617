package ports

import (
	"context"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

// Journal registra las operaciones on-chain y los requests de analytics.
// Es solo auditoría: el estado se reconstruye siempre desde la red.
type Journal interface {
	// RecordOperation persiste una operación terminada (con éxito o no).
	RecordOperation(ctx context.Context, rec domain.OperationRecord) error

	// RecentOperations devuelve las últimas operaciones, más recientes primero.
	RecentOperations(ctx context.Context, limit int) ([]domain.OperationRecord, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
