package ports

import (
	"context"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

// WalletConnector empareja la wallet y devuelve la sesión autenticada.
type WalletConnector interface {
	// Connect pide permisos a la wallet. Con forcePermissions se descarta la
	// cuenta activa y se vuelven a pedir. Sin cuenta devuelve domain.ErrWalletNotConnected.
	Connect(ctx context.Context, forcePermissions bool) (domain.Session, error)
}
