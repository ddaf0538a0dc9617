package notify

import (
	"context"
	"errors"

	"github.com/alejandrodnm/tezfolio/internal/domain"
	"github.com/alejandrodnm/tezfolio/internal/ports"
)

// Multi reparte cada aviso a varios notifiers.
type Multi []ports.Notifier

// Notify envía el aviso a todos; un fallo no impide entregar al resto.
func (m Multi) Notify(ctx context.Context, n domain.Notice) error {
	var errs []error
	for _, target := range m {
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
