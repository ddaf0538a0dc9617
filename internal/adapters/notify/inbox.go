package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

const defaultInboxSize = 100

// Inbox guarda los avisos hasta que el usuario los descarta.
// Implementa ports.Notifier.
type Inbox struct {
	mu      sync.Mutex
	notices []domain.Notice
	max     int
}

// NewInbox crea un inbox que conserva como mucho max avisos (los más viejos se pierden).
func NewInbox(max int) *Inbox {
	if max <= 0 {
		max = defaultInboxSize
	}
	return &Inbox{max: max}
}

// Notify guarda el aviso, asignándole ID si no tiene.
func (b *Inbox) Notify(_ context.Context, n domain.Notice) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, n)
	if len(b.notices) > b.max {
		b.notices = b.notices[len(b.notices)-b.max:]
	}
	return nil
}

// List devuelve los avisos pendientes, en orden de llegada.
func (b *Inbox) List() []domain.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

// Dismiss descarta un aviso. Devuelve false si no existía.
func (b *Inbox) Dismiss(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.notices {
		if n.ID == id {
			b.notices = append(b.notices[:i], b.notices[i+1:]...)
			return true
		}
	}
	return false
}
