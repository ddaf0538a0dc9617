package portfolio

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

// userMessager is implemented by adapter errors that carry a message meant
// for the end user.
type userMessager interface {
	UserMessage() string
}

func userMessage(err error) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	var opErr *domain.OpError
	if errors.As(err, &opErr) {
		return opErr.Err.Error()
	}
	return err.Error()
}

func (c *Controller) notifyError(ctx context.Context, title string, err error) {
	slog.Error(title, "kind", domain.KindOf(err), "err", err)
	c.notify(ctx, domain.NoticeError, title, userMessage(err))
}

func (c *Controller) notifyInfo(ctx context.Context, title, message string) {
	slog.Info(title, "message", message)
	c.notify(ctx, domain.NoticeInfo, title, message)
}

func (c *Controller) notify(ctx context.Context, level domain.NoticeLevel, title, message string) {
	if c.deps.Notifier == nil {
		return
	}
	n := domain.Notice{
		ID:      uuid.NewString(),
		Level:   level,
		Title:   title,
		Message: message,
		At:      time.Now(),
	}
	if err := c.deps.Notifier.Notify(ctx, n); err != nil {
		slog.Warn("notifier failed", "title", title, "err", err)
	}
}

func (c *Controller) record(ctx context.Context, rec domain.OperationRecord) {
	if c.deps.Journal == nil {
		return
	}
	if err := c.deps.Journal.RecordOperation(ctx, rec); err != nil {
		slog.Warn("journal write failed", "kind", rec.Kind, "err", err)
	}
}

// RecentOperations returns the latest journaled operations, newest first.
// Without a journal it returns nil.
func (c *Controller) RecentOperations(ctx context.Context, limit int) ([]domain.OperationRecord, error) {
	if c.deps.Journal == nil {
		return nil, nil
	}
	return c.deps.Journal.RecentOperations(ctx, limit)
}
