// Package service implements the three workflow services that own all
// status transitions: proposals, consultations and sempro registrations.
// Every operation is a single synchronous unit of work: validate role and
// preconditions, apply the transition and its history entry in one
// transaction, then hand queued notifications to the dispatcher.
package service

import (
	"context"

	"github.com/siakad/thesis-workflow/internal/application/port"
	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

// Notifier delivers queued outbox rows after the owning transaction has
// committed. Implemented by notification.Dispatcher.
type Notifier interface {
	Dispatch(ctx context.Context, ids ...int64)
}

// outbox collects notification rows created inside a transaction so the
// service can dispatch them after commit. A failed dispatch never affects
// the committed transition.
type outbox struct {
	repo port.NotificationRepository
	ids  []int64
}

func newOutbox(repo port.NotificationRepository) *outbox {
	return &outbox{repo: repo}
}

func (o *outbox) add(ctx context.Context, from, to, title, body string) error {
	n := &entity.Notification{
		FromUserID: from,
		ToUserID:   to,
		Title:      title,
		Body:       body,
	}
	if err := o.repo.Create(ctx, n); err != nil {
		return err
	}
	o.ids = append(o.ids, n.ID)
	return nil
}
