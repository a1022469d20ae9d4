// Package notification delivers queued notices. Rows are written to the
// outbox inside the same transaction as the state change that caused
// them; the dispatcher then attempts delivery after commit. Delivery is
// best-effort and unordered: a failure is logged and the row stays
// pending, it never affects the committed transition.
package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/application/port"
)

// Dispatcher sends outbox rows through the configured gateway
type Dispatcher struct {
	repo        port.NotificationRepository
	gateway     port.NotificationGateway
	sendTimeout time.Duration
	logger      *zap.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(
	repo port.NotificationRepository,
	gateway port.NotificationGateway,
	sendTimeout time.Duration,
	logger *zap.Logger,
) *Dispatcher {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		repo:        repo,
		gateway:     gateway,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

// Dispatch attempts delivery of the given outbox rows. Never returns an
// error: all failures are logged and left for retry.
func (d *Dispatcher) Dispatch(ctx context.Context, ids ...int64) {
	for _, id := range ids {
		d.dispatchOne(ctx, id)
	}
}

func (d *Dispatcher) dispatchOne(ctx context.Context, id int64) {
	n, err := d.repo.GetByID(ctx, id)
	if err != nil {
		d.logger.Error("Failed to load notification for dispatch", zap.Int64("id", id), zap.Error(err))
		return
	}
	if n == nil {
		d.logger.Warn("Notification disappeared before dispatch", zap.Int64("id", id))
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := d.gateway.Send(sendCtx, n.FromUserID, n.ToUserID, n.Title, n.Body); err != nil {
		d.logger.Warn("Notification delivery failed, left pending for retry",
			zap.Int64("id", id),
			zap.String("to", n.ToUserID),
			zap.Error(err))
		if markErr := d.repo.MarkFailed(ctx, id, err.Error()); markErr != nil {
			d.logger.Error("Failed to record delivery failure", zap.Int64("id", id), zap.Error(markErr))
		}
		return
	}

	if err := d.repo.MarkSent(ctx, id); err != nil {
		d.logger.Error("Failed to mark notification sent", zap.Int64("id", id), zap.Error(err))
	}
}

// DispatchPending retries up to limit undelivered notifications and
// returns how many were sent.
func (d *Dispatcher) DispatchPending(ctx context.Context, limit int) int {
	pending, err := d.repo.ListPending(ctx, limit)
	if err != nil {
		d.logger.Error("Failed to list pending notifications", zap.Error(err))
		return 0
	}

	sent := 0
	for _, n := range pending {
		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		err := d.gateway.Send(sendCtx, n.FromUserID, n.ToUserID, n.Title, n.Body)
		cancel()

		if err != nil {
			d.logger.Warn("Notification retry failed",
				zap.Int64("id", n.ID),
				zap.Int("attempts", n.Attempts+1),
				zap.Error(err))
			if markErr := d.repo.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
				d.logger.Error("Failed to record delivery failure", zap.Int64("id", n.ID), zap.Error(markErr))
			}
			continue
		}
		if err := d.repo.MarkSent(ctx, n.ID); err != nil {
			d.logger.Error("Failed to mark notification sent", zap.Int64("id", n.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}
