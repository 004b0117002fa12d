package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/somar/dispatch/internal/logger"
	"github.com/somar/dispatch/internal/provider"
	"github.com/somar/dispatch/internal/queue"
	"github.com/somar/dispatch/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer handles queued background tasks.
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the task consumer.
func NewConsumer(container *provider.Container) *Consumer {
	return &Consumer{Container: container}
}

// Register binds task handlers onto the mux.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(queue.TaskOrderStaleCancel, c.handleOrderStaleCancel)
}

// handleOrderStaleCancel cancels an order that is still unassigned when the
// configured window expires. An order that got assigned, delivered, or
// canceled in the meantime is left alone.
func (c *Consumer) handleOrderStaleCancel(ctx context.Context, task *asynq.Task) error {
	var payload queue.OrderStaleCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_stale_cancel_bad_payload", "error", err)
		return nil
	}

	canceled, err := c.OrderService.CancelIfUnassigned(payload.OrderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			logger.Debugw("worker_stale_cancel_order_missing", "order_id", payload.OrderID)
			return nil
		}
		logger.Warnw("worker_stale_cancel_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if canceled {
		logger.Infow("worker_stale_cancel_done", "order_id", payload.OrderID)
	} else {
		logger.Debugw("worker_stale_cancel_skipped", "order_id", payload.OrderID)
	}
	return nil
}
