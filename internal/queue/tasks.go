package queue

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names.
const (
	TaskOrderStaleCancel = "order:stale_cancel"
)

// OrderStaleCancelPayload asks the worker to cancel an order that nobody
// accepted within the configured window.
type OrderStaleCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderStaleCancelTask builds the stale-cancel task.
func NewOrderStaleCancelTask(payload OrderStaleCancelPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStaleCancel, data), nil
}
