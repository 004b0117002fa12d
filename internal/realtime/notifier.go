package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/somar/dispatch/internal/cache"
	"github.com/somar/dispatch/internal/constants"
	"github.com/somar/dispatch/internal/logger"
	"github.com/somar/dispatch/internal/models"
)

const publishTimeout = 2 * time.Second

// Notifier broadcasts order events over redis pub/sub. Fire-and-forget:
// publish failures are logged and swallowed, and a disabled redis makes
// every publish a no-op. Clients reconcile by polling if an event is lost.
type Notifier struct{}

// NewNotifier creates the notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// OrderCreatedEvent is the payload on the order-created channel.
type OrderCreatedEvent struct {
	OrderID       uint   `json:"order_id"`
	OrderNo       string `json:"order_no"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
	CreatedAt     int64  `json:"created_at"`
}

// OrderUpdatedEvent is the payload on the order-updated channel.
type OrderUpdatedEvent struct {
	OrderID   uint   `json:"order_id"`
	Status    string `json:"status"`
	UpdatedAt int64  `json:"updated_at"`
}

// PublishOrderCreated announces a new order.
func (n *Notifier) PublishOrderCreated(order *models.Order) {
	if order == nil {
		return
	}
	n.publish(constants.TopicOrderCreated, OrderCreatedEvent{
		OrderID:       order.ID,
		OrderNo:       order.OrderNo,
		Type:          order.Type,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		CreatedAt:     order.CreatedAt.Unix(),
	})
}

// PublishOrderUpdated announces a lifecycle change.
func (n *Notifier) PublishOrderUpdated(orderID uint, status string) {
	n.publish(constants.TopicOrderUpdated, OrderUpdatedEvent{
		OrderID:   orderID,
		Status:    status,
		UpdatedAt: time.Now().Unix(),
	})
}

func (n *Notifier) publish(channel string, event interface{}) {
	client := cache.Client()
	if client == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Warnw("realtime_marshal_failed", "channel", channel, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := client.Publish(ctx, channel, payload).Err(); err != nil {
		logger.Warnw("realtime_publish_failed", "channel", channel, "error", err)
	}
}
