package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"littlelemon/internal/apperr"
	"littlelemon/internal/logger"
	"littlelemon/internal/models"
	"littlelemon/internal/repositories"

	"go.uber.org/zap"
)

// OrderExchange is the exchange order events are published to.
const OrderExchange = "orders"

// EventPublisher publishes a message body under a routing key.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

const managerOnly = "You need to be a manager to access this."

// lookupError turns a repository error into NotFound when the row is missing
// and into an internal error otherwise. Classified errors pass through.
func lookupError(err error, notFound string) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound(notFound)
	default:
		return apperr.Internal("storage failure", err)
	}
}

// classify passes classified errors through and wraps anything else as internal.
func classify(err error, message string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(message, err)
}

func publishOrderEvent(publisher EventPublisher, event models.OrderEvent) {
	log := logger.L().With(zap.String("event", event.Type), zap.String("order_id", event.OrderID))
	if publisher == nil {
		log.Debug("order events disabled, skipping publication")
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to marshal order event", zap.Error(err))
		return
	}
	if err := publisher.Publish(OrderExchange, event.Type, body); err != nil {
		log.Warn("failed to publish order event", zap.Error(err))
		return
	}
	log.Info("published order event")
}

// LogOrderEvent decodes an order event received from the broker and logs it.
// Undecodable bodies are returned as errors so the consumer can drop them.
func LogOrderEvent(routingKey string, body []byte) error {
	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode order event %s: %w", routingKey, err)
	}
	if event.OrderID == "" {
		return fmt.Errorf("order event %s has no order id", routingKey)
	}

	logger.L().Info("order event received",
		zap.String("event", event.Type),
		zap.String("order_id", event.OrderID),
		zap.String("user_id", event.UserID),
		zap.Stringer("status", event.Status),
		zap.String("total", event.Total.StringFixed(2)),
		zap.Time("occurred_at", event.OccurredAt))
	return nil
}
