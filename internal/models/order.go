package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the delivery state of an order.
//
//	Pending ──(assigned crew marks delivered)──> Delivered
//
// Delivered is terminal.
type OrderStatus int

const (
	OrderPending   OrderStatus = 0
	OrderDelivered OrderStatus = 1
)

func (s OrderStatus) String() string {
	if s == OrderDelivered {
		return "delivered"
	}
	return "pending"
}

// Order is placed from a cart and frozen at creation, except for its
// delivery crew assignee and its status.
type Order struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID         string          `json:"user_id" gorm:"type:varchar(36);index"`
	DeliveryCrewID *string         `json:"delivery_crew_id" gorm:"type:varchar(36);index"`
	Status         OrderStatus     `json:"status" gorm:"index;default:0"`
	Total          decimal.Decimal `json:"total" gorm:"type:numeric(10,2)"`
	CreatedAt      time.Time       `json:"date" gorm:"index"`
	Items          []OrderItem     `json:"order_items" gorm:"foreignKey:OrderID"`
}

// IsAssignedTo reports whether userID is the order's delivery crew.
func (o *Order) IsAssignedTo(userID string) bool {
	return o.DeliveryCrewID != nil && *o.DeliveryCrewID == userID
}

// OrderItem is a frozen copy of a cart line.
type OrderItem struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID    string          `json:"order_id" gorm:"type:varchar(36);index"`
	MenuItemID string          `json:"menuitem_id" gorm:"type:varchar(36);index"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:numeric(10,2)"`
	Price      decimal.Decimal `json:"price" gorm:"type:numeric(10,2)"`
}

// Order event types, also used as routing keys.
const (
	EventOrderPlaced    = "order.placed"
	EventOrderAssigned  = "order.assigned"
	EventOrderDelivered = "order.delivered"
	EventOrderDeleted   = "order.deleted"
)

// OrderEvent is published after an order changes.
type OrderEvent struct {
	Type           string          `json:"type"`
	OrderID        string          `json:"order_id"`
	UserID         string          `json:"user_id"`
	DeliveryCrewID *string         `json:"delivery_crew_id"`
	Status         OrderStatus     `json:"status"`
	Total          decimal.Decimal `json:"total"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// NewOrderEvent snapshots order for an event of the given type.
func NewOrderEvent(eventType string, order *Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		UserID:         order.UserID,
		DeliveryCrewID: order.DeliveryCrewID,
		Status:         order.Status,
		Total:          order.Total,
		OccurredAt:     at,
	}
}
