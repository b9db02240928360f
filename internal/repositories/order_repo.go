package repositories

import (
	"context"

	"littlelemon/internal/listing"
	"littlelemon/internal/models"
)

// OrderFilter restricts an order listing. Empty fields do not filter.
type OrderFilter struct {
	UserID         string
	DeliveryCrewID string
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create inserts the order together with its items.
	Create(ctx context.Context, order *models.Order) error
	// GetByID loads the order with its items.
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter, ordering []listing.SortField, page listing.Page) ([]models.Order, int64, error)
	UpdateDeliveryCrew(ctx context.Context, id string, crewID string) error
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	// Delete removes the order and its items.
	Delete(ctx context.Context, id string) error
}
