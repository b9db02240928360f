package repositories

import (
	"context"
	"fmt"
	"time"

	"littlelemon/internal/listing"
	"littlelemon/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create inserts the order and its items in one statement batch.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order and its items.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "order with ID %s", id)
	}
	return &order, nil
}

// List returns one page of orders matching filter and the total match count.
func (r *GORMOrderRepository) List(ctx context.Context, filter OrderFilter, ordering []listing.SortField, page listing.Page) ([]models.Order, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Order{})
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.DeliveryCrewID != "" {
			q = q.Where("delivery_crew_id = ?", filter.DeliveryCrewID)
		}
		return q
	}

	var count int64
	if err := base().Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	q := applyOrdering(base().Preload("Items"), ordering).Limit(page.Size).Offset(page.Offset())
	if err := q.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, count, nil
}

// UpdateDeliveryCrew sets the assignee column only.
func (r *GORMOrderRepository) UpdateDeliveryCrew(ctx context.Context, id string, crewID string) error {
	return r.updateColumn(ctx, id, "delivery_crew_id", crewID)
}

// UpdateStatus sets the status column only.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	return r.updateColumn(ctx, id, "status", status)
}

func (r *GORMOrderRepository) updateColumn(ctx context.Context, id, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).UpdateColumn(column, value)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s of order %s: %w", column, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: order with ID %s", ErrNotFound, id)
	}
	return nil
}

// Delete removes the order's items and then the order.
func (r *GORMOrderRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete items of order %s: %w", id, err)
	}
	res := db.Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: order with ID %s", ErrNotFound, id)
	}
	return nil
}
