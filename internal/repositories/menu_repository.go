package repositories

import (
	"context"

	"littlelemon/internal/listing"
	"littlelemon/internal/models"

	"github.com/shopspring/decimal"
)

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	GetAll(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
}

// MenuItemFilter narrows a menu listing. Zero values do not filter.
type MenuItemFilter struct {
	CategorySlug string
	MaxPrice     *decimal.Decimal
	Search       string
}

// MenuItemRepository defines the interface for menu item data access.
type MenuItemRepository interface {
	List(ctx context.Context, filter MenuItemFilter, ordering []listing.SortField, page listing.Page) ([]models.MenuItem, int64, error)
	GetByID(ctx context.Context, id string) (*models.MenuItem, error)
	Create(ctx context.Context, item *models.MenuItem) error
	Update(ctx context.Context, item *models.MenuItem) error
	// Delete removes the item and any cart lines holding it. Items that
	// orders reference cannot be deleted.
	Delete(ctx context.Context, id string) error
}
