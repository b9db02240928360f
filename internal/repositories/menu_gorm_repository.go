package repositories

import (
	"context"
	"fmt"
	"strings"

	"littlelemon/internal/listing"
	"littlelemon/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

// NewGORMCategoryRepository creates a new instance of GORMCategoryRepository.
func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{db: db}
}

// GetAll retrieves all categories ordered by title.
func (r *GORMCategoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("title").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get all categories: %w", err)
	}
	return categories, nil
}

// GetByID retrieves a single category.
func (r *GORMCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err, "category with ID %s", id)
	}
	return &category, nil
}

// Create creates a new category.
func (r *GORMCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return translate(err, "failed to create category %s", category.Slug)
	}
	return nil
}

// GORMMenuItemRepository is a GORM implementation of MenuItemRepository.
type GORMMenuItemRepository struct {
	db *gorm.DB
}

// NewGORMMenuItemRepository creates a new instance of GORMMenuItemRepository.
func NewGORMMenuItemRepository(db *gorm.DB) *GORMMenuItemRepository {
	return &GORMMenuItemRepository{db: db}
}

// List returns one page of menu items matching filter and the total match count.
func (r *GORMMenuItemRepository) List(ctx context.Context, filter MenuItemFilter, ordering []listing.SortField, page listing.Page) ([]models.MenuItem, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.MenuItem{})
		if filter.CategorySlug != "" {
			q = q.Where("category_id IN (?)",
				r.db.Model(&models.Category{}).Select("id").Where("slug = ?", filter.CategorySlug))
		}
		if filter.MaxPrice != nil {
			q = q.Where("price <= ?", *filter.MaxPrice)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
		}
		return q
	}

	var count int64
	if err := base().Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count menu items: %w", err)
	}

	var items []models.MenuItem
	q := applyOrdering(base().Preload("Category"), ordering).Limit(page.Size).Offset(page.Offset())
	if err := q.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, count, nil
}

// GetByID retrieves a single menu item with its category.
func (r *GORMMenuItemRepository) GetByID(ctx context.Context, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).Preload("Category").First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err, "menu item with ID %s", id)
	}
	return &item, nil
}

// Create creates a new menu item.
func (r *GORMMenuItemRepository) Create(ctx context.Context, item *models.MenuItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit("Category").Create(item).Error; err != nil {
		return translate(err, "failed to create menu item %s", item.Title)
	}
	return nil
}

// Update overwrites every column of an existing menu item.
func (r *GORMMenuItemRepository) Update(ctx context.Context, item *models.MenuItem) error {
	res := r.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", item.ID).
		Select("title", "price", "featured", "category_id").
		Updates(map[string]any{
			"title":       item.Title,
			"price":       item.Price,
			"featured":    item.Featured,
			"category_id": item.CategoryID,
		})
	if res.Error != nil {
		return translate(res.Error, "failed to update menu item %s", item.ID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: menu item with ID %s", ErrNotFound, item.ID)
	}
	return nil
}

// Delete removes a menu item together with the cart lines that hold it.
func (r *GORMMenuItemRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var referenced int64
		if err := tx.Model(&models.OrderItem{}).Where("menu_item_id = ?", id).Count(&referenced).Error; err != nil {
			return fmt.Errorf("failed to check order references of menu item %s: %w", id, err)
		}
		if referenced > 0 {
			return fmt.Errorf("%w: menu item %s appears in %d order lines", ErrInUse, id, referenced)
		}
		if err := tx.Where("menu_item_id = ?", id).Delete(&models.CartLine{}).Error; err != nil {
			return fmt.Errorf("failed to delete cart lines of menu item %s: %w", id, err)
		}
		res := tx.Delete(&models.MenuItem{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete menu item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: menu item with ID %s", ErrNotFound, id)
		}
		return nil
	})
}

// applyOrdering adds validated sort fields plus an id tiebreaker so paging is stable.
func applyOrdering(q *gorm.DB, ordering []listing.SortField) *gorm.DB {
	for _, f := range ordering {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: f.Column}, Desc: f.Desc})
	}
	return q.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}
