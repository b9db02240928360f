package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"littlelemon/internal/apperr"
	"littlelemon/internal/listing"
	"littlelemon/internal/models"
	"littlelemon/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var menuOrdering = map[string]string{
	"price": "price",
	"title": "title",
}

// MenuQuery holds the raw catalog listing parameters.
type MenuQuery struct {
	Category string
	ToPrice  string
	Search   string
	Ordering string
	Page     listing.Page
}

// MenuItemPatch carries the fields to change on a menu item. Nil fields are kept.
type MenuItemPatch struct {
	Title      *string
	Price      *decimal.Decimal
	Featured   *bool
	CategoryID *string
}

// MenuService handles the catalog: categories and menu items.
type MenuService struct {
	categories repositories.CategoryRepository
	items      repositories.MenuItemRepository
}

func NewMenuService(categories repositories.CategoryRepository, items repositories.MenuItemRepository) *MenuService {
	return &MenuService{categories: categories, items: items}
}

func (s *MenuService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list categories", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (s *MenuService) CreateCategory(ctx context.Context, ident models.Identity, category *models.Category) error {
	if !ident.IsManager() {
		return apperr.Forbidden(managerOnly)
	}
	category.Slug = strings.TrimSpace(category.Slug)
	category.Title = strings.TrimSpace(category.Title)
	fields := map[string]string{}
	if category.Slug == "" {
		fields["slug"] = "slug is required"
	}
	if category.Title == "" {
		fields["title"] = "title is required"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid category", fields)
	}

	category.ID = uuid.New().String()
	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return apperr.Conflict(fmt.Sprintf("category '%s' already exists", category.Slug))
		}
		return apperr.Internal("failed to create category", err)
	}
	return nil
}

// ListMenuItems returns one page of the catalog after filtering and ordering.
func (s *MenuService) ListMenuItems(ctx context.Context, query MenuQuery) (listing.Result[models.MenuItem], error) {
	var empty listing.Result[models.MenuItem]

	filter := repositories.MenuItemFilter{
		CategorySlug: strings.TrimSpace(query.Category),
		Search:       strings.TrimSpace(query.Search),
	}
	if raw := strings.TrimSpace(query.ToPrice); raw != "" {
		maxPrice, err := decimal.NewFromString(raw)
		if err != nil {
			return empty, apperr.FieldError("to_price", "to_price must be a decimal number")
		}
		filter.MaxPrice = &maxPrice
	}

	ordering, err := listing.ParseOrdering(query.Ordering, menuOrdering)
	if err != nil {
		return empty, err
	}

	items, count, err := s.items.List(ctx, filter, ordering, query.Page)
	if err != nil {
		return empty, apperr.Internal("failed to list menu items", err)
	}
	return listing.NewResult(items, count, query.Page), nil
}

func (s *MenuService) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "menu item not found")
	}
	return item, nil
}

func (s *MenuService) CreateMenuItem(ctx context.Context, ident models.Identity, item *models.MenuItem) error {
	if !ident.IsManager() {
		return apperr.Forbidden(managerOnly)
	}
	item.Title = strings.TrimSpace(item.Title)
	if err := validateMenuItem(item.Title, item.Price); err != nil {
		return err
	}
	category, err := s.category(ctx, item.CategoryID)
	if err != nil {
		return err
	}

	item.ID = uuid.New().String()
	item.Category = nil
	if err := s.items.Create(ctx, item); err != nil {
		return apperr.Internal("failed to create menu item", err)
	}
	item.Category = category
	return nil
}

// UpdateMenuItem applies patch to the item and returns the stored result.
func (s *MenuService) UpdateMenuItem(ctx context.Context, ident models.Identity, id string, patch MenuItemPatch) (*models.MenuItem, error) {
	if !ident.IsManager() {
		return nil, apperr.Forbidden(managerOnly)
	}
	item, err := s.GetMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		item.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Price != nil {
		item.Price = *patch.Price
	}
	if patch.Featured != nil {
		item.Featured = *patch.Featured
	}
	if err := validateMenuItem(item.Title, item.Price); err != nil {
		return nil, err
	}
	if patch.CategoryID != nil && *patch.CategoryID != item.CategoryID {
		category, err := s.category(ctx, *patch.CategoryID)
		if err != nil {
			return nil, err
		}
		item.CategoryID = category.ID
		item.Category = category
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, lookupError(err, "menu item not found")
	}
	return item, nil
}

// DeleteMenuItem removes the item together with any cart lines holding it.
// Items that appear on orders cannot be deleted.
func (s *MenuService) DeleteMenuItem(ctx context.Context, ident models.Identity, id string) error {
	if !ident.IsManager() {
		return apperr.Forbidden(managerOnly)
	}
	if err := s.items.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrInUse) {
			return apperr.Conflict("menu item is part of existing orders")
		}
		return lookupError(err, "menu item not found")
	}
	return nil
}

func (s *MenuService) category(ctx context.Context, id string) (*models.Category, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.FieldError("category_id", "category_id is required")
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "category not found")
	}
	return category, nil
}

func validateMenuItem(title string, price decimal.Decimal) error {
	fields := map[string]string{}
	if title == "" {
		fields["title"] = "title is required"
	}
	if !price.IsPositive() {
		fields["price"] = "price must be greater than zero"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid menu item", fields)
	}
	return nil
}
