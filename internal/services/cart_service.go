package services

import (
	"context"
	"fmt"
	"strings"

	"littlelemon/internal/apperr"
	"littlelemon/internal/models"
	"littlelemon/internal/repositories"
)

// CartService manages the caller's pending cart lines.
type CartService struct {
	carts     repositories.CartRepository
	menuItems repositories.MenuItemRepository
}

func NewCartService(carts repositories.CartRepository, menuItems repositories.MenuItemRepository) *CartService {
	return &CartService{carts: carts, menuItems: menuItems}
}

// AddLine appends a line for menuItemID priced at the item's current price.
// Adding the same item twice yields two lines.
func (s *CartService) AddLine(ctx context.Context, ident models.Identity, menuItemID string, quantity int) (*models.CartLine, error) {
	menuItemID = strings.TrimSpace(menuItemID)
	if menuItemID == "" {
		return nil, apperr.FieldError("menuitem_id", "menuitem_id is required")
	}
	if quantity < 1 {
		return nil, apperr.FieldError("quantity", "quantity must be at least 1")
	}

	item, err := s.menuItems.GetByID(ctx, menuItemID)
	if err != nil {
		return nil, lookupError(err, fmt.Sprintf("menu item %s not found", menuItemID))
	}

	line := &models.CartLine{
		UserID:     ident.UserID,
		MenuItemID: item.ID,
		Quantity:   quantity,
		UnitPrice:  item.Price,
		Price:      models.LinePrice(quantity, item.Price),
	}
	if err := s.carts.Create(ctx, line); err != nil {
		return nil, apperr.Internal("failed to add to cart", err)
	}
	line.MenuItem = item
	return line, nil
}

// ListLines returns the caller's lines, oldest first.
func (s *CartService) ListLines(ctx context.Context, ident models.Identity) ([]models.CartLine, error) {
	lines, err := s.carts.ListByUser(ctx, ident.UserID)
	if err != nil {
		return nil, apperr.Internal("failed to load cart", err)
	}
	if lines == nil {
		lines = []models.CartLine{}
	}
	return lines, nil
}

// Clear removes every line of the caller and reports how many were removed.
func (s *CartService) Clear(ctx context.Context, ident models.Identity) (int64, error) {
	removed, err := s.carts.ClearByUser(ctx, ident.UserID)
	if err != nil {
		return 0, apperr.Internal("failed to clear cart", err)
	}
	return removed, nil
}
