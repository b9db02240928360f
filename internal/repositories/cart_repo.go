package repositories

import (
	"context"

	"littlelemon/internal/models"
)

// CartRepository defines the interface for cart line data access. Lines are
// append-only; they are only ever removed in bulk.
type CartRepository interface {
	Create(ctx context.Context, line *models.CartLine) error
	// ListByUser returns the user's lines oldest first with menu items loaded.
	ListByUser(ctx context.Context, userID string) ([]models.CartLine, error)
	// ClearByUser deletes every line of the user and reports how many were removed.
	ClearByUser(ctx context.Context, userID string) (int64, error)
}
