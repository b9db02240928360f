package repositories

import (
	"context"

	"littlelemon/internal/models"
)

// UserRepository defines the interface for user and group membership data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByID loads the user together with its groups.
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListByGroup(ctx context.Context, group string) ([]models.User, error)
	AddToGroup(ctx context.Context, userID, group string) error
	RemoveFromGroup(ctx context.Context, userID, group string) error
	EnsureGroups(ctx context.Context, names ...string) error
}
