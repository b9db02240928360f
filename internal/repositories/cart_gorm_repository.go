package repositories

import (
	"context"
	"fmt"
	"time"

	"littlelemon/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// Create appends a line to a user's cart.
func (r *GORMCartRepository) Create(ctx context.Context, line *models.CartLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	if line.CreatedAt.IsZero() {
		line.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Omit("MenuItem").Create(line).Error; err != nil {
		return fmt.Errorf("failed to create cart line: %w", err)
	}
	return nil
}

// ListByUser returns every line of the user's cart.
func (r *GORMCartRepository) ListByUser(ctx context.Context, userID string) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Preload("MenuItem").
		Where("user_id = ?", userID).
		Order("created_at").Order("id").
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cart of user %s: %w", userID, err)
	}
	return lines, nil
}

// ClearByUser deletes all lines of the user's cart.
func (r *GORMCartRepository) ClearByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartLine{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear cart of user %s: %w", userID, res.Error)
	}
	return res.RowsAffected, nil
}
