package repositories

import (
	"context"
	"fmt"

	"littlelemon/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit("Groups").Create(user).Error; err != nil {
		return translate(err, "failed to create user %s", user.Username)
	}
	return nil
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Groups").First(&user, "username = ?", username).Error; err != nil {
		return nil, translate(err, "user with username %s", username)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err, "user with email %s", email)
	}
	return &user, nil
}

// GetByID retrieves a user and its groups by ID.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Groups").First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user with ID %s", id)
	}
	return &user, nil
}

// ListByGroup returns the members of a group ordered by username.
func (r *GORMUserRepository) ListByGroup(ctx context.Context, group string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN user_groups ON user_groups.user_id = users.id").
		Joins("JOIN auth_groups ON auth_groups.id = user_groups.group_id").
		Where("auth_groups.name = ?", group).
		Order("users.username").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list members of %s: %w", group, err)
	}
	return users, nil
}

// AddToGroup adds the user to the named group. Adding an existing member is a no-op.
func (r *GORMUserRepository) AddToGroup(ctx context.Context, userID, group string) error {
	user, g, err := r.userAndGroup(ctx, userID, group)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(user).Association("Groups").Append(g); err != nil {
		return fmt.Errorf("failed to add user %s to %s: %w", userID, group, err)
	}
	return nil
}

// RemoveFromGroup removes the user from the named group.
func (r *GORMUserRepository) RemoveFromGroup(ctx context.Context, userID, group string) error {
	user, g, err := r.userAndGroup(ctx, userID, group)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(user).Association("Groups").Delete(g); err != nil {
		return fmt.Errorf("failed to remove user %s from %s: %w", userID, group, err)
	}
	return nil
}

// EnsureGroups creates the named groups when they do not exist yet.
func (r *GORMUserRepository) EnsureGroups(ctx context.Context, names ...string) error {
	for _, name := range names {
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&models.Group{Name: name}).Error
		if err != nil {
			return fmt.Errorf("failed to ensure group %s: %w", name, err)
		}
	}
	return nil
}

func (r *GORMUserRepository) userAndGroup(ctx context.Context, userID, group string) (*models.User, *models.Group, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, nil, translate(err, "user with ID %s", userID)
	}
	var g models.Group
	if err := r.db.WithContext(ctx).First(&g, "name = ?", group).Error; err != nil {
		return nil, nil, translate(err, "group %s", group)
	}
	return &user, &g, nil
}
