package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles every repository bound to the same connection or transaction.
type Repositories struct {
	Users      UserRepository
	Categories CategoryRepository
	MenuItems  MenuItemRepository
	Carts      CartRepository
	Orders     OrderRepository
}

// NewGORMRepositories builds all GORM repositories on db.
func NewGORMRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:      NewGORMUserRepository(db),
		Categories: NewGORMCategoryRepository(db),
		MenuItems:  NewGORMMenuItemRepository(db),
		Carts:      NewGORMCartRepository(db),
		Orders:     NewGORMOrderRepository(db),
	}
}

// Transactor runs a unit of work inside one storage transaction. fn receives
// repositories bound to that transaction; returning an error rolls back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

// GORMTransactor is a GORM implementation of Transactor.
type GORMTransactor struct {
	db *gorm.DB
}

// NewGORMTransactor creates a new instance of GORMTransactor.
func NewGORMTransactor(db *gorm.DB) *GORMTransactor {
	return &GORMTransactor{db: db}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise,
// including when fn panics.
func (t *GORMTransactor) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMRepositories(tx))
	})
}
