package services_test

import (
	"context"
	"fmt"
	"testing"

	"littlelemon/internal/apperr"
	"littlelemon/internal/listing"
	"littlelemon/internal/models"
	"littlelemon/internal/repositories"
	"littlelemon/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMenuService() (*services.MenuService, *MockCategoryRepository, *MockMenuItemRepository) {
	categories := new(MockCategoryRepository)
	items := new(MockMenuItemRepository)
	return services.NewMenuService(categories, items), categories, items
}

func TestMenuService_WritesRequireManager(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newMenuService()

	for _, ident := range []models.Identity{customer, crew} {
		err := service.CreateMenuItem(ctx, ident, &models.MenuItem{Title: "Soup", Price: dec("4")})
		require.True(t, apperr.Is(err, apperr.KindForbidden))
		assert.Equal(t, "You need to be a manager to access this.", err.Error())

		_, err = service.UpdateMenuItem(ctx, ident, "item-1", services.MenuItemPatch{})
		assert.True(t, apperr.Is(err, apperr.KindForbidden))
		assert.True(t, apperr.Is(service.DeleteMenuItem(ctx, ident, "item-1"), apperr.KindForbidden))
		assert.True(t, apperr.Is(service.CreateCategory(ctx, ident, &models.Category{Slug: "s", Title: "S"}), apperr.KindForbidden))
	}
}

func TestMenuService_CreateMenuItem(t *testing.T) {
	ctx := context.Background()
	service, categories, items := newMenuService()
	mains := &models.Category{ID: "cat-1", Slug: "mains", Title: "Mains"}

	categories.On("GetByID", mock.Anything, "cat-1").Return(mains, nil).Once()
	items.On("Create", mock.Anything, mock.AnythingOfType("*models.MenuItem")).Return(nil).Once()

	item := &models.MenuItem{Title: " Lasagne ", Price: dec("12.50"), CategoryID: "cat-1"}
	require.NoError(t, service.CreateMenuItem(ctx, manager, item))
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Lasagne", item.Title)
	assert.Equal(t, mains, item.Category)

	err := service.CreateMenuItem(ctx, manager, &models.MenuItem{Title: "Free", Price: dec("0"), CategoryID: "cat-1"})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "price")

	categories.On("GetByID", mock.Anything, "cat-x").Return(nil, fmt.Errorf("%w: category cat-x", repositories.ErrNotFound)).Once()
	err = service.CreateMenuItem(ctx, manager, &models.MenuItem{Title: "Orphan", Price: dec("1"), CategoryID: "cat-x"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	categories.AssertExpectations(t)
	items.AssertExpectations(t)
}

func TestMenuService_UpdateMenuItem_Patch(t *testing.T) {
	ctx := context.Background()
	service, _, items := newMenuService()

	items.On("GetByID", mock.Anything, "item-1").
		Return(&models.MenuItem{ID: "item-1", Title: "Soup", Price: dec("4"), CategoryID: "cat-1"}, nil).Once()
	items.On("Update", mock.Anything, mock.MatchedBy(func(item *models.MenuItem) bool {
		return item.Title == "Soup" && item.Price.Equal(dec("4.5")) && item.Featured
	})).Return(nil).Once()

	price := dec("4.5")
	featured := true
	item, err := service.UpdateMenuItem(ctx, manager, "item-1", services.MenuItemPatch{Price: &price, Featured: &featured})
	require.NoError(t, err)
	assert.True(t, item.Featured)
	items.AssertExpectations(t)
}

func TestMenuService_DeleteMenuItem(t *testing.T) {
	ctx := context.Background()
	service, _, items := newMenuService()

	items.On("Delete", mock.Anything, "ordered").Return(fmt.Errorf("%w: menu item ordered", repositories.ErrInUse)).Once()
	items.On("Delete", mock.Anything, "missing").Return(fmt.Errorf("%w: menu item missing", repositories.ErrNotFound)).Once()
	items.On("Delete", mock.Anything, "fine").Return(nil).Once()

	assert.True(t, apperr.Is(service.DeleteMenuItem(ctx, manager, "ordered"), apperr.KindConflict))
	assert.True(t, apperr.Is(service.DeleteMenuItem(ctx, manager, "missing"), apperr.KindNotFound))
	assert.NoError(t, service.DeleteMenuItem(ctx, manager, "fine"))
	items.AssertExpectations(t)
}

func TestMenuService_ListMenuItems(t *testing.T) {
	ctx := context.Background()
	service, _, items := newMenuService()
	page := listing.Page{Number: 1, Size: 5}
	maxPrice := dec("5")

	items.On("List", mock.Anything,
		mock.MatchedBy(func(f repositories.MenuItemFilter) bool {
			return f.CategorySlug == "desserts" && f.Search == "cake" && f.MaxPrice != nil && f.MaxPrice.Equal(maxPrice)
		}),
		[]listing.SortField{{Column: "price", Desc: true}},
		page,
	).Return([]models.MenuItem{{ID: "m1"}}, int64(7), nil).Once()

	result, err := service.ListMenuItems(ctx, services.MenuQuery{
		Category: "desserts", ToPrice: "5", Search: "cake", Ordering: "-price", Page: page,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.Count)
	assert.Len(t, result.Results, 1)

	_, err = service.ListMenuItems(ctx, services.MenuQuery{ToPrice: "cheap", Page: page})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = service.ListMenuItems(ctx, services.MenuQuery{Ordering: "featured", Page: page})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	items.AssertExpectations(t)
}

func TestMenuService_CreateCategory(t *testing.T) {
	ctx := context.Background()
	service, categories, _ := newMenuService()

	categories.On("Create", mock.Anything, mock.AnythingOfType("*models.Category")).Return(nil).Once()
	category := &models.Category{Slug: "desserts", Title: "Desserts"}
	require.NoError(t, service.CreateCategory(ctx, manager, category))
	assert.NotEmpty(t, category.ID)

	categories.On("Create", mock.Anything, mock.AnythingOfType("*models.Category")).
		Return(fmt.Errorf("%w: category desserts", repositories.ErrDuplicate)).Once()
	err := service.CreateCategory(ctx, manager, &models.Category{Slug: "desserts", Title: "Desserts again"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	err = service.CreateCategory(ctx, manager, &models.Category{})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Len(t, appErr.Fields, 2)
	categories.AssertExpectations(t)
}
