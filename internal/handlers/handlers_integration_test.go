package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"littlelemon/internal/config"
	"littlelemon/internal/database"
	"littlelemon/internal/handlers"
	"littlelemon/internal/listing"
	"littlelemon/internal/logger"
	"littlelemon/internal/middleware"
	"littlelemon/internal/models"
	"littlelemon/internal/repositories"
	"littlelemon/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testJWTSecret = "test_jwt_secret"

type testEnv struct {
	app         *fiber.App
	repos       repositories.Repositories
	authService *services.AuthService
}

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(config.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared", zap.NewNop(), false)
	require.NoError(t, err)
	require.NoError(t, database.Prepare(context.Background(), db))
	t.Cleanup(func() { _ = database.Close(db) })

	repos := repositories.NewGORMRepositories(db)
	authService := services.NewAuthService(repos.Users, testJWTSecret, time.Hour)
	orderService := services.NewOrderService(repos.Orders, repos.Users, repositories.NewGORMTransactor(db), nil)
	pages := handlers.Pagination{Default: 10, Max: 100}

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protected := apiV1.Group("", middleware.AuthRequired(authService))
	handlers.NewAuthHandler(authService).RegisterProfileRoutes(protected)
	handlers.NewMenuHandler(services.NewMenuService(repos.Categories, repos.MenuItems), pages).RegisterRoutes(protected)
	handlers.NewCartHandler(services.NewCartService(repos.Carts, repos.MenuItems)).RegisterRoutes(protected)
	handlers.NewOrderHandler(orderService, pages).RegisterRoutes(protected)
	handlers.NewGroupHandler(services.NewGroupService(repos.Users)).RegisterRoutes(protected)

	return &testEnv{app: app, repos: repos, authService: authService}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	logger.Replace(zap.NewNop())
	os.Exit(m.Run())
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// signUp registers and logs in a user, optionally placing them in a staff group.
func (e *testEnv) signUp(t *testing.T, username, group string) (string, *models.User) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	user, err := e.repos.Users.GetByUsername(context.Background(), username)
	require.NoError(t, err)
	if group != "" {
		require.NoError(t, e.repos.Users.AddToGroup(context.Background(), user.ID, group))
	}

	resp = e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loginResp := decode[map[string]string](t, resp)
	require.NotEmpty(t, loginResp["token"])
	return loginResp["token"], user
}

// seedMenu creates a category with two items through the API: A at 5.00 and B at 3.00.
func (e *testEnv) seedMenu(t *testing.T, managerToken string) (models.MenuItem, models.MenuItem) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/categories", managerToken, map[string]string{"slug": "mains", "title": "Mains"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	category := decode[models.Category](t, resp)

	create := func(title, price string) models.MenuItem {
		resp := e.do(t, http.MethodPost, "/api/v1/menu-items", managerToken, map[string]any{
			"title": title, "price": price, "category_id": category.ID,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		return decode[models.MenuItem](t, resp)
	}
	return create("Bruschetta", "5.00"), create("Lemon Dessert", "3.00")
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupApp(t)

	// Test Registration
	userToRegister := map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}
	resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	registerResp := decode[map[string]any](t, resp)
	assert.Equal(t, "User registered successfully", registerResp["message"])
	assert.NotContains(t, registerResp["user"], "password")

	// Test Duplicate Registration (username)
	resp = env.do(t, http.MethodPost, "/api/v1/auth/register", "", userToRegister)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Test Login
	resp = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "testuser",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	loginResp := decode[map[string]string](t, resp)
	assert.NotEmpty(t, loginResp["token"])

	claims, err := env.authService.ValidateToken(loginResp["token"])
	assert.NoError(t, err)
	assert.Equal(t, "testuser", claims["username"])
	assert.Contains(t, claims, "user_id")

	// Wrong password
	resp = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "testuser",
		"password": "nope-nope",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Who am I
	resp = env.do(t, http.MethodGet, "/api/v1/users/me", loginResp["token"], nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[map[string]string](t, resp)
	assert.Equal(t, "testuser", me["username"])
	assert.Equal(t, "customer", me["role"])
}

func TestAuthRegister_Validation(t *testing.T) {
	env := setupApp(t)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "ab",
		"email":    "not-an-email",
		"password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}](t, resp)
	assert.Equal(t, "Validation failed", body.Message)
	assert.Contains(t, body.Errors, "username")
	assert.Contains(t, body.Errors, "email")
	assert.Contains(t, body.Errors, "password")
}

func TestEndpointsWithoutAuth(t *testing.T) {
	env := setupApp(t)

	for _, path := range []string{"/api/v1/orders", "/api/v1/cart/menu-items", "/api/v1/menu-items", "/api/v1/users/me"} {
		resp := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
	resp := env.do(t, http.MethodGet, "/api/v1/orders", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOrderWorkflow(t *testing.T) {
	env := setupApp(t)
	managerToken, _ := env.signUp(t, "maria", models.GroupManager)
	customerToken, customer := env.signUp(t, "alice", "")
	crewToken, crew := env.signUp(t, "dave", models.GroupDeliveryCrew)
	otherCrewToken, _ := env.signUp(t, "erin", models.GroupDeliveryCrew)

	itemA, itemB := env.seedMenu(t, managerToken)

	// Customer fills the cart.
	resp := env.do(t, http.MethodPost, "/api/v1/cart/menu-items", customerToken, map[string]any{"menuitem_id": itemA.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	line := decode[models.CartLine](t, resp)
	assert.True(t, line.Price.Equal(decimal.RequireFromString("10")))

	resp = env.do(t, http.MethodPost, "/api/v1/cart/menu-items", customerToken, map[string]any{"menuitem_id": itemB.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/cart/menu-items", customerToken, map[string]any{"menuitem_id": itemB.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Place the order.
	resp = env.do(t, http.MethodPost, "/api/v1/orders", customerToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decode[models.Order](t, resp)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("13.00")), "total was %s", order.Total)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, customer.ID, order.UserID)
	assert.Equal(t, models.OrderPending, order.Status)

	resp = env.do(t, http.MethodGet, "/api/v1/cart/menu-items", customerToken, nil)
	assert.Empty(t, decode[[]models.CartLine](t, resp))

	// Nothing left to order.
	resp = env.do(t, http.MethodPost, "/api/v1/orders", customerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nothing to order", decode[map[string]string](t, resp)["message"])

	// Customers cannot update orders.
	resp = env.do(t, http.MethodPatch, "/api/v1/orders/"+order.ID, customerToken, map[string]string{"delivery_crew": "dave"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Manager assigns dave.
	resp = env.do(t, http.MethodPatch, "/api/v1/orders/"+order.ID, managerToken, map[string]string{"delivery_crew": "dave"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assigned := decode[models.Order](t, resp)
	require.NotNil(t, assigned.DeliveryCrewID)
	assert.Equal(t, crew.ID, *assigned.DeliveryCrewID)
	assert.Equal(t, models.OrderPending, assigned.Status)

	// Only the assignee can see it among the crew.
	resp = env.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, crewToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, otherCrewToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/delivered", otherCrewToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Delivered, twice.
	for i := 0; i < 2; i++ {
		resp = env.do(t, http.MethodPatch, "/api/v1/orders/"+order.ID, crewToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.OrderDelivered, decode[models.Order](t, resp).Status)
	}

	// Each role sees its own slice.
	resp = env.do(t, http.MethodGet, "/api/v1/orders", crewToken, nil)
	assert.Equal(t, int64(1), decode[listing.Result[models.Order]](t, resp).Count)
	resp = env.do(t, http.MethodGet, "/api/v1/orders", otherCrewToken, nil)
	assert.Equal(t, int64(0), decode[listing.Result[models.Order]](t, resp).Count)
	resp = env.do(t, http.MethodGet, "/api/v1/orders", customerToken, nil)
	customerOrders := decode[listing.Result[models.Order]](t, resp)
	require.Len(t, customerOrders.Results, 1)
	assert.Len(t, customerOrders.Results[0].Items, 2)

	// Ordered items cannot be removed from the menu.
	resp = env.do(t, http.MethodDelete, "/api/v1/menu-items/"+itemA.ID, managerToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Manager deletes the order.
	resp = env.do(t, http.MethodDelete, "/api/v1/orders/"+order.ID, customerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.do(t, http.MethodDelete, "/api/v1/orders/"+order.ID, managerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, managerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrderSplitRoutes(t *testing.T) {
	env := setupApp(t)
	managerToken, _ := env.signUp(t, "maria", models.GroupManager)
	customerToken, _ := env.signUp(t, "alice", "")
	crewToken, _ := env.signUp(t, "dave", models.GroupDeliveryCrew)
	itemA, _ := env.seedMenu(t, managerToken)

	env.do(t, http.MethodPost, "/api/v1/cart/menu-items", customerToken, map[string]any{"menuitem_id": itemA.ID, "quantity": 1})
	resp := env.do(t, http.MethodPost, "/api/v1/orders", customerToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decode[models.Order](t, resp)

	resp = env.do(t, http.MethodPut, "/api/v1/orders/"+order.ID+"/delivery-crew", managerToken, map[string]string{"delivery_crew": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = env.do(t, http.MethodPut, "/api/v1/orders/"+order.ID+"/delivery-crew", managerToken, map[string]string{"delivery_crew": "ghost"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.do(t, http.MethodPut, "/api/v1/orders/"+order.ID+"/delivery-crew", managerToken, map[string]string{"delivery_crew": "alice"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.do(t, http.MethodPut, "/api/v1/orders/"+order.ID+"/delivery-crew", managerToken, map[string]string{"delivery_crew": "dave"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/delivered", managerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/delivered", crewToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.OrderDelivered, decode[models.Order](t, resp).Status)
}

func TestOrderListing_PagingAndOrdering(t *testing.T) {
	env := setupApp(t)
	managerToken, _ := env.signUp(t, "maria", models.GroupManager)
	customerToken, _ := env.signUp(t, "alice", "")
	itemA, itemB := env.seedMenu(t, managerToken)

	for _, id := range []string{itemA.ID, itemB.ID, itemA.ID} {
		env.do(t, http.MethodPost, "/api/v1/cart/menu-items", customerToken, map[string]any{"menuitem_id": id, "quantity": 1})
		resp := env.do(t, http.MethodPost, "/api/v1/orders", customerToken, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := env.do(t, http.MethodGet, "/api/v1/orders?ordering=total&perpage=2", managerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decode[listing.Result[models.Order]](t, resp)
	assert.Equal(t, int64(3), first.Count)
	require.Len(t, first.Results, 2)
	assert.True(t, first.Results[0].Total.Equal(decimal.RequireFromString("3")))

	resp = env.do(t, http.MethodGet, "/api/v1/orders?page=5&perpage=2", managerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	beyond := decode[listing.Result[models.Order]](t, resp)
	assert.Equal(t, int64(3), beyond.Count)
	assert.NotNil(t, beyond.Results)
	assert.Empty(t, beyond.Results)

	resp = env.do(t, http.MethodGet, "/api/v1/orders?page=9223372036854775807&perpage=10", managerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	farBeyond := decode[listing.Result[models.Order]](t, resp)
	assert.Equal(t, int64(3), farBeyond.Count)
	assert.Empty(t, farBeyond.Results)

	resp = env.do(t, http.MethodGet, "/api/v1/orders?ordering=user_id", managerToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/v1/orders?perpage=1000", managerToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/v1/orders?page=abc", managerToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMenuEndpoints(t *testing.T) {
	env := setupApp(t)
	managerToken, _ := env.signUp(t, "maria", models.GroupManager)
	customerToken, _ := env.signUp(t, "alice", "")
	itemA, _ := env.seedMenu(t, managerToken)

	resp := env.do(t, http.MethodPost, "/api/v1/menu-items", customerToken, map[string]any{"title": "Soup", "price": "4", "category_id": itemA.CategoryID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You need to be a manager to access this.", decode[map[string]string](t, resp)["message"])

	resp = env.do(t, http.MethodGet, "/api/v1/menu-items?to_price=4&category=mains", customerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cheap := decode[listing.Result[models.MenuItem]](t, resp)
	require.Len(t, cheap.Results, 1)
	assert.Equal(t, "Lemon Dessert", cheap.Results[0].Title)

	resp = env.do(t, http.MethodGet, "/api/v1/menu-items?search=BRUSCH", customerToken, nil)
	assert.Len(t, decode[listing.Result[models.MenuItem]](t, resp).Results, 1)

	resp = env.do(t, http.MethodPatch, "/api/v1/menu-items/"+itemA.ID, managerToken, map[string]any{"featured": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	patched := decode[models.MenuItem](t, resp)
	assert.True(t, patched.Featured)
	assert.True(t, patched.Price.Equal(decimal.RequireFromString("5")))

	resp = env.do(t, http.MethodPut, "/api/v1/menu-items/"+itemA.ID, managerToken, map[string]any{"title": "Bruschetta", "price": "-1", "category_id": itemA.CategoryID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/menu-items/"+uuid.NewString(), customerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/categories", managerToken, map[string]string{"slug": "mains", "title": "Again"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGroupEndpoints(t *testing.T) {
	env := setupApp(t)
	managerToken, _ := env.signUp(t, "maria", models.GroupManager)
	customerToken, customer := env.signUp(t, "alice", "")

	resp := env.do(t, http.MethodPost, "/api/v1/groups/delivery-crew/users", customerToken, map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/groups/delivery-crew/users", managerToken, map[string]string{"username": "ghost"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/groups/delivery-crew/users", managerToken, map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/groups/manager/users", managerToken, map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/groups/delivery-crew/users", managerToken, nil)
	members := decode[[]models.User](t, resp)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].Username)
	assert.Empty(t, members[0].Password)

	// alice now acts as delivery crew.
	resp = env.do(t, http.MethodGet, "/api/v1/users/me", customerToken, nil)
	assert.Equal(t, "delivery_crew", decode[map[string]string](t, resp)["role"])

	resp = env.do(t, http.MethodDelete, "/api/v1/groups/delivery-crew/users/"+customer.ID, managerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodGet, "/api/v1/groups/delivery-crew/users", managerToken, nil)
	assert.Empty(t, decode[[]models.User](t, resp))
}
