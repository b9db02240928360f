// Package server assembles the HTTP application from its repositories,
// services and handlers.
package server

import (
	"errors"
	"time"

	"littlelemon/internal/config"
	"littlelemon/internal/handlers"
	"littlelemon/internal/middleware"
	"littlelemon/internal/repositories"
	"littlelemon/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var protectedPrefixes = []string{"/users", "/categories", "/menu-items", "/cart", "/orders", "/groups"}

// NewApp builds the Fiber app with every route mounted under /api/v1.
// publisher may be nil when order events are disabled.
func NewApp(cfg *config.Config, db *gorm.DB, publisher services.EventPublisher, log *zap.Logger) *fiber.App {
	repos := repositories.NewGORMRepositories(db)
	tx := repositories.NewGORMTransactor(db)

	authService := services.NewAuthService(repos.Users, cfg.JWTSecret, cfg.TokenTTL)
	menuService := services.NewMenuService(repos.Categories, repos.MenuItems)
	cartService := services.NewCartService(repos.Carts, repos.MenuItems)
	orderService := services.NewOrderService(repos.Orders, repos.Users, tx, publisher)
	groupService := services.NewGroupService(repos.Users)

	pages := handlers.Pagination{Default: cfg.PageSize, Max: cfg.MaxPageSize}
	authHandler := handlers.NewAuthHandler(authService)
	menuHandler := handlers.NewMenuHandler(menuService, pages)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService, pages)
	groupHandler := handlers.NewGroupHandler(groupService)

	app := fiber.New(fiber.Config{
		AppName:      "littlelemon",
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":       "healthy",
			"time":         time.Now().Format(time.RFC3339),
			"order_events": publisher != nil,
		})
	})

	apiV1 := app.Group("/api/v1")

	var throttler *middleware.Throttler
	if cfg.ThrottleEnabled {
		throttler = middleware.NewThrottler(middleware.ThrottleConfig{
			AnonPerMinute: cfg.ThrottleAnonPerMinute,
			UserPerMinute: cfg.ThrottleUserPerMinute,
			Burst:         cfg.ThrottleBurst,
		})
		apiV1.Use("/auth", throttler.Handler())
	}

	authHandler.RegisterRoutes(apiV1)

	// Credentials are checked per resource prefix so unknown paths still get
	// the JSON 404. Rejected callers are throttled on the anonymous budget
	// before they are turned away.
	guard := []fiber.Handler{middleware.Authenticate(authService)}
	if throttler != nil {
		guard = append(guard, throttler.Handler())
	}
	guard = append(guard, middleware.RequireIdentity())
	for _, prefix := range protectedPrefixes {
		apiV1.Group(prefix, guard...)
	}

	authHandler.RegisterProfileRoutes(apiV1)
	menuHandler.RegisterRoutes(apiV1)
	cartHandler.RegisterRoutes(apiV1)
	orderHandler.RegisterRoutes(apiV1)
	groupHandler.RegisterRoutes(apiV1)

	return app
}

// errorHandler renders errors that escape handlers, such as unknown routes,
// as JSON.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("unhandled error", zap.Error(err), zap.String("path", c.Path()))
		}
		return c.Status(code).JSON(fiber.Map{"message": message})
	}
}
