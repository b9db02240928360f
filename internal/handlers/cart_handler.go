package handlers

import (
	"littlelemon/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler serves the caller's cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service, validate: newValidator()}
}

func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cart := router.Group("/cart/menu-items")
	cart.Get("/", h.HandleListCart)
	cart.Post("/", h.HandleAddToCart)
	cart.Delete("/", h.HandleClearCart)
}

// AddToCartRequest represents the request body for adding a cart line.
type AddToCartRequest struct {
	MenuItemID string `json:"menuitem_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
}

func (h *CartHandler) HandleListCart(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	lines, err := h.service.ListLines(c.UserContext(), ident)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(lines)
}

func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := validate(h.validate, req); err != nil {
		return respondError(c, err)
	}

	line, err := h.service.AddLine(c.UserContext(), ident, req.MenuItemID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(line)
}

func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	removed, err := h.service.Clear(c.UserContext(), ident)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Cart cleared",
		"removed": removed,
	})
}
