package handlers

import (
	"littlelemon/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
	pages   Pagination
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, pages Pagination) *OrderHandler {
	return &OrderHandler{
		service: service,
		pages:   pages,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/", h.HandlePlaceOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id", h.HandleUpdateOrder)
	orderRoutes.Patch("/:id", h.HandleUpdateOrder)
	orderRoutes.Delete("/:id", h.HandleDeleteOrder)
	orderRoutes.Put("/:id/delivery-crew", h.HandleAssignCrew)
	orderRoutes.Post("/:id/delivered", h.HandleMarkDelivered)
}

// HandleGetOrders lists the orders visible to the caller.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	page, err := pageFrom(c, h.pages)
	if err != nil {
		return respondError(c, err)
	}
	result, err := h.service.ListOrders(c.UserContext(), ident, c.Query("ordering"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// HandlePlaceOrder turns the caller's cart into an order.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.service.PlaceOrder(c.UserContext(), ident)
	if err != nil {
		return respondError(c, err)
	}
	if order == nil {
		return c.JSON(fiber.Map{"message": "nothing to order"})
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.service.GetOrder(c.UserContext(), ident, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleUpdateOrder assigns a crew (Manager) or marks the order delivered
// (Delivery Crew) depending on the caller.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var update services.OrderUpdate
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&update); err != nil {
			return invalidBody(c, err)
		}
	}
	order, err := h.service.UpdateOrder(c.UserContext(), ident, c.Params("id"), update)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

func (h *OrderHandler) HandleAssignCrew(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var update services.OrderUpdate
	if err := c.BodyParser(&update); err != nil {
		return invalidBody(c, err)
	}
	order, err := h.service.AssignCrew(c.UserContext(), ident, c.Params("id"), update.DeliveryCrew)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

func (h *OrderHandler) HandleMarkDelivered(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.service.MarkDelivered(c.UserContext(), ident, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteOrder(c.UserContext(), ident, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order deleted"})
}
