package handlers

import (
	"littlelemon/internal/models"
	"littlelemon/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// MenuHandler serves categories and menu items.
type MenuHandler struct {
	service  *services.MenuService
	pages    Pagination
	validate *validator.Validate
}

func NewMenuHandler(service *services.MenuService, pages Pagination) *MenuHandler {
	return &MenuHandler{service: service, pages: pages, validate: newValidator()}
}

func (h *MenuHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/categories", h.HandleListCategories)
	router.Post("/categories", h.HandleCreateCategory)

	items := router.Group("/menu-items")
	items.Get("/", h.HandleListMenuItems)
	items.Post("/", h.HandleCreateMenuItem)
	items.Get("/:id", h.HandleGetMenuItem)
	items.Put("/:id", h.HandleReplaceMenuItem)
	items.Patch("/:id", h.HandlePatchMenuItem)
	items.Delete("/:id", h.HandleDeleteMenuItem)
}

type CategoryRequest struct {
	Slug  string `json:"slug" validate:"required,max=255"`
	Title string `json:"title" validate:"required,max=255"`
}

// MenuItemRequest is the full representation used by POST and PUT.
type MenuItemRequest struct {
	Title      string           `json:"title" validate:"required,max=255"`
	Price      *decimal.Decimal `json:"price" validate:"required"`
	Featured   bool             `json:"featured"`
	CategoryID string           `json:"category_id" validate:"required"`
}

// MenuItemPatchRequest only changes the fields present in the body.
type MenuItemPatchRequest struct {
	Title      *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Price      *decimal.Decimal `json:"price"`
	Featured   *bool            `json:"featured"`
	CategoryID *string          `json:"category_id" validate:"omitempty,min=1"`
}

func (h *MenuHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

func (h *MenuHandler) HandleCreateCategory(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := validate(h.validate, req); err != nil {
		return respondError(c, err)
	}

	category := models.Category{Slug: req.Slug, Title: req.Title}
	if err := h.service.CreateCategory(c.UserContext(), ident, &category); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleListMenuItems supports ?category=, ?to_price=, ?search=, ?ordering=,
// ?page= and ?perpage=.
func (h *MenuHandler) HandleListMenuItems(c *fiber.Ctx) error {
	page, err := pageFrom(c, h.pages)
	if err != nil {
		return respondError(c, err)
	}
	result, err := h.service.ListMenuItems(c.UserContext(), services.MenuQuery{
		Category: c.Query("category"),
		ToPrice:  c.Query("to_price"),
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
		Page:     page,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *MenuHandler) HandleGetMenuItem(c *fiber.Ctx) error {
	item, err := h.service.GetMenuItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (h *MenuHandler) HandleCreateMenuItem(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req MenuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := validate(h.validate, req); err != nil {
		return respondError(c, err)
	}

	item := models.MenuItem{Title: req.Title, Price: *req.Price, Featured: req.Featured, CategoryID: req.CategoryID}
	if err := h.service.CreateMenuItem(c.UserContext(), ident, &item); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *MenuHandler) HandleReplaceMenuItem(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req MenuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := validate(h.validate, req); err != nil {
		return respondError(c, err)
	}

	item, err := h.service.UpdateMenuItem(c.UserContext(), ident, c.Params("id"), services.MenuItemPatch{
		Title:      &req.Title,
		Price:      req.Price,
		Featured:   &req.Featured,
		CategoryID: &req.CategoryID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (h *MenuHandler) HandlePatchMenuItem(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req MenuItemPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := validate(h.validate, req); err != nil {
		return respondError(c, err)
	}

	item, err := h.service.UpdateMenuItem(c.UserContext(), ident, c.Params("id"), services.MenuItemPatch{
		Title:      req.Title,
		Price:      req.Price,
		Featured:   req.Featured,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (h *MenuHandler) HandleDeleteMenuItem(c *fiber.Ctx) error {
	ident, err := identity(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeleteMenuItem(c.UserContext(), ident, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
