package handlers

import (
	"fmt"

	"littlelemon/internal/models"
	"littlelemon/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// GroupHandler manages staff group membership. Each group is mounted under
// its own path.
type GroupHandler struct {
	service  *services.GroupService
	validate *validator.Validate
}

func NewGroupHandler(service *services.GroupService) *GroupHandler {
	return &GroupHandler{service: service, validate: newValidator()}
}

func (h *GroupHandler) RegisterRoutes(router fiber.Router) {
	h.mount(router.Group("/groups/manager/users"), models.GroupManager)
	h.mount(router.Group("/groups/delivery-crew/users"), models.GroupDeliveryCrew)
}

// GroupMemberRequest names the user to add.
type GroupMemberRequest struct {
	Username string `json:"username" validate:"required"`
}

func (h *GroupHandler) mount(routes fiber.Router, group string) {
	routes.Get("/", func(c *fiber.Ctx) error {
		ident, err := identity(c)
		if err != nil {
			return respondError(c, err)
		}
		users, err := h.service.ListMembers(c.UserContext(), ident, group)
		if err != nil {
			return respondError(c, err)
		}
		for i := range users {
			users[i].Password = ""
		}
		return c.JSON(users)
	})

	routes.Post("/", func(c *fiber.Ctx) error {
		ident, err := identity(c)
		if err != nil {
			return respondError(c, err)
		}
		var req GroupMemberRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c, err)
		}
		if err := validate(h.validate, req); err != nil {
			return respondError(c, err)
		}
		if _, err := h.service.AddMember(c.UserContext(), ident, group, req.Username); err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": fmt.Sprintf("user added to the %s group", group),
		})
	})

	routes.Delete("/:id", func(c *fiber.Ctx) error {
		ident, err := identity(c)
		if err != nil {
			return respondError(c, err)
		}
		if err := h.service.RemoveMember(c.UserContext(), ident, group, c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("user removed from the %s group", group),
		})
	})
}
