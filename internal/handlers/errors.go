package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"littlelemon/internal/apperr"
	"littlelemon/internal/listing"
	"littlelemon/internal/logger"
	"littlelemon/internal/middleware"
	"littlelemon/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Pagination bounds the page sizes accepted from query strings.
type Pagination struct {
	Default int
	Max     int
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:   fiber.StatusBadRequest,
	apperr.KindUnauthorized: fiber.StatusUnauthorized,
	apperr.KindForbidden:    fiber.StatusForbidden,
	apperr.KindNotFound:     fiber.StatusNotFound,
	apperr.KindConflict:     fiber.StatusConflict,
}

// respondError writes err as JSON with the status of its kind. Internal
// errors are logged and their cause is never returned to the client.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperr.KindInternal {
		logger.L().Error("request failed",
			zap.Error(err),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("request_id", middleware.RequestIDFrom(c)))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}

	body := fiber.Map{"message": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	return c.Status(statusByKind[appErr.Kind]).JSON(body)
}

// invalidBody reports a request body that could not be decoded.
func invalidBody(c *fiber.Ctx, err error) error {
	logger.L().Debug("invalid request body", zap.Error(err), zap.String("path", c.Path()))
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// validate runs struct validation and turns failures into a Validation error
// keyed by JSON field name.
func validate(v *validator.Validate, payload any) error {
	err := v.Struct(payload)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperr.Internal("validation failed", err)
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return apperr.Validation("Validation failed", fields)
}

// newValidator reports JSON field names in validation errors.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// identity returns the caller set by middleware.AuthRequired.
func identity(c *fiber.Ctx) (models.Identity, error) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return models.Identity{}, apperr.Unauthorized("Authentication credentials were not provided.")
	}
	return ident, nil
}

// pageFrom reads the page and perpage query parameters.
func pageFrom(c *fiber.Ctx, limits Pagination) (listing.Page, error) {
	number, err := queryInt(c, "page")
	if err != nil {
		return listing.Page{}, err
	}
	size, err := queryInt(c, "perpage")
	if err != nil {
		return listing.Page{}, err
	}
	return listing.NewPage(number, size, limits.Default, limits.Max)
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.FieldError(key, fmt.Sprintf("%s must be an integer", key))
	}
	if n == 0 {
		// Zero would silently select the default.
		return 0, apperr.FieldError(key, fmt.Sprintf("%s must be a positive integer", key))
	}
	return n, nil
}
