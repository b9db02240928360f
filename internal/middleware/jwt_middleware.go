package middleware

import (
	"context"
	"strings"

	"littlelemon/internal/apperr"
	"littlelemon/internal/logger"
	"littlelemon/internal/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const identityKey = "identity"

// TokenIdentifier validates bearer tokens and resolves the identity behind them.
type TokenIdentifier interface {
	ValidateToken(tokenString string) (jwt.MapClaims, error)
	Identify(ctx context.Context, userID string) (models.Identity, error)
}

const rejectionKey = "auth_rejection"

type rejection struct {
	status  int
	message string
}

func (r *rejection) send(c *fiber.Ctx) error {
	return c.Status(r.status).JSON(fiber.Map{"message": r.message})
}

// AuthRequired is a Fiber middleware to check for a valid JWT token. The
// caller's role is resolved once here and stored for the rest of the request.
func AuthRequired(auth TokenIdentifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, rej := authenticate(c, auth)
		if rej != nil {
			return rej.send(c)
		}
		c.Locals(identityKey, ident)
		return c.Next()
	}
}

// Authenticate resolves the caller like AuthRequired but lets requests with
// missing or bad credentials through as anonymous, so middleware such as the
// throttler can run before RequireIdentity turns them away. Storage failures
// still end the request.
func Authenticate(auth TokenIdentifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, rej := authenticate(c, auth)
		switch {
		case rej == nil:
			c.Locals(identityKey, ident)
		case rej.status == fiber.StatusUnauthorized:
			c.Locals(rejectionKey, rej)
		default:
			return rej.send(c)
		}
		return c.Next()
	}
}

// RequireIdentity rejects requests Authenticate could not identify.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFrom(c); ok {
			return c.Next()
		}
		if rej, ok := c.Locals(rejectionKey).(*rejection); ok {
			return rej.send(c)
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authorization header is required",
		})
	}
}

func authenticate(c *fiber.Ctx, auth TokenIdentifier) (models.Identity, *rejection) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return models.Identity{}, &rejection{fiber.StatusUnauthorized, "Authorization header is required"}
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return models.Identity{}, &rejection{fiber.StatusUnauthorized, "Authorization header format must be 'Bearer <token>'"}
	}

	claims, err := auth.ValidateToken(parts[1])
	if err != nil {
		logger.L().Debug("JWT validation failed", zap.Error(err), zap.String("path", c.Path()))
		return models.Identity{}, &rejection{fiber.StatusUnauthorized, "Invalid or expired token"}
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return models.Identity{}, &rejection{fiber.StatusUnauthorized, "Invalid or expired token"}
	}

	ident, err := auth.Identify(c.UserContext(), userID)
	if err != nil {
		if apperr.Is(err, apperr.KindUnauthorized) {
			return models.Identity{}, &rejection{fiber.StatusUnauthorized, err.Error()}
		}
		logger.L().Error("failed to resolve identity", zap.Error(err), zap.String("user_id", userID))
		return models.Identity{}, &rejection{fiber.StatusInternalServerError, "Internal server error"}
	}
	return ident, nil
}

// IdentityFrom returns the identity stored by AuthRequired or Authenticate.
func IdentityFrom(c *fiber.Ctx) (models.Identity, bool) {
	ident, ok := c.Locals(identityKey).(models.Identity)
	return ident, ok
}
