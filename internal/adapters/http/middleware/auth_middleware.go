package middleware

import (
	"strings"

	"framecraft/internal/config"
	"framecraft/internal/core/domain"
	"framecraft/internal/pkg/jwt"
	"framecraft/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware creates authentication middleware.
// Clients send the access token as a bearer credential.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		authHeader := c.Get("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			accessToken = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowed := range allowedRoles {
			if role == string(allowed) {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// MeasurementCaptureOnly allows roles that capture measurement records
func MeasurementCaptureOnly() fiber.Handler {
	return RoleMiddleware(domain.MeasurementCaptureRoles...)
}

// MeasurementApproverOnly allows roles that approve or reject records
func MeasurementApproverOnly() fiber.Handler {
	return RoleMiddleware(domain.MeasurementApproverRoles...)
}

// MeasurementManagerOnly allows roles that delete and recover records.
// The client gates these actions behind a typed confirmation code as
// well, but that is UI friction only; this check is the real boundary.
func MeasurementManagerOnly() fiber.Handler {
	return RoleMiddleware(domain.MeasurementManagerRoles...)
}

// AdminOnly middleware allows only the admin role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}
