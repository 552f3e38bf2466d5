package middleware

import (
	"errors"

	"ieltsprep/backend/config"
	"ieltsprep/backend/models"
	"ieltsprep/backend/session"
	"ieltsprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	userKey   = "user"
	claimsKey = "claims"
)

// AuthMiddleware verifies the bearer token and attaches the active user to the request.
func AuthMiddleware(db *gorm.DB, cfg *config.Config, revoker session.Revoker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, appErr := utils.BearerToken(c.Get(fiber.HeaderAuthorization))
		if appErr != nil {
			return appErr
		}

		claims, appErr := utils.ParseToken(token, cfg)
		if appErr != nil {
			return appErr
		}

		revoked, err := revoker.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			return utils.NewInfrastructureError("Could not verify session", err)
		}
		if revoked {
			return utils.NewAuthenticationError("Token has been revoked")
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewAuthenticationError("User no longer exists")
			}
			return utils.NewInfrastructureError("Could not query database", err)
		}
		if !user.IsActive {
			return utils.NewAuthenticationError("Account is deactivated")
		}

		c.Locals(userKey, &user)
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// RequireCapability rejects users whose role lacks the capability.
// It must run after AuthMiddleware.
func RequireCapability(capability models.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return utils.NewAuthenticationError("Missing authorization token")
		}
		if !user.Role.Can(capability) {
			return utils.NewAuthorizationError("Forbidden - insufficient permissions")
		}
		return c.Next()
	}
}

// AdminMiddleware restricts a route to roles that may manage users.
func AdminMiddleware() fiber.Handler {
	return RequireCapability(models.CapManageUsers)
}

func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}

func CurrentClaims(c *fiber.Ctx) *utils.Claims {
	claims, _ := c.Locals(claimsKey).(*utils.Claims)
	return claims
}
