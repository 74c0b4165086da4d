package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/item-admin/internal/access"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/config"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// LoginRequired validates the session token from the Authorization header
// or the session cookie. API callers get a JSON 401; browsers are sent to
// loginPath with next set to the page they asked for.
func LoginRequired(cfg *config.Config, loginPath string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.SecretKey)},
		TokenLookup: "header:Authorization,cookie:" + SessionCookie,
		AuthScheme:  "Bearer",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if strings.HasPrefix(c.Path(), "/api/") {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error:   true,
					Message: "Unauthorized: invalid or expired token",
				})
			}
			return c.Redirect(access.LoginRedirect(loginPath, c.OriginalURL()), fiber.StatusFound)
		},
	})
}
