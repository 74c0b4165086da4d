package middleware

import (
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/access"
	"github.com/gofiber/fiber/v2"
)

const SessionCookie = "session"

// VisitorResolver turns a session token into a visitor, nil when anonymous.
type VisitorResolver interface {
	Visitor(token string) *access.Visitor
}

// LoadVisitor resolves the session cookie once per request. It never
// rejects a request; anonymous visitors simply carry no identity.
func LoadVisitor(resolver VisitorResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := c.Cookies(SessionCookie); token != "" {
			if v := resolver.Visitor(token); v != nil {
				access.SetVisitor(c, v)
			}
		}
		return c.Next()
	}
}
