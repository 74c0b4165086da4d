package middleware

import (
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/access"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/metrics"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired runs policy against the request's visitor. Denied
// visitors are redirected, never shown an error.
func AdminRequired(policy access.Policy, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := access.Current(c)
		allowed := policy.Allowed(v)
		if m != nil {
			m.RecordAccess(allowed)
		}
		if allowed {
			return c.Next()
		}
		r := policy.OnDenied(v, c.OriginalURL())
		return c.Redirect(r.Location, r.Status)
	}
}
