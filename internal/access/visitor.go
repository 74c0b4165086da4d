package access

import "github.com/gofiber/fiber/v2"

const visitorKey = "visitor"

// Visitor is whoever is making the current request. A nil *Visitor and a
// Visitor with a zero UserID are both anonymous.
type Visitor struct {
	UserID uint
	Email  string
}

func (v *Visitor) IsAuthenticated() bool {
	return v != nil && v.UserID != 0
}

// Current returns the visitor resolved for this request, or nil when the
// request is anonymous.
func Current(c *fiber.Ctx) *Visitor {
	if v, ok := c.Locals(visitorKey).(*Visitor); ok {
		return v
	}
	return nil
}

func SetVisitor(c *fiber.Ctx, v *Visitor) {
	c.Locals(visitorKey, v)
}
