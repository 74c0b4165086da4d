package handlers

import (
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/access"
	"github.com/gofiber/fiber/v2"
)

type HomeHandler struct {
	appName string
}

func NewHomeHandler(appName string) *HomeHandler {
	return &HomeHandler{appName: appName}
}

// Index renders the public landing page.
func (h *HomeHandler) Index(c *fiber.Ctx) error {
	return c.Render("home", fiber.Map{
		"Title":   "Home",
		"AppName": h.appName,
		"Visitor": access.Current(c),
	})
}
