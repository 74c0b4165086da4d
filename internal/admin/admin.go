// Package admin generates list/create/edit/delete pages for registered
// record types. Every page, including the index, sits behind one access
// policy.
package admin

import (
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/access"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

const IndexPath = "/admin/"

// View is a section of the admin surface.
type View interface {
	Name() string
	Endpoint() string
	// Register mounts the view's routes. Every route must run a.Gate first.
	Register(router fiber.Router, a *Admin)
}

type Admin struct {
	name    string
	gate    fiber.Handler
	metrics *metrics.Metrics
	views   []View
}

func New(name string, policy access.Policy, m *metrics.Metrics) *Admin {
	return &Admin{
		name:    name,
		gate:    middleware.AdminRequired(policy, m),
		metrics: m,
	}
}

func (a *Admin) AddView(v View) {
	a.views = append(a.views, v)
}

func (a *Admin) Views() []View {
	return a.views
}

// Gate is the access check every admin route runs before its handler.
func (a *Admin) Gate(c *fiber.Ctx) error {
	return a.gate(c)
}

func (a *Admin) Mount(router fiber.Router) {
	router.Get(IndexPath, a.Gate, a.index)
	for _, v := range a.views {
		v.Register(router, a)
	}
}

func (a *Admin) index(c *fiber.Ctx) error {
	return a.render(c, fiber.StatusOK, "admin/index", fiber.Map{
		"Title": "Home",
	})
}

type navItem struct {
	Name string
	URL  string
}

func (a *Admin) nav() []navItem {
	items := make([]navItem, 0, len(a.views)+1)
	items = append(items, navItem{Name: "Home", URL: IndexPath})
	for _, v := range a.views {
		items = append(items, navItem{Name: v.Name(), URL: "/" + v.Endpoint() + "/"})
	}
	return items
}

func (a *Admin) render(c *fiber.Ctx, status int, tmpl string, data fiber.Map) error {
	data["AppName"] = a.name
	data["Nav"] = a.nav()
	data["Visitor"] = access.Current(c)
	return c.Status(status).Render(tmpl, data)
}

func (a *Admin) recordChange(view, action string) {
	if a.metrics != nil {
		a.metrics.RecordChange(view, action)
	}
}
