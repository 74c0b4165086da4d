package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/item-admin/internal/access"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticPolicy struct {
	allow bool
	seen  []*access.Visitor
}

func (p *staticPolicy) Allowed(v *access.Visitor) bool {
	p.seen = append(p.seen, v)
	return p.allow
}

func (p *staticPolicy) OnDenied(_ *access.Visitor, requested string) access.Redirect {
	return access.Redirect{Location: access.LoginRedirect("/login", requested), Status: fiber.StatusFound}
}

type tokenResolver map[string]*access.Visitor

func (r tokenResolver) Visitor(token string) *access.Visitor {
	return r[token]
}

func newApp(policy access.Policy, resolver VisitorResolver) *fiber.App {
	app := fiber.New()
	app.Use(LoadVisitor(resolver))
	app.Get("/item/", AdminRequired(policy, metrics.New()), func(c *fiber.Ctx) error {
		return c.SendString("list")
	})
	return app
}

func TestAdminRequiredDenies(t *testing.T) {
	policy := &staticPolicy{}
	app := newApp(policy, tokenResolver{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/item/?page=2", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next=/item/%3Fpage%3D2", resp.Header.Get("Location"))
	require.Len(t, policy.seen, 1)
	assert.Nil(t, policy.seen[0])
}

func TestAdminRequiredAllows(t *testing.T) {
	policy := &staticPolicy{allow: true}
	visitor := &access.Visitor{UserID: 1, Email: "root@example.com"}
	app := newApp(policy, tokenResolver{"good": visitor})

	req := httptest.NewRequest(http.MethodGet, "/item/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, policy.seen, 1)
	assert.Equal(t, visitor, policy.seen[0])
}

func TestLoadVisitorIgnoresUnknownToken(t *testing.T) {
	policy := &staticPolicy{}
	app := newApp(policy, tokenResolver{})

	req := httptest.NewRequest(http.MethodGet, "/item/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "stale"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Len(t, policy.seen, 1)
	assert.Nil(t, policy.seen[0])
}
