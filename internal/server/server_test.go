package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/item-admin/internal/config"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/dto"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/models"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/services"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	cfg      *config.Config
	db       *gorm.DB
	app      *fiber.App
	identity *services.IdentityService
	auth     *services.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testutil.Config()
	db := testutil.NewDB(t)
	identity := services.NewIdentityService(db, services.NewPasswordHasher(cfg.PasswordSalt, cfg.BcryptCost))
	return &fixture{
		cfg:      cfg,
		db:       db,
		app:      New(cfg, db, metrics.New(), Options{}),
		identity: identity,
		auth:     services.NewAuthService(identity, cfg),
	}
}

// session creates a user holding roles and returns a signed session token.
func (f *fixture) session(t *testing.T, email string, roles ...string) string {
	t.Helper()
	user, err := f.identity.CreateUser(email, "password1", true, roles...)
	require.NoError(t, err)
	token, err := f.auth.IssueToken(user)
	require.NoError(t, err)
	return token
}

func (f *fixture) get(t *testing.T, target, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return f.do(t, req, token)
}

func (f *fixture) post(t *testing.T, target string, form url.Values, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(t, req, token)
}

func (f *fixture) do(t *testing.T, req *http.Request, token string) *http.Response {
	t.Helper()
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestHomeIsPublic(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "FlaskApp")
}

func TestAdminDeniedRedirectsToLogin(t *testing.T) {
	f := newFixture(t)
	plain := f.session(t, "plain@example.com")
	editor := f.session(t, "editor@example.com", "editor", "Admin")

	tests := []struct {
		name  string
		token string
	}{
		{"anonymous", ""},
		{"no roles", plain},
		{"other roles", editor},
		{"garbage token", "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.get(t, "/item/", tt.token)
			assert.Equal(t, fiber.StatusFound, resp.StatusCode)
			assert.Equal(t, "/login?next=/item/", resp.Header.Get("Location"))
		})
	}
}

func TestEveryAdminRouteIsGated(t *testing.T) {
	f := newFixture(t)

	targets := []string{"/admin/"}
	for _, ep := range []string{"item", "address", "user", "role"} {
		targets = append(targets, "/"+ep+"/", "/"+ep+"/new/", "/"+ep+"/edit/?id=1")
	}
	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			resp := f.get(t, target, "")
			require.Equal(t, fiber.StatusFound, resp.StatusCode)

			loc, err := url.Parse(resp.Header.Get("Location"))
			require.NoError(t, err)
			assert.Equal(t, "/login", loc.Path)
			assert.Equal(t, target, loc.Query().Get("next"))
		})
	}

	resp := f.post(t, "/item/new/", url.Values{"name": {"Sneaky"}}, "")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	var count int64
	require.NoError(t, f.db.Model(&models.Item{}).Count(&count).Error)
	assert.Zero(t, count)

	resp = f.post(t, "/item/delete/", url.Values{"id": {"1"}}, "")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestInactiveAdminIsAnonymous(t *testing.T) {
	f := newFixture(t)
	token := f.session(t, "gone@example.com", "admin")
	require.NoError(t, f.identity.SetActive("gone@example.com", false))

	resp := f.get(t, "/item/", token)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next=/item/", resp.Header.Get("Location"))
}

func TestAdminSeesViews(t *testing.T) {
	f := newFixture(t)
	token := f.session(t, "root@example.com", "admin")

	resp := f.get(t, "/admin/", token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	html := body(t, resp)
	for _, name := range []string{"Home", "Item", "Address", "User", "Role"} {
		assert.Contains(t, html, name)
	}

	resp = f.get(t, "/item/", token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = f.get(t, "/item/new/", token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestDuplicateItemNameRejected(t *testing.T) {
	f := newFixture(t)
	token := f.session(t, "root@example.com", "admin")

	resp := f.post(t, "/item/new/", url.Values{"name": {"Warehouse A"}}, token)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/item/", resp.Header.Get("Location"))

	var first models.Item
	require.NoError(t, f.db.Where("name = ?", "Warehouse A").First(&first).Error)

	resp = f.post(t, "/item/new/", url.Values{"name": {"Warehouse A"}}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Name already exists.")

	var items []models.Item
	require.NoError(t, f.db.Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, "Warehouse A", items[0].Name)

	resp = f.get(t, "/item/", token)
	assert.Equal(t, 1, strings.Count(body(t, resp), "Warehouse A"))
}

func TestItemValidation(t *testing.T) {
	f := newFixture(t)
	token := f.session(t, "root@example.com", "admin")

	resp := f.post(t, "/item/new/", url.Values{"name": {"  "}}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Name is required.")

	resp = f.post(t, "/item/new/", url.Values{"name": {strings.Repeat("x", 51)}}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var count int64
	require.NoError(t, f.db.Model(&models.Item{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddressUnderItem(t *testing.T) {
	f := newFixture(t)
	token := f.session(t, "root@example.com", "admin")

	item := models.Item{Name: "Warehouse A"}
	require.NoError(t, f.db.Create(&item).Error)

	resp := f.post(t, "/address/new/", url.Values{
		"street": {"Main St"},
		"house":  {"5"},
		"item":   {strconv.FormatUint(uint64(item.ID), 10)},
	}, token)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	var addr models.Address
	require.NoError(t, f.db.Preload("Item").Where("street = ?", "Main St").First(&addr).Error)
	require.NotNil(t, addr.House)
	assert.Equal(t, 5, *addr.House)
	assert.Nil(t, addr.FrontDoor)
	require.NotNil(t, addr.Item)
	assert.Equal(t, "Warehouse A", addr.Item.Name)
	assert.Equal(t, "<Street: Main St, House: 5>", addr.String())

	var loaded models.Item
	require.NoError(t, f.db.Preload("Addresses").First(&loaded, item.ID).Error)
	require.Len(t, loaded.Addresses, 1)
	assert.Equal(t, addr.ID, loaded.Addresses[0].ID)

	resp = f.post(t, "/address/new/", url.Values{"street": {"Main St"}}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp = f.post(t, "/address/new/", url.Values{"street": {"Side St"}, "house": {"five"}}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body(t, resp), "House: not a valid integer value")

	resp = f.post(t, "/address/new/", url.Values{"street": {"Side St"}, "item": {"999"}}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestEditAndDeleteItem(t *testing.T) {
	f := newFixture(t)
	token := f.session(t, "root@example.com", "admin")

	item := models.Item{Name: "Warehouse A"}
	require.NoError(t, f.db.Create(&item).Error)
	other := models.Item{Name: "Warehouse B"}
	require.NoError(t, f.db.Create(&other).Error)
	addr := models.Address{Street: "Main St", ItemID: &item.ID}
	require.NoError(t, f.db.Create(&addr).Error)
	id := strconv.FormatUint(uint64(item.ID), 10)

	resp := f.get(t, "/item/edit/?id="+id, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), `value="Warehouse A"`)

	resp = f.post(t, "/item/edit/?id="+id, url.Values{"name": {"Warehouse B"}}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp = f.post(t, "/item/edit/?id="+id, url.Values{"name": {"Warehouse C"}}, token)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	// Saving an unchanged name is not a duplicate of itself.
	resp = f.post(t, "/item/edit/?id="+id, url.Values{"name": {"Warehouse C"}}, token)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	resp = f.get(t, "/item/edit/?id=999", token)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = f.post(t, "/item/delete/", url.Values{"id": {id}}, token)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	var count int64
	require.NoError(t, f.db.Model(&models.Item{}).Where("id = ?", item.ID).Count(&count).Error)
	assert.Zero(t, count)

	var orphan models.Address
	require.NoError(t, f.db.First(&orphan, addr.ID).Error)
	assert.Nil(t, orphan.ItemID)

	resp = f.post(t, "/item/delete/", url.Values{"id": {id}}, token)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUserAndRoleViews(t *testing.T) {
	f := newFixture(t)
	token := f.session(t, "root@example.com", "admin")

	resp := f.post(t, "/role/new/", url.Values{"name": {"editor"}, "description": {"Edits things"}}, token)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	editor, err := f.identity.FindRole("editor")
	require.NoError(t, err)

	resp = f.post(t, "/user/new/", url.Values{
		"email":    {"New@Example.com"},
		"password": {"password1"},
		"active":   {"y"},
		"roles":    {strconv.FormatUint(uint64(editor.ID), 10)},
	}, token)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	user, err := f.identity.FindUserByEmail("new@example.com")
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.Equal(t, []string{"editor"}, user.RoleNames())
	assert.True(t, f.identity.Hasher().Verify(user.Password, "password1"))

	// Blank password keeps the old one; no roles clears them.
	id := strconv.FormatUint(uint64(user.ID), 10)
	resp = f.post(t, "/user/edit/?id="+id, url.Values{"email": {"new@example.com"}}, token)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	user, err = f.identity.FindUserByEmail("new@example.com")
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.Empty(t, user.RoleNames())
	assert.True(t, f.identity.Hasher().Verify(user.Password, "password1"))

	resp = f.post(t, "/user/new/", url.Values{"email": {"nopw@example.com"}}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Password is required.")

	resp = f.post(t, "/role/delete/", url.Values{"id": {strconv.FormatUint(uint64(editor.ID), 10)}}, token)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	_, err = f.identity.FindRole("editor")
	assert.ErrorIs(t, err, services.ErrRoleNotFound)
}

func TestLoginResumesRequestedPage(t *testing.T) {
	f := newFixture(t)
	_, err := f.identity.CreateUser("root@example.com", "password1", true, "admin")
	require.NoError(t, err)

	resp := f.get(t, "/login?next=/item/", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), `value="/item/"`)

	resp = f.post(t, "/login", url.Values{
		"email": {"root@example.com"}, "password": {"wrong-password"}, "next": {"/item/"},
	}, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Invalid email or password.")

	resp = f.post(t, "/login", url.Values{
		"email": {"Root@Example.com"}, "password": {"password1"}, "next": {"/item/"},
	}, "")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/item/", resp.Header.Get("Location"))

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	resp = f.get(t, "/item/", session.Value)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLoginRejectsOffsiteNext(t *testing.T) {
	f := newFixture(t)
	_, err := f.identity.CreateUser("root@example.com", "password1", true)
	require.NoError(t, err)

	resp := f.post(t, "/login", url.Values{
		"email": {"root@example.com"}, "password": {"password1"}, "next": {"//evil.example.com/"},
	}, "")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestLogoutClearsSession(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/logout", "")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	found := false
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			found = true
			assert.Empty(t, c.Value)
		}
	}
	assert.True(t, found)
}

func TestAccount(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/account", "")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next=/account", resp.Header.Get("Location"))

	token := f.session(t, "staff@example.com", "editor")
	resp = f.get(t, "/account", token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	html := body(t, resp)
	assert.Contains(t, html, "staff@example.com")
	assert.Contains(t, html, "editor")
}

func TestAPI(t *testing.T) {
	f := newFixture(t)
	_, err := f.identity.CreateUser("root@example.com", "password1", true, "admin")
	require.NoError(t, err)

	resp := f.get(t, "/api/me", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	var errResp dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.True(t, errResp.Error)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"root@example.com","password":"password1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = f.do(t, req, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var auth dto.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))
	assert.NotEmpty(t, auth.AccessToken)
	assert.Equal(t, []string{"admin"}, auth.User.Roles)

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	resp = f.do(t, req, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me dto.UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "root@example.com", me.Email)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"root@example.com","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = f.do(t, req, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/api/health", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var health dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)

	f.get(t, "/item/", "")

	resp = f.get(t, "/metrics", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), `admin_access_decisions_total{decision="denied"} 1`)
}

func TestUnknownRouteRendersErrorPage(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/nowhere", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = f.get(t, "/api/nowhere", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, fiber.MIMEApplicationJSON, resp.Header.Get("Content-Type"))
}
