package access

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Policy decides whether a visitor may use a gated surface and where a
// denied visitor is sent instead.
type Policy interface {
	Allowed(v *Visitor) bool
	OnDenied(v *Visitor, requestedURL string) Redirect
}

type Redirect struct {
	Location string
	Status   int
}

// RoleChecker answers role membership questions for a user.
type RoleChecker interface {
	HasRole(userID uint, role string) (bool, error)
}

// RolePolicy admits authenticated visitors holding Role. Names are compared
// exactly as stored; there is no role hierarchy.
type RolePolicy struct {
	Roles     RoleChecker
	Role      string
	LoginPath string
}

func NewRolePolicy(roles RoleChecker, role, loginPath string) *RolePolicy {
	return &RolePolicy{Roles: roles, Role: role, LoginPath: loginPath}
}

func (p *RolePolicy) Allowed(v *Visitor) bool {
	if !v.IsAuthenticated() || p.Roles == nil {
		return false
	}
	ok, err := p.Roles.HasRole(v.UserID, p.Role)
	if err != nil {
		slog.Warn("role lookup failed, denying access", "user_id", v.UserID, "role", p.Role, "error", err)
		return false
	}
	return ok
}

// OnDenied sends every denied visitor to the login page, whether anonymous
// or signed in without the role.
func (p *RolePolicy) OnDenied(_ *Visitor, requestedURL string) Redirect {
	return Redirect{
		Location: LoginRedirect(p.LoginPath, requestedURL),
		Status:   fiber.StatusFound,
	}
}

// LoginRedirect builds loginPath?next=requestedURL. Slashes are left
// unescaped for readability; parsing next still yields requestedURL.
func LoginRedirect(loginPath, requestedURL string) string {
	next := strings.ReplaceAll(url.QueryEscape(requestedURL), "%2F", "/")
	return loginPath + "?next=" + next
}

// SafeNext returns next when it is a path on this site, fallback otherwise.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
