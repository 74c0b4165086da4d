package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/item-admin/internal/access"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/config"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/dto"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/models"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LoginPath     = "/login"
	postLoginPath = "/"
)

type AuthHandler struct {
	authService     *services.AuthService
	identityService *services.IdentityService
	metrics         *metrics.Metrics
	cfg             *config.Config
}

func NewAuthHandler(authService *services.AuthService, identityService *services.IdentityService, m *metrics.Metrics, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		identityService: identityService,
		metrics:         m,
		cfg:             cfg,
	}
}

func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return h.renderLogin(c, fiber.StatusOK, c.Query("next"), "", "")
}

// Login checks the submitted form, sets the session cookie and resumes at
// the page the visitor was originally denied.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderLogin(c, fiber.StatusBadRequest, c.Query("next"), "", "Invalid request body.")
	}
	if req.Next == "" {
		req.Next = c.Query("next")
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			h.metrics.RecordLogin("invalid")
			return h.renderLogin(c, fiber.StatusUnauthorized, req.Next, req.Email, "Invalid email or password.")
		case errors.Is(err, services.ErrInactiveUser):
			h.metrics.RecordLogin("inactive")
			return h.renderLogin(c, fiber.StatusUnauthorized, req.Next, req.Email, "This account is disabled.")
		default:
			return err
		}
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		return err
	}
	h.metrics.RecordLogin("success")
	slog.Info("user logged in", "user_id", user.ID)

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.SessionTTL),
		HTTPOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(access.SafeNext(req.Next, postLoginPath), fiber.StatusFound)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(postLoginPath, fiber.StatusFound)
}

// Account shows the signed-in user. It runs behind LoginRequired, but a
// valid token for a disabled account still has no visitor.
func (h *AuthHandler) Account(c *fiber.Ctx) error {
	v := access.Current(c)
	if !v.IsAuthenticated() {
		return c.Redirect(access.LoginRedirect(LoginPath, c.OriginalURL()), fiber.StatusFound)
	}
	roles, err := h.identityService.RoleNames(v.UserID)
	if err != nil {
		return err
	}
	return c.Render("account", fiber.Map{
		"Title":   "Account",
		"AppName": h.cfg.AppName,
		"Visitor": v,
		"Roles":   roles,
	})
}

func (h *AuthHandler) APILogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrInactiveUser) {
			h.metrics.RecordLogin("invalid")
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	h.metrics.RecordLogin("success")

	return c.JSON(dto.AuthResponse{
		AccessToken: token,
		ExpiresIn:   int64(h.cfg.SessionTTL.Seconds()),
		User:        userResponse(user),
	})
}

// Me returns the user named by the validated token in c.Locals("user").
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return unauthorized(c)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return unauthorized(c)
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return unauthorized(c)
	}

	user, err := h.identityService.FindUserByID(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return unauthorized(c)
		}
		return err
	}
	if !user.Active {
		return unauthorized(c)
	}
	return c.JSON(userResponse(user))
}

func (h *AuthHandler) renderLogin(c *fiber.Ctx, status int, next, email, message string) error {
	return c.Status(status).Render("login", fiber.Map{
		"Title":   "Login",
		"AppName": h.cfg.AppName,
		"Next":    next,
		"Email":   email,
		"Error":   message,
	})
}

func userResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:     u.ID,
		Email:  u.Email,
		Active: u.Active,
		Roles:  u.RoleNames(),
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}
