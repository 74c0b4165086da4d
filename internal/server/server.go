// Package server assembles the fiber application from its parts.
package server

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/item-admin/internal/access"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/admin"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/config"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/dto"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/routes"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/services"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/views"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

type Options struct {
	// AccessLog enables the per-request access log line.
	AccessLog bool
	// Sentry installs the sentry middleware; sentry.Init must already have run.
	Sentry bool
}

// New wires services, the admin site and routes into a fiber app.
func New(cfg *config.Config, db *gorm.DB, m *metrics.Metrics, opts Options) *fiber.App {
	hasher := services.NewPasswordHasher(cfg.PasswordSalt, cfg.BcryptCost)
	identityService := services.NewIdentityService(db, hasher)
	authService := services.NewAuthService(identityService, cfg)

	policy := access.NewRolePolicy(identityService, cfg.AdminRole, handlers.LoginPath)
	site := admin.New(cfg.AppName, policy, m)
	site.AddView(admin.NewItemView(db))
	site.AddView(admin.NewAddressView(db))
	site.AddView(admin.NewUserView(db, hasher))
	site.AddView(admin.NewRoleView(db))

	homeHandler := handlers.NewHomeHandler(cfg.AppName)
	authHandler := handlers.NewAuthHandler(authService, identityService, m, cfg)
	healthHandler := handlers.NewHealthHandler(db)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		BodyLimit:    4 * 1024 * 1024,
		Views:        views.NewEngine(),
		ViewsLayout:  views.Layout,
		ErrorHandler: errorHandler(cfg.AppName),
	})

	if opts.Sentry {
		app.Use(sentryfiber.New(sentryfiber.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}

	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
		}))
	}
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})
	app.Use(middleware.LoadVisitor(authService))

	routes.Setup(app, cfg, m, site, homeHandler, authHandler, healthHandler)

	return app
}

func errorHandler(appName string) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		}

		// Only expose error details for client errors (4xx), not server errors (5xx)
		if code >= 500 {
			slog.Error("unhandled server error",
				"method", c.Method(),
				"path", c.Path(),
				"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
				"error", err.Error(),
			)
			message = "Internal server error"
		}

		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
		}
		rerr := c.Status(code).Render("error", fiber.Map{
			"Title":   message,
			"AppName": appName,
			"Visitor": access.Current(c),
			"Status":  code,
			"Message": message,
		})
		if rerr != nil {
			return c.Status(code).SendString(message)
		}
		return nil
	}
}
