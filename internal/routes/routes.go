package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/item-admin/internal/admin"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/config"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	m *metrics.Metrics,
	site *admin.Admin,
	homeHandler *handlers.HomeHandler,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
) {
	// Login rate limit: 10 req/min per IP
	loginLimiter := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})

	app.Get("/", homeHandler.Index)
	app.Get(handlers.LoginPath, authHandler.LoginPage)
	app.Post(handlers.LoginPath, loginLimiter, authHandler.Login)
	app.Get("/logout", authHandler.Logout)
	app.Post("/logout", authHandler.Logout)
	app.Get("/account", middleware.LoginRequired(cfg, handlers.LoginPath), authHandler.Account)

	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)
	api.Post("/auth/login", loginLimiter, authHandler.APILogin)
	api.Get("/me", middleware.LoginRequired(cfg, handlers.LoginPath), authHandler.Me)

	// Admin pages register the gate on each route themselves.
	site.Mount(app)
}
