package routes

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/sparisa0x/FinanceBuddy/internal/handlers"
	"github.com/sparisa0x/FinanceBuddy/internal/metrics"
	"github.com/sparisa0x/FinanceBuddy/internal/middleware"
	"github.com/sparisa0x/FinanceBuddy/internal/utils"
)

// Setup wires the HTTP surface. The rate limiter guards the whole auth
// group; admin routes additionally require an admin access token.
func Setup(app *fiber.App, h *handlers.Handler, ah *handlers.AdminHandler, tokens *utils.TokenManager, limiter *middleware.RateLimiter) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api")

	auth := api.Group("/auth", limiter.ByIP())
	auth.Post("/register", h.Register)
	auth.Post("/admin/request-otp", h.RequestAdminOtp)
	auth.Post("/login", h.Login)
	auth.Post("/verify-otp", h.VerifyOtp)
	auth.Post("/refresh", h.Refresh)
	auth.Post("/logout", h.Logout)

	requireAuth := middleware.RequireAuth(tokens)
	auth.Get("/me", requireAuth, h.Me)
	auth.Post("/change-password", requireAuth, h.ChangePassword)
	auth.Put("/profile", requireAuth, h.UpdateProfile)

	admin := api.Group("/admin", requireAuth, middleware.AdminOnly())
	admin.Get("/pending-users", ah.PendingUsers)
	admin.Post("/approve-user", ah.ApproveUser)
}
