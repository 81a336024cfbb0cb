package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/sparisa0x/FinanceBuddy/internal/config"
	"github.com/sparisa0x/FinanceBuddy/internal/middleware"
)

// New initializes the Fiber application with timeouts and global
// middlewares. Routes are registered separately.
func New(cfg *config.Config, logger *zap.SugaredLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	})

	// Credentialed CORS needs an explicit origin; fiber rejects "*" with
	// AllowCredentials.
	if cfg.App.ClientOrigin != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.App.ClientOrigin,
			AllowCredentials: true,
		}))
	} else {
		app.Use(cors.New())
	}
	app.Use(middleware.RequestLogger(logger))

	return app
}
