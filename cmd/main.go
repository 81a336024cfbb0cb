package main

import (
	"context"
	"fmt"
	"log" // standard log for errors before zap is set up
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sparisa0x/FinanceBuddy/internal/config"
	"github.com/sparisa0x/FinanceBuddy/internal/database"
	"github.com/sparisa0x/FinanceBuddy/internal/handlers"
	"github.com/sparisa0x/FinanceBuddy/internal/mailer"
	"github.com/sparisa0x/FinanceBuddy/internal/middleware"
	"github.com/sparisa0x/FinanceBuddy/internal/repository"
	"github.com/sparisa0x/FinanceBuddy/internal/routes"
	"github.com/sparisa0x/FinanceBuddy/internal/server"
	"github.com/sparisa0x/FinanceBuddy/internal/services"
	"github.com/sparisa0x/FinanceBuddy/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.App.Env == "development" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()
	sugar.Infof("Starting auth service in %s environment on port %d", cfg.App.Env, cfg.App.Port)

	db, mongoClient, err := database.ConnectMongo(cfg.Mongo.URI, cfg.Mongo.Database, sugar)
	if err != nil {
		sugar.Fatal(err)
	}
	rdb, err := database.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, sugar)
	if err != nil {
		sugar.Fatal(err)
	}

	brevo := mailer.NewBrevoClient(cfg.Email.BrevoAPIKey, cfg.Email.SenderEmail, cfg.Email.SenderName)
	if !brevo.IsConfigured() {
		sugar.Warn("Brevo client not configured; OTP email dispatch will fail")
	}

	tokens := utils.NewTokenManager(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	userRepo := repository.NewMongoUserRepo(db)
	otpRepo := repository.NewMongoOtpRepo(db)
	sessionRepo := repository.NewMongoSessionRepo(db)

	authSvc := services.NewAuthService(userRepo, otpRepo, sessionRepo, tokens, brevo, cfg.Security.AdminEmail, cfg.OtpTTL, sugar)
	adminSvc := services.NewAdminService(userRepo, sugar)

	h := handlers.NewHandler(authSvc, cfg.Security.CookieSecure, sugar)
	ah := handlers.NewAdminHandler(adminSvc, sugar)
	limiter := middleware.NewRateLimiter(rdb, "auth_rl", cfg.Security.RateLimitPerMinute, time.Minute)

	app := server.New(cfg, sugar)
	routes.Setup(app, h, ah, tokens, limiter)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		if err := app.Listen(addr); err != nil {
			sugar.Fatalf("server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	sugar.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		sugar.Errorf("app shutdown error: %v", err)
	}
	if err := mongoClient.Disconnect(ctx); err != nil {
		sugar.Errorf("mongo disconnect error: %v", err)
	}
	if err := rdb.Close(); err != nil {
		sugar.Errorf("redis close error: %v", err)
	}
	sugar.Info("Graceful shutdown complete")
}
