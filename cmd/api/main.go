package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auth "github.com/courierhq/courier/internal/auth"
	"github.com/courierhq/courier/internal/config"
	"github.com/courierhq/courier/internal/db"
	evsvc "github.com/courierhq/courier/internal/events/service"
	"github.com/courierhq/courier/internal/logger"
	messaging "github.com/courierhq/courier/internal/messaging"
	"github.com/courierhq/courier/internal/platform/validation"
	"github.com/courierhq/courier/internal/version"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.AppEnv)
	log.Info().Str("addr", cfg.AppAddr).Str("version", version.String()).Msg("starting api server")

	// Postgres: lazily established, memoized for the process lifetime.
	pool := db.NewPool(cfg.DatabaseURL)
	defer pool.Close()
	pgPool, err := pool.Get(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DATABASE_URL")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middlewares
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Validator
	e.Validator = validation.New()

	// Audit events go to the structured log.
	pub := evsvc.NewLogger(logger.Component(log, "events"))

	// Register domain routes via factories
	v1 := e.Group("/v1")
	authReg := auth.NewRegistrar(pgPool, cfg, pub)
	authReg.RegisterV1(v1)
	msgReg := messaging.NewRegistrar(cfg, pub)
	msgReg.RegisterV1(v1, authReg.Session())

	// Health endpoint pings the DB.
	e.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 500*time.Millisecond)
		defer cancel()

		dbStatus := "ok"
		if err := pgPool.Ping(ctx); err != nil {
			dbStatus = "down"
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"version": version.String(),
			"time":    time.Now().UTC().Format(time.RFC3339),
			"db":      dbStatus,
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Start server
	go func() {
		if err := e.Start(cfg.AppAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("server stopped")
}
