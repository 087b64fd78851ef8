// Package main provides the CinemaOS generation gateway.
package main

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/catalog"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/hardware"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/services"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/web"
)

const shutdownTimeout = 10 * time.Second

type API struct {
	logger      *slog.Logger
	generations *services.Generations
	catalog     *catalog.Catalog
	store       *templates.Store
	detector    hardware.Detector
	engine      web.EnginePinger
}

func NewAPI(
	logger *slog.Logger,
	generations *services.Generations,
	cat *catalog.Catalog,
	store *templates.Store,
	detector hardware.Detector,
	engine web.EnginePinger,
) *API {
	return &API{
		logger:      logger,
		generations: generations,
		catalog:     cat,
		store:       store,
		detector:    detector,
		engine:      engine,
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.logger, a.generations, a.catalog, a.store, a.detector, a.engine)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("CinemaOS Gateway")
	})

	handlers.Register(app)

	return app
}

// Start serves until ctx is canceled, then drains in-flight requests.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	errChan := make(chan error, 1)

	go func() {
		errChan <- app.Listen(":" + strconv.Itoa(port))
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return app.ShutdownWithContext(shutdownCtx)
}
