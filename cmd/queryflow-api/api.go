// Package main provides the QueryFlow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/queryflow/pkg/persistence"
	"github.com/dukex/queryflow/pkg/web"
	"github.com/dukex/queryflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger   *slog.Logger
	handlers *web.APIHandlers
}

func NewAPI(
	logger *slog.Logger,
	manager *workflow.Manager,
	repository persistence.ContextRepository,
) (*API, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers, err := web.NewAPIHandlers(manager, repository, validate)
	if err != nil {
		return nil, err
	}

	return &API{
		logger:   logger,
		handlers: handlers,
	}, nil
}

func (a *API) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("QueryFlow API")
	})

	w := app.Group("/workflows")
	w.Post("/", a.handlers.SubmitWorkflow)
	w.Get("/:id/status", a.handlers.GetWorkflowStatus)
	w.Get("/:id/steps", a.handlers.GetWorkflowSteps)

	app.Get("/health", a.handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
