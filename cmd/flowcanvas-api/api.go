// Package main provides the Flowcanvas reference API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/flowcanvas/pkg/eventbus"
	"github.com/dukex/flowcanvas/pkg/gallery"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/dukex/flowcanvas/pkg/registry"
	"github.com/dukex/flowcanvas/pkg/services"
	"github.com/dukex/flowcanvas/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// multipart envelope allowance on top of the upload limit
const formOverhead = 1 << 20

type API struct {
	logger        *slog.Logger
	persistence   persistence.Persistence
	registry      *registry.Registry
	gallery       *gallery.Gallery
	eventBus      eventbus.EventBus
	validate      *validator.Validate
	maxUploadSize int64
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	gallery *gallery.Gallery,
	eventBus eventbus.EventBus,
	maxUploadSize int64,
) *API {
	if maxUploadSize <= 0 {
		maxUploadSize = services.DefaultMaxUploadSize
	}

	return &API{
		persistence:   persistence,
		logger:        logger,
		registry:      registry,
		gallery:       gallery,
		eventBus:      eventBus,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		maxUploadSize: maxUploadSize,
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence, a.eventBus, a.logger)
	activationService := services.NewActivation(a.persistence, a.registry, a.logger)
	executionService := services.NewExecution(a.persistence, a.eventBus, a.logger)
	fileService := services.NewFile(a.persistence, a.eventBus, a.logger, a.maxUploadSize)
	nodeService := services.NewNode(a.registry)
	templateService := services.NewTemplate(a.gallery, workflowService, a.logger)

	handlers := web.NewAPIHandlers(
		workflowService,
		activationService,
		executionService,
		fileService,
		nodeService,
		templateService,
		a.validate,
		a.registry,
	)

	app := fiber.New(fiber.Config{
		AppName:      "Flowcanvas API",
		BodyLimit:    int(a.maxUploadSize + formOverhead),
		ErrorHandler: web.ErrorHandler,
	})
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowcanvas API")
	})

	handlers.Register(app)

	return app
}

// Start serves the API on port until ctx is canceled.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		if err := app.Shutdown(); err != nil {
			a.logger.Error("Failed to shut down API", "error", err)
		}
	}()

	a.logger.InfoContext(ctx, "Listening", "port", port)

	return app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
}
