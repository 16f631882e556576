package main

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/arcsuite/arcflow/pkg/eventbus"
	"github.com/arcsuite/arcflow/pkg/otelhelper"
	"github.com/arcsuite/arcflow/pkg/persistence"
	"github.com/arcsuite/arcflow/pkg/registry"
	"github.com/arcsuite/arcflow/pkg/services"
	"github.com/arcsuite/arcflow/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 10 * time.Second

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
) *API {
	if tracer == nil {
		tracer = otelhelper.NoopTracer("arcflow-api")
	}

	return &API{
		persistence: persistence,
		logger:      logger,
		registry:    registry,
		eventBus:    eventBus,
		tracer:      tracer,
	}
}

func (a *API) App() *fiber.App {
	opts := []services.Option{
		services.WithLogger(a.logger),
		services.WithTracer(a.tracer),
	}
	if a.eventBus != nil {
		opts = append(opts, services.WithEventPublisher(a.eventBus))
	}

	workflowService := services.NewWorkflow(a.persistence, a.registry, opts...)
	handlers := web.NewAPIHandlers(workflowService, a.registry, a.logger)

	app := fiber.New(fiber.Config{
		AppName: "Arcflow API",
	})
	app.Use(cors.New(cors.Config{
		ExposeHeaders: []string{web.TotalCountHeader},
	}))
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			_, ok := workflowService.HealthCheck(c.Context())

			return ok
		},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Arcflow API")
	})

	handlers.Routes(app)

	return app
}

// Start serves the API until ctx is cancelled, then shuts the server down.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	errCh := make(chan error, 1)

	go func() {
		errCh <- app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	a.logger.InfoContext(ctx, "Arcflow API listening", "port", port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.Info("Shutting down Arcflow API")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return <-errCh
}
