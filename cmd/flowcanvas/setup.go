package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dukex/flowcanvas/pkg/client"
	"github.com/dukex/flowcanvas/pkg/cmd"
	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
	"github.com/dukex/flowcanvas/pkg/registry"
	"github.com/dukex/flowcanvas/pkg/transfer"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

const requestTimeout = 30 * time.Second

// env holds what every command needs, built from the root flags.
type env struct {
	logger   *slog.Logger
	registry *registry.Registry
	out      io.Writer
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

func setup(ctx context.Context, command *cli.Command) (*env, error) {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("cli")

	reg, err := cmd.NewRegistry(logger, command.String("catalog"))
	if err != nil {
		return nil, err
	}

	e := &env{
		logger:   logger,
		registry: reg,
		out:      command.Root().Writer,
		tracer:   otelhelper.Tracer("flowcanvas"),
		shutdown: func(context.Context) error { return nil },
	}

	if e.out == nil {
		e.out = os.Stdout
	}

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, "flowcanvas")
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}

		e.tracer = tracer
		e.shutdown = shutdown
	}

	return e, nil
}

func (e *env) close(ctx context.Context) {
	if err := e.shutdown(ctx); err != nil {
		e.logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
	}
}

// backend returns a REST client for the root --api-url flag.
func (e *env) backend(command *cli.Command) *client.Client {
	httpClient := &http.Client{
		Timeout:   requestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return client.New(command.String("api-url"),
		client.WithToken(command.String("token")),
		client.WithHTTPClient(httpClient),
		client.WithLogger(e.logger),
		client.WithTracer(e.tracer),
	)
}

// readWorkflow loads an exported workflow document, or "-" for stdin.
func readWorkflow(path string) (*transfer.Imported, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	return transfer.Import(data)
}
