package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/flowcanvas/pkg/cmd"
	"github.com/dukex/flowcanvas/pkg/log"
	"github.com/dukex/flowcanvas/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "flowcanvas-api",
		Usage:                 "Serve workflows, executions, uploads, the node catalog and the template gallery",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Persistence URL (file path, postgres://, redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (memory, none)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "catalog",
				Usage:   "YAML or JSON file with extra node templates",
				Sources: cli.EnvVars("FLOWCANVAS_CATALOG"),
			},
			&cli.StringFlag{
				Name:    "gallery",
				Usage:   "YAML or JSON file with extra workflow templates",
				Sources: cli.EnvVars("FLOWCANVAS_GALLERY"),
			},
			&cli.Int64Flag{
				Name:    "max-upload-size",
				Usage:   "Largest accepted upload in bytes",
				Value:   services.DefaultMaxUploadSize,
				Sources: cli.EnvVars("MAX_UPLOAD_SIZE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.Run(ctx, os.Args); err != nil {
		log.WithModule("api").Error("API stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("api")
	logger.InfoContext(ctx, "Initializing Flowcanvas API")

	registry, err := cmd.NewRegistry(logger, command.String("catalog"))
	if err != nil {
		return err
	}

	gallery, err := cmd.NewGallery(logger, command.String("gallery"))
	if err != nil {
		return err
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(ctx, command.String("event-bus"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	api := NewAPI(logger, persistence, registry, gallery, eventBus, command.Int64("max-upload-size"))

	return api.Start(ctx, command.Int("port"))
}
