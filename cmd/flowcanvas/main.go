// Package main provides the flowcanvas command line tool for checking
// workflow files and driving workflows stored on a backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
)

const defaultAPIURL = "http://localhost:9091"

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  "flowcanvas",
		Usage:                 "Check, export, import and run workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Workflow backend base URL",
				Value:   defaultAPIURL,
				Sources: cli.EnvVars("FLOWCANVAS_API_URL"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Bearer token sent to the backend",
				Sources: cli.EnvVars("FLOWCANVAS_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "catalog",
				Usage:   "YAML or JSON file with extra node templates",
				Sources: cli.EnvVars("FLOWCANVAS_CATALOG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			NewValidateCommand(),
			NewOrderCommand(),
			NewResolveCommand(),
			NewSuggestCommand(),
			NewExportCommand(),
			NewImportCommand(),
			NewExecuteCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "flowcanvas:", err)
		os.Exit(1)
	}
}
