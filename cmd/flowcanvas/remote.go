package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dukex/flowcanvas/pkg/client"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/session"
	"github.com/dukex/flowcanvas/pkg/transfer"
	cli "github.com/urfave/cli/v3"
)

var errExecutionFailed = errors.New("execution did not succeed")

func workflowFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "workflow",
		Aliases:  []string{"w"},
		Usage:    "Workflow ID on the backend",
		Required: true,
	}
}

func openSession(ctx context.Context, e *env, command *cli.Command, create bool, name string) (*session.Session, error) {
	backend := e.backend(command)
	id := command.String("workflow")

	opts := []session.Option{session.WithLogger(e.logger), session.WithTracer(e.tracer)}

	s, err := session.Open(ctx, backend, e.registry, id, opts...)
	if err == nil || !create || !client.IsNotFound(err) {
		return s, err
	}

	if name == "" {
		name = id
	}

	e.logger.InfoContext(ctx, "Creating workflow", "workflow_id", id)

	created, err := backend.SaveWorkflow(ctx, &models.Workflow{ID: id, Name: name})
	if err != nil {
		return nil, err
	}

	return session.New(created, backend, e.registry, opts...), nil
}

func NewExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write a stored workflow as a portable document",
		Flags: []cli.Flag{
			workflowFlag(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file, stdout when empty"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			e, err := setup(ctx, command)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			s, err := openSession(ctx, e, command, false, "")
			if err != nil {
				return err
			}

			var w io.Writer = e.out

			if path := command.String("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()

				w = f
			}

			return s.Export(w)
		},
	}
}

func NewImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Replace a stored workflow's graph with a document",
		ArgsUsage: "<workflow.json>",
		Flags: []cli.Flag{
			workflowFlag(),
			&cli.BoolFlag{Name: "create", Usage: "Create the workflow when it does not exist"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			e, err := setup(ctx, command)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			data, err := readFile(fileArg(command))
			if err != nil {
				return err
			}

			doc, err := transfer.Import(data)
			if err != nil {
				return err
			}

			s, err := openSession(ctx, e, command, command.Bool("create"), doc.Name)
			if err != nil {
				return err
			}

			if _, err := s.Import(ctx, data); err != nil {
				return err
			}

			if err := s.Save(ctx); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(e.out, "Imported %d nodes and %d connections into %s\n",
				len(doc.Graph.Nodes), len(doc.Graph.Connections), s.ID())

			return nil
		},
	}
}

func NewExecuteCommand() *cli.Command {
	return &cli.Command{
		Name:      "execute",
		Aliases:   []string{"run"},
		Usage:     "Save, run and watch a workflow",
		ArgsUsage: "[workflow.json]",
		Flags: []cli.Flag{
			workflowFlag(),
			&cli.StringFlag{Name: "input", Usage: "JSON payload to start the run with"},
			&cli.DurationFlag{Name: "interval", Usage: "Status poll interval", Value: session.DefaultPollInterval},
			&cli.DurationFlag{Name: "timeout", Usage: "Give up watching after this long", Value: 10 * time.Minute},
			&cli.BoolFlag{Name: "create", Usage: "Create the workflow when it does not exist"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			e, err := setup(ctx, command)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			var input any

			if raw := command.String("input"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &input); err != nil {
					return fmt.Errorf("decode input: %w", err)
				}
			}

			var data []byte

			if path := fileArg(command); path != "" {
				if data, err = readFile(path); err != nil {
					return err
				}
			}

			s, err := openSession(ctx, e, command, command.Bool("create"), "")
			if err != nil {
				return err
			}

			if data != nil {
				if _, err := s.Import(ctx, data); err != nil {
					return err
				}
			}

			return execute(ctx, e, s, input, command.Duration("interval"), command.Duration("timeout"))
		},
	}
}

func execute(ctx context.Context, e *env, s *session.Session, input any, interval, timeout time.Duration) error {
	execution, err := s.Execute(ctx, input)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(e.out, "Execution %s started (%s)\n", execution.ID, execution.Status)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	last := execution.Status

	final, err := s.Watch(ctx, execution.ID, interval, func(execution *models.Execution, err error) {
		if err != nil {
			_, _ = fmt.Fprintf(e.out, "  poll failed: %v\n", err)

			return
		}

		if execution.Status != last {
			last = execution.Status
			_, _ = fmt.Fprintf(e.out, "  %s\n", execution.Status)
		}
	})
	if err != nil {
		return err
	}

	for nodeID, result := range final.Data.ResultData.RunData {
		_, _ = fmt.Fprintf(e.out, "  node %s: %s\n", nodeID, result.Status)
	}

	_, _ = fmt.Fprintf(e.out, "Execution %s finished: %s in %s\n", final.ID, final.Status, final.Duration())

	if final.Status != models.ExecutionStatusSuccess {
		if final.Error != nil {
			return fmt.Errorf("%w: %s", errExecutionFailed, final.Error.Message)
		}

		return fmt.Errorf("%w: %s", errExecutionFailed, final.Status)
	}

	return nil
}

func readFile(path string) ([]byte, error) {
	switch path {
	case "":
		return nil, errFileRequired
	case "-":
		return io.ReadAll(os.Stdin)
	default:
		return os.ReadFile(path)
	}
}
