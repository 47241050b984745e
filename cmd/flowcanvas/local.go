package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/dukex/flowcanvas/pkg/expression"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/suggest"
	"github.com/dukex/flowcanvas/pkg/validation"
	cli "github.com/urfave/cli/v3"
)

var (
	errFileRequired    = errors.New("a workflow file is required")
	errInvalidWorkflow = errors.New("workflow is invalid")
	errUnknownNode     = errors.New("node not found in workflow")
)

func fileArg(command *cli.Command) string {
	return command.Args().First()
}

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Check graph integrity, node configs and expression references",
		ArgsUsage: "<workflow.json>",
		Action: func(ctx context.Context, command *cli.Command) error {
			e, err := setup(ctx, command)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			imported, err := readWorkflow(fileArg(command))
			if err != nil {
				return err
			}

			return validateGraph(e, imported.Name, imported.Graph)
		},
	}
}

func validateGraph(e *env, name string, g models.Graph) error {
	validator := validation.New()

	_, _ = fmt.Fprintf(e.out, "Workflow: %s (%d nodes, %d connections)\n", name, len(g.Nodes), len(g.Connections))

	invalid := 0

	if _, err := graph.ExecutionOrder(g); err != nil {
		_, _ = fmt.Fprintf(e.out, "  graph: %v\n", err)
		invalid++
	}

	for _, n := range g.Nodes {
		label := n.Data.Label
		if label == "" {
			label = n.ID
		}

		tmpl, ok := e.registry.Template(n.Type)
		if !ok {
			_, _ = fmt.Fprintf(e.out, "  %s: unknown node type %q, config not checked\n", label, n.Type)
		} else if errs := validator.ValidateConfig(tmpl, n.Data.Config); len(errs) > 0 {
			invalid++

			for _, field := range sortedKeys(errs) {
				_, _ = fmt.Fprintf(e.out, "  %s.%s: %s\n", label, field, errs[field])
			}
		}

		for _, w := range validation.CheckReferences(g, n.ID, n.Data.Config) {
			_, _ = fmt.Fprintf(e.out, "  %s.%s: warning: %s\n", label, w.Property, w.Message)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%w: %d problem(s)", errInvalidWorkflow, invalid)
	}

	_, _ = fmt.Fprintln(e.out, "OK")

	return nil
}

func NewOrderCommand() *cli.Command {
	return &cli.Command{
		Name:      "order",
		Usage:     "Print the execution order of a workflow",
		ArgsUsage: "<workflow.json>",
		Action: func(ctx context.Context, command *cli.Command) error {
			e, err := setup(ctx, command)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			imported, err := readWorkflow(fileArg(command))
			if err != nil {
				return err
			}

			order, err := graph.ExecutionOrder(imported.Graph)
			if err != nil {
				return err
			}

			for i, id := range order {
				n, _ := imported.Graph.Node(id)
				_, _ = fmt.Fprintf(e.out, "%d. %s (%s) %s\n", i+1, id, n.Type, n.Data.Label)
			}

			return nil
		},
	}
}

func NewResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Evaluate an expression as seen from a node",
		ArgsUsage: "<workflow.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "node", Usage: "Node the expression belongs to", Required: true},
			&cli.StringFlag{Name: "expr", Usage: "Text containing {{...}} placeholders", Required: true},
			&cli.StringFlag{
				Name:  "run-data",
				Usage: "JSON file mapping node ids to recorded results; sample outputs are used without it",
			},
			&cli.StringFlag{Name: "input", Usage: "JSON payload the run was started with"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			e, err := setup(ctx, command)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			imported, err := readWorkflow(fileArg(command))
			if err != nil {
				return err
			}

			nodeID := command.String("node")
			if !imported.Graph.HasNode(nodeID) {
				return fmt.Errorf("%w: %s", errUnknownNode, nodeID)
			}

			value, err := resolveExpression(imported.Graph, nodeID, command.String("expr"),
				command.String("run-data"), command.String("input"), e)
			if err != nil {
				return err
			}

			return printJSON(e, value)
		},
	}
}

func resolveExpression(g models.Graph, nodeID, text, runDataPath, input string, e *env) (any, error) {
	if runDataPath == "" {
		return suggest.Preview(g, nodeID, text, e.registry)
	}

	raw, err := os.ReadFile(runDataPath)
	if err != nil {
		return nil, err
	}

	var runData map[string]models.NodeRunResult
	if err := json.Unmarshal(raw, &runData); err != nil {
		return nil, fmt.Errorf("decode run data: %w", err)
	}

	exprCtx := expression.NewContext(g, nodeID, runData)

	if input != "" {
		if err := json.Unmarshal([]byte(input), &exprCtx.Input); err != nil {
			return nil, fmt.Errorf("decode input: %w", err)
		}
	}

	return expression.Resolve(text, exprCtx)
}

func NewSuggestCommand() *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "List the variables a node property can reference",
		ArgsUsage: "<workflow.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "node", Usage: "Node being edited", Required: true},
			&cli.StringFlag{Name: "property", Usage: "Property being edited"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			e, err := setup(ctx, command)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			imported, err := readWorkflow(fileArg(command))
			if err != nil {
				return err
			}

			nodeID := command.String("node")
			if !imported.Graph.HasNode(nodeID) {
				return fmt.Errorf("%w: %s", errUnknownNode, nodeID)
			}

			for _, group := range suggest.Suggest(imported.Graph, nodeID, command.String("property"), e.registry) {
				_, _ = fmt.Fprintf(e.out, "%s\n", group.Category)

				for _, v := range group.Variables {
					_, _ = fmt.Fprintf(e.out, "  %-40s %s\n", v.Value, strings.TrimSpace(v.Label+"  "+v.Description))
				}
			}

			return nil
		},
	}
}

func printJSON(e *env, v any) error {
	if expression.IsUndefined(v) {
		v = nil
	}

	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(v)
}

func sortedKeys(errs validation.Errors) []string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
