package graph

import (
	"errors"
	"fmt"

	dgraph "github.com/dominikbraun/graph"
	"github.com/dukex/flowcanvas/pkg/models"
)

// Validate checks the structural invariants of g: node ids are non-empty and
// unique and every connection endpoint references an existing node. All
// problems are reported in a single *IntegrityError.
func Validate(g models.Graph) error {
	var problems []string

	seen := make(map[string]bool, len(g.Nodes))

	for i, n := range g.Nodes {
		switch {
		case n.ID == "":
			problems = append(problems, fmt.Sprintf("node at index %d has no id", i))
		case seen[n.ID]:
			problems = append(problems, fmt.Sprintf("duplicate node id %q", n.ID))
		default:
			seen[n.ID] = true
		}
	}

	for i, c := range g.Connections {
		if !seen[c.Source] {
			problems = append(problems, fmt.Sprintf("connection %d (%s) has unknown source %q", i, c.ID, c.Source))
		}

		if !seen[c.Target] {
			problems = append(problems, fmt.Sprintf("connection %d (%s) has unknown target %q", i, c.ID, c.Target))
		}
	}

	if len(problems) > 0 {
		return &IntegrityError{Problems: problems}
	}

	return nil
}

// ExecutionOrder returns node ids in topological order. Ties are broken by the
// position of the node in g.Nodes so the result is deterministic. A cyclic
// graph yields ErrCycle.
func ExecutionOrder(g models.Graph) ([]string, error) {
	if err := Validate(g); err != nil {
		return nil, err
	}

	dag := dgraph.New(dgraph.StringHash, dgraph.Directed())
	position := make(map[string]int, len(g.Nodes))

	for i, n := range g.Nodes {
		position[n.ID] = i

		if err := dag.AddVertex(n.ID); err != nil {
			return nil, fmt.Errorf("add vertex %s: %w", n.ID, err)
		}
	}

	for _, c := range g.Connections {
		if c.Source == c.Target {
			return nil, fmt.Errorf("node %s connects to itself: %w", c.Source, ErrCycle)
		}

		err := dag.AddEdge(c.Source, c.Target)
		if err != nil && !errors.Is(err, dgraph.ErrEdgeAlreadyExists) {
			return nil, fmt.Errorf("add edge %s -> %s: %w", c.Source, c.Target, err)
		}
	}

	order, err := dgraph.StableTopologicalSort(dag, func(a, b string) bool {
		return position[a] < position[b]
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, err)
	}

	return order, nil
}

// HasCycle reports whether the connections of g form a cycle.
func HasCycle(g models.Graph) bool {
	_, err := ExecutionOrder(g)

	return errors.Is(err, ErrCycle)
}
