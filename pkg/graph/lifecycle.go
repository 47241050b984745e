// Package graph implements the editing operations on a workflow graph. Every
// operation is pure: it returns a new graph and never mutates its input.
package graph

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/google/uuid"
)

// DuplicateOffset is the visual delta applied to a duplicated node.
var DuplicateOffset = models.Position{X: 50, Y: 50}

const copySuffix = " (Copy)"

// NewID returns a fresh node or connection id.
func NewID() string {
	return uuid.NewString()
}

// NewNode instantiates a template. Config is seeded from every property
// default; display metadata is copied from the template. A nil position is
// replaced with a random point on the canvas.
func NewNode(template *models.NodeTemplate, position *models.Position) models.Node {
	pos := randomPosition()
	if position != nil {
		pos = *position
	}

	return models.Node{
		ID:       NewID(),
		Type:     template.ID,
		Position: pos,
		Data: models.NodeData{
			Label:       template.Name,
			Description: template.Description,
			Icon:        template.Icon,
			Color:       template.Color,
			Config:      template.Defaults(),
		},
	}
}

func randomPosition() models.Position {
	return models.Position{
		X: 100 + rand.Float64()*400, //nolint:gosec // canvas placement only
		Y: 100 + rand.Float64()*300, //nolint:gosec // canvas placement only
	}
}

// Duplicate returns a copy of node with a new id, an offset position, a deep
// copied config and " (Copy)" appended to its label.
func Duplicate(node models.Node) models.Node {
	dup := node.Clone()
	dup.ID = NewID()
	dup.Position.X += DuplicateOffset.X
	dup.Position.Y += DuplicateOffset.Y
	dup.Data.Label = node.Data.Label + copySuffix

	return dup
}

// Insert appends node to the graph.
func Insert(g models.Graph, node models.Node) (models.Graph, error) {
	if g.HasNode(node.ID) {
		return g, nodeError("insert", node.ID, ErrDuplicateNode)
	}

	out := g.Clone()
	out.Nodes = append(out.Nodes, node.Clone())

	return out, nil
}

// Delete removes a node together with every connection touching it.
func Delete(g models.Graph, id string) (models.Graph, error) {
	if !g.HasNode(id) {
		return g, nodeError("delete", id, ErrNodeNotFound)
	}

	out := g.Clone()
	out.Nodes = slices.DeleteFunc(out.Nodes, func(n models.Node) bool { return n.ID == id })
	out.Connections = slices.DeleteFunc(out.Connections, func(c models.Connection) bool {
		return c.Source == id || c.Target == id
	})

	return out, nil
}

// Disconnect removes every connection touching the node and reports how many
// were removed. The node itself is kept.
func Disconnect(g models.Graph, id string) (models.Graph, int, error) {
	if !g.HasNode(id) {
		return g, 0, nodeError("disconnect", id, ErrNodeNotFound)
	}

	out := g.Clone()
	before := len(out.Connections)
	out.Connections = slices.DeleteFunc(out.Connections, func(c models.Connection) bool {
		return c.Source == id || c.Target == id
	})

	return out, before - len(out.Connections), nil
}

// Connect adds a connection between two existing nodes. A connection without
// an id gets a fresh one. Adding an edge that already links the same handles
// is a no-op.
func Connect(g models.Graph, conn models.Connection) (models.Graph, error) {
	if !g.HasNode(conn.Source) {
		return g, nodeError("connect", conn.Source, ErrNodeNotFound)
	}

	if !g.HasNode(conn.Target) {
		return g, nodeError("connect", conn.Target, ErrNodeNotFound)
	}

	if slices.ContainsFunc(g.Connections, conn.SameEndpoints) {
		return g, nil
	}

	if conn.ID == "" {
		conn.ID = NewID()
	}

	out := g.Clone()
	out.Connections = append(out.Connections, conn)

	return out, nil
}

// RemoveConnection removes the connection with the given id.
func RemoveConnection(g models.Graph, connectionID string) (models.Graph, error) {
	idx := slices.IndexFunc(g.Connections, func(c models.Connection) bool { return c.ID == connectionID })
	if idx < 0 {
		return g, fmt.Errorf("remove connection %s: %w", connectionID, ErrConnectionNotFound)
	}

	out := g.Clone()
	out.Connections = slices.Delete(out.Connections, idx, idx+1)

	return out, nil
}

// Configure replaces the node config with a deep copy of config.
func Configure(g models.Graph, id string, config map[string]any) (models.Graph, error) {
	return update(g, "configure", id, func(n *models.Node) {
		n.Data.Config = models.CloneConfig(config)
	})
}

// Move sets the canvas position of a node.
func Move(g models.Graph, id string, position models.Position) (models.Graph, error) {
	return update(g, "move", id, func(n *models.Node) {
		n.Position = position
	})
}

// Relabel sets the display label and description of a node.
func Relabel(g models.Graph, id, label, description string) (models.Graph, error) {
	return update(g, "relabel", id, func(n *models.Node) {
		n.Data.Label = label
		n.Data.Description = description
	})
}

func update(g models.Graph, op, id string, fn func(*models.Node)) (models.Graph, error) {
	idx := slices.IndexFunc(g.Nodes, func(n models.Node) bool { return n.ID == id })
	if idx < 0 {
		return g, nodeError(op, id, ErrNodeNotFound)
	}

	out := g.Clone()
	fn(&out.Nodes[idx])

	return out, nil
}
