// Package models defines the core domain models for node-based workflow editing
package models

import "time"

// Workflow is the persisted form of a workflow exchanged with the backend.
type Workflow struct {
	ID          string `json:"id"`
	Name        string `json:"name"        validate:"required,min=1"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	Graph
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Graph is the canonical, backend-neutral representation of a workflow: nodes
// plus directed connections between them.
type Graph struct {
	Nodes       []Node       `json:"nodes"       validate:"dive"`
	Connections []Connection `json:"connections" validate:"dive"`
}

// Position is a 2D canvas coordinate. It only matters for rendering.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a single step in a workflow graph.
type Node struct {
	ID       string   `json:"id"       validate:"required"`
	Type     string   `json:"type"     validate:"required"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// NodeData holds the configuration and the denormalized display metadata
// persisted with a node.
type NodeData struct {
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Icon        string         `json:"icon,omitempty"`
	Color       string         `json:"color,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

// Connection is a directed edge from one node's output to another's input.
type Connection struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// SameEndpoints reports whether two connections link the same handles.
func (c Connection) SameEndpoints(other Connection) bool {
	return c.Source == other.Source &&
		c.Target == other.Target &&
		c.SourceHandle == other.SourceHandle &&
		c.TargetHandle == other.TargetHandle
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}

	return Node{}, false
}

// HasNode reports whether a node with the given id exists.
func (g Graph) HasNode(id string) bool {
	_, ok := g.Node(id)

	return ok
}

// Clone returns a deep copy of the graph. Node configs are copied so the
// clone can be mutated without touching the original.
func (g Graph) Clone() Graph {
	clone := Graph{
		Nodes:       make([]Node, len(g.Nodes)),
		Connections: make([]Connection, len(g.Connections)),
	}

	for i, n := range g.Nodes {
		clone.Nodes[i] = n.Clone()
	}

	copy(clone.Connections, g.Connections)

	return clone
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	n.Data.Config = CloneConfig(n.Data.Config)

	return n
}
