package graph

import "github.com/dukex/flowcanvas/pkg/models"

// Command is a discrete graph mutation. Apply must not modify its input.
type Command interface {
	Name() string
	Apply(g models.Graph) (models.Graph, error)
}

// AddNode inserts a node.
type AddNode struct {
	Node models.Node
}

func (c *AddNode) Name() string { return "add_node" }

func (c *AddNode) Apply(g models.Graph) (models.Graph, error) {
	return Insert(g, c.Node)
}

// DeleteNode removes a node and its connections.
type DeleteNode struct {
	NodeID string
}

func (c *DeleteNode) Name() string { return "delete_node" }

func (c *DeleteNode) Apply(g models.Graph) (models.Graph, error) {
	return Delete(g, c.NodeID)
}

// DuplicateNode copies an existing node. Created holds the copy once applied;
// re-applying the command (redo) inserts the same copy again.
type DuplicateNode struct {
	NodeID  string
	Created *models.Node
}

func (c *DuplicateNode) Name() string { return "duplicate_node" }

func (c *DuplicateNode) Apply(g models.Graph) (models.Graph, error) {
	if c.Created == nil {
		src, ok := g.Node(c.NodeID)
		if !ok {
			return g, nodeError("duplicate", c.NodeID, ErrNodeNotFound)
		}

		dup := Duplicate(src)
		c.Created = &dup
	}

	return Insert(g, *c.Created)
}

// ConnectNodes adds a connection.
type ConnectNodes struct {
	Connection models.Connection
}

func (c *ConnectNodes) Name() string { return "connect" }

func (c *ConnectNodes) Apply(g models.Graph) (models.Graph, error) {
	if c.Connection.ID == "" {
		c.Connection.ID = NewID()
	}

	return Connect(g, c.Connection)
}

// DisconnectNode removes every connection of a node. Removed holds the count.
type DisconnectNode struct {
	NodeID  string
	Removed int
}

func (c *DisconnectNode) Name() string { return "disconnect_node" }

func (c *DisconnectNode) Apply(g models.Graph) (models.Graph, error) {
	out, removed, err := Disconnect(g, c.NodeID)
	if err != nil {
		return g, err
	}

	c.Removed = removed

	return out, nil
}

// RemoveEdge removes a single connection by id.
type RemoveEdge struct {
	ConnectionID string
}

func (c *RemoveEdge) Name() string { return "remove_connection" }

func (c *RemoveEdge) Apply(g models.Graph) (models.Graph, error) {
	return RemoveConnection(g, c.ConnectionID)
}

// ConfigureNode replaces a node config.
type ConfigureNode struct {
	NodeID string
	Config map[string]any
}

func (c *ConfigureNode) Name() string { return "configure_node" }

func (c *ConfigureNode) Apply(g models.Graph) (models.Graph, error) {
	return Configure(g, c.NodeID, c.Config)
}

// MoveNode changes a node position.
type MoveNode struct {
	NodeID   string
	Position models.Position
}

func (c *MoveNode) Name() string { return "move_node" }

func (c *MoveNode) Apply(g models.Graph) (models.Graph, error) {
	return Move(g, c.NodeID, c.Position)
}

// RelabelNode changes a node label and description.
type RelabelNode struct {
	NodeID      string
	Label       string
	Description string
}

func (c *RelabelNode) Name() string { return "relabel_node" }

func (c *RelabelNode) Apply(g models.Graph) (models.Graph, error) {
	return Relabel(g, c.NodeID, c.Label, c.Description)
}

// ReplaceGraph swaps the whole graph, as done by an import.
type ReplaceGraph struct {
	Graph models.Graph
}

func (c *ReplaceGraph) Name() string { return "replace_graph" }

func (c *ReplaceGraph) Apply(models.Graph) (models.Graph, error) {
	return c.Graph.Clone(), nil
}
