// Package transfer reads and writes the standalone workflow document users
// export to and import from local files.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dukex/flowcanvas/pkg/editor"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
)

// Version is written to every exported document.
const Version = "1.0"

// ErrMalformedImport indicates an import document was rejected.
var ErrMalformedImport = errors.New("malformed import")

// MalformedImportError explains why a document could not be imported.
type MalformedImportError struct {
	Reason string
	Err    error
}

func (e *MalformedImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid workflow file: %s: %v", e.Reason, e.Err)
	}

	return "invalid workflow file: " + e.Reason
}

func (e *MalformedImportError) Unwrap() error {
	return e.Err
}

func (e *MalformedImportError) Is(target error) bool {
	return target == ErrMalformedImport
}

// Document is the exported form of a workflow.
type Document struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Nodes       []editor.Node `json:"nodes"`
	Edges       []editor.Edge `json:"edges"`
	ExportedAt  time.Time     `json:"exportedAt"`
	Version     string        `json:"version"`
}

// Export builds the document of a workflow graph.
func Export(name, description string, g models.Graph, catalog models.TemplateCatalog, now time.Time) Document {
	nodes, edges := editor.ToEditorModel(g, catalog)

	if nodes == nil {
		nodes = []editor.Node{}
	}

	if edges == nil {
		edges = []editor.Edge{}
	}

	return Document{
		Name:        name,
		Description: description,
		Nodes:       nodes,
		Edges:       edges,
		ExportedAt:  now.UTC(),
		Version:     Version,
	}
}

// Write encodes doc as indented JSON.
func Write(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(doc)
}

// Imported is the result of a successful import.
type Imported struct {
	Name        string
	Description string
	Graph       models.Graph
}

// Import decodes a document. Both nodes and edges must be present and the
// resulting graph must be structurally sound; nothing is returned otherwise.
// Nodes may be either canvas nodes or canonical nodes.
func Import(data []byte) (*Imported, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedImportError{Reason: "not a JSON object", Err: err}
	}

	rawNodes, ok := raw["nodes"]
	if !ok || isNull(rawNodes) {
		return nil, &MalformedImportError{Reason: "missing nodes"}
	}

	rawEdges, ok := raw["edges"]
	if !ok || isNull(rawEdges) {
		return nil, &MalformedImportError{Reason: "missing edges"}
	}

	var nodeList []json.RawMessage
	if err := json.Unmarshal(rawNodes, &nodeList); err != nil {
		return nil, &MalformedImportError{Reason: "nodes must be a list", Err: err}
	}

	edges, err := decodeEdges(rawEdges)
	if err != nil {
		return nil, &MalformedImportError{Reason: "edges must be a list of connections", Err: err}
	}

	canvas := make([]editor.Node, 0, len(nodeList))

	for i, item := range nodeList {
		n, err := decodeNode(item)
		if err != nil {
			return nil, &MalformedImportError{Reason: fmt.Sprintf("node %d", i), Err: err}
		}

		canvas = append(canvas, n)
	}

	g := editor.ToCanonicalModel(canvas, edges)
	if err := graph.Validate(g); err != nil {
		return nil, &MalformedImportError{Reason: "broken graph", Err: err}
	}

	out := &Imported{Graph: g}

	for key, target := range map[string]*string{"name": &out.Name, "description": &out.Description} {
		if v, ok := raw[key]; ok {
			_ = json.Unmarshal(v, target)
		}
	}

	return out, nil
}

// Read is Import over a reader.
func Read(r io.Reader) (*Imported, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return Import(data)
}

func decodeNode(raw json.RawMessage) (editor.Node, error) {
	var n editor.Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return editor.Node{}, err
	}

	if n.Data.NodeType != "" {
		return n, nil
	}

	var canonical models.Node
	if err := json.Unmarshal(raw, &canonical); err != nil {
		return editor.Node{}, err
	}

	if canonical.Type == "" || canonical.Type == editor.NodeRenderer {
		return editor.Node{}, errors.New("node type is missing")
	}

	return editor.Node{
		ID:       canonical.ID,
		Type:     editor.NodeRenderer,
		Position: canonical.Position,
		Data: editor.NodeData{
			NodeType:  canonical.Type,
			Persisted: canonical.Data,
		},
	}, nil
}

// decodeEdges keeps the persisted connection id of canvas edges. Edges
// without canvas data use their own id.
func decodeEdges(raw json.RawMessage) ([]editor.Edge, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	edges := make([]editor.Edge, 0, len(items))

	for _, item := range items {
		var e editor.Edge
		if err := json.Unmarshal(item, &e); err != nil {
			return nil, err
		}

		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(item, &envelope); err != nil {
			return nil, err
		}

		if len(envelope.Data) == 0 || isNull(envelope.Data) {
			e.Data.ConnectionID = e.ID
		}

		edges = append(edges, e)
	}

	return edges, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
