// Package session holds one user's editing session of a workflow: the graph
// with its undo history, the save state against the backend and execution of
// the saved workflow.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/flowcanvas/pkg/editor"
	"github.com/dukex/flowcanvas/pkg/eventbus"
	"github.com/dukex/flowcanvas/pkg/events"
	"github.com/dukex/flowcanvas/pkg/graph"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
	"github.com/dukex/flowcanvas/pkg/suggest"
	"github.com/dukex/flowcanvas/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/dukex/flowcanvas/pkg/session"

var (
	// ErrUnknownNodeType indicates a node type absent from the catalog.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrEmptyName indicates a workflow name is blank.
	ErrEmptyName = errors.New("workflow name is required")
)

// Backend is the part of the workflow API a session needs.
type Backend interface {
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error)
	ExecuteWorkflow(ctx context.Context, workflowID string, input any) (*models.Execution, error)
	GetExecution(ctx context.Context, id string) (*models.Execution, error)
}

// Session edits a single workflow. It is safe for concurrent use.
type Session struct {
	backend   Backend
	catalog   models.TemplateCatalog
	bus       eventbus.EventPublisher
	logger    *slog.Logger
	tracer    trace.Tracer
	validator *validation.Validator
	now       func() time.Time
	depth     int

	mu       sync.Mutex
	meta     models.Workflow
	history  *graph.History
	revision uint64
	save     saveStatus

	saves singleflight.Group
}

// Option configures a Session.
type Option func(*Session)

func WithEventBus(bus eventbus.EventPublisher) Option {
	return func(s *Session) {
		s.bus = bus
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Session) {
		s.tracer = tracer
	}
}

// WithHistoryDepth bounds the undo stack.
func WithHistoryDepth(depth int) Option {
	return func(s *Session) {
		s.depth = depth
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New starts a session on an already loaded workflow. The session begins
// clean.
func New(workflow *models.Workflow, backend Backend, catalog models.TemplateCatalog, opts ...Option) *Session {
	s := &Session{
		backend:   backend,
		catalog:   catalog,
		bus:       eventbus.Discard{},
		logger:    slog.Default(),
		tracer:    otelhelper.Tracer(tracerName),
		validator: validation.New(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("module", "session", "workflow_id", workflow.ID)
	s.meta = *workflow
	s.meta.Graph = models.Graph{}
	s.history = graph.NewHistory(workflow.Graph, s.depth)
	s.save = saveStatus{state: StateClean}

	return s
}

// Open fetches a workflow from the backend and starts a session on it.
func Open(ctx context.Context, backend Backend, catalog models.TemplateCatalog, workflowID string, opts ...Option) (*Session, error) {
	workflow, err := backend.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("open workflow %s: %w", workflowID, err)
	}

	if workflow.ID == "" {
		workflow.ID = workflowID
	}

	s := New(workflow, backend, catalog, opts...)

	s.logger.InfoContext(ctx, "Workflow opened",
		"name", workflow.Name,
		"nodes", len(workflow.Nodes),
		"connections", len(workflow.Connections))

	s.publish(ctx, events.WorkflowLoaded{
		BaseEvent:   events.NewBaseEvent(events.WorkflowLoadedEvent, workflow.ID),
		Name:        workflow.Name,
		Nodes:       len(workflow.Nodes),
		Connections: len(workflow.Connections),
	})

	return s, nil
}

// ID returns the workflow id.
func (s *Session) ID() string {
	return s.meta.ID
}

// Workflow returns a snapshot of the workflow with the current graph.
func (s *Session) Workflow() *models.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

func (s *Session) snapshot() *models.Workflow {
	w := s.meta
	w.Graph = s.history.Graph()

	return &w
}

// Graph returns a copy of the current graph.
func (s *Session) Graph() models.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.history.Graph()
}

// Catalog returns the template catalog of the session.
func (s *Session) Catalog() models.TemplateCatalog {
	return s.catalog
}

// EditorModel returns the canvas model with validation badges.
func (s *Session) EditorModel() ([]editor.Node, []editor.Edge) {
	return editor.ToEditorModel(s.Graph(), s.catalog, editor.WithValidation(
		func(tmpl *models.NodeTemplate, config map[string]any) map[string]string {
			return s.validator.ValidateConfig(tmpl, config)
		}))
}

// Apply runs cmd against the graph. A failing command leaves the graph
// untouched.
func (s *Session) Apply(ctx context.Context, cmd graph.Command) error {
	_, span := otelhelper.StartSpan(ctx, s.tracer, "session.apply",
		attribute.String(otelhelper.WorkflowIDKey, s.meta.ID),
		attribute.String(otelhelper.CommandKey, cmd.Name()))
	defer span.End()

	s.mu.Lock()
	err := s.history.Do(cmd)
	if err == nil {
		s.touch()
	}
	g := s.history.Graph()
	s.mu.Unlock()
	s.flush(ctx)

	if err != nil {
		otelhelper.SetError(span, err)
		s.logger.DebugContext(ctx, "Command rejected", "command", cmd.Name(), "error", err)

		return err
	}

	s.changed(ctx, cmd.Name(), "apply", g)

	return nil
}

// AddNode instantiates a template. A nil position places the node at random.
func (s *Session) AddNode(ctx context.Context, nodeType string, position *models.Position) (models.Node, error) {
	tmpl, ok := s.template(nodeType)
	if !ok {
		return models.Node{}, fmt.Errorf("%w: %s", ErrUnknownNodeType, nodeType)
	}

	node := graph.NewNode(tmpl, position)

	if err := s.Apply(ctx, &graph.AddNode{Node: node}); err != nil {
		return models.Node{}, err
	}

	return node, nil
}

// Configure replaces a node config after validating it against the node
// template. Invalid configs are returned as validation.Errors and not
// applied. Nodes of unknown type are stored unchecked.
func (s *Session) Configure(ctx context.Context, nodeID string, config map[string]any) error {
	node, ok := s.Graph().Node(nodeID)
	if !ok {
		return &graph.NodeError{Op: "configure", NodeID: nodeID, Err: graph.ErrNodeNotFound}
	}

	if tmpl, ok := s.template(node.Type); ok {
		if errs := s.validator.ValidateConfig(tmpl, config); len(errs) > 0 {
			return errs
		}
	}

	return s.Apply(ctx, &graph.ConfigureNode{NodeID: nodeID, Config: config})
}

// Undo reverts the last command.
func (s *Session) Undo(ctx context.Context) error {
	return s.step(ctx, "undo", (*graph.History).Undo)
}

// Redo re-applies the last undone command.
func (s *Session) Redo(ctx context.Context) error {
	return s.step(ctx, "redo", (*graph.History).Redo)
}

func (s *Session) step(ctx context.Context, action string, fn func(*graph.History) error) error {
	s.mu.Lock()
	err := fn(s.history)
	if err == nil {
		s.touch()
	}
	g := s.history.Graph()
	s.mu.Unlock()
	s.flush(ctx)

	if err != nil {
		return err
	}

	s.changed(ctx, action, action, g)

	return nil
}

// CanUndo reports whether Undo would succeed.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.history.CanUndo()
}

// CanRedo reports whether Redo would succeed.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.history.CanRedo()
}

// Rename changes the workflow name and description. It is not part of the
// undo history.
func (s *Session) Rename(ctx context.Context, name, description string) error {
	if name == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	s.meta.Name = name
	s.meta.Description = description
	s.touch()
	s.mu.Unlock()
	s.flush(ctx)

	s.logger.DebugContext(ctx, "Workflow renamed", "name", name)

	return nil
}

// ValidateNode checks a node config against its template and lists
// expression references to nodes that are not upstream. Unknown node types
// have no errors.
func (s *Session) ValidateNode(nodeID string) (validation.Errors, []validation.Warning, error) {
	g := s.Graph()

	node, ok := g.Node(nodeID)
	if !ok {
		return nil, nil, &graph.NodeError{Op: "validate", NodeID: nodeID, Err: graph.ErrNodeNotFound}
	}

	var errs validation.Errors
	if tmpl, ok := s.template(node.Type); ok {
		errs = s.validator.ValidateConfig(tmpl, node.Data.Config)
	}

	return errs, validation.CheckReferences(g, nodeID, node.Data.Config), nil
}

// Validate checks the whole workflow.
func (s *Session) Validate() error {
	return s.validator.ValidateGraph(s.Graph(), s.catalog)
}

// Suggest lists the variables offered while editing property of nodeID.
func (s *Session) Suggest(nodeID, property string) []suggest.Group {
	return suggest.Suggest(s.Graph(), nodeID, property, s.catalog)
}

// Preview resolves text against sample upstream data.
func (s *Session) Preview(nodeID, text string) (any, error) {
	return suggest.Preview(s.Graph(), nodeID, text, s.catalog)
}

// ExecutionOrder returns the node ids in the order a run visits them.
func (s *Session) ExecutionOrder() ([]string, error) {
	return graph.ExecutionOrder(s.Graph())
}

func (s *Session) template(nodeType string) (*models.NodeTemplate, bool) {
	if s.catalog == nil {
		return nil, false
	}

	return s.catalog.Template(nodeType)
}

// touch marks local state as changed. Callers hold s.mu and call flush once
// unlocked.
func (s *Session) touch() {
	s.revision++
	s.transition(StateDirty, nil)
}

func (s *Session) changed(ctx context.Context, command, action string, g models.Graph) {
	s.publish(ctx, events.GraphChanged{
		BaseEvent:   events.NewBaseEvent(events.GraphChangedEvent, s.meta.ID),
		Command:     command,
		Action:      action,
		Nodes:       len(g.Nodes),
		Connections: len(g.Connections),
	})
}

func (s *Session) publish(ctx context.Context, event eventbus.Event) {
	if err := s.bus.Publish(ctx, s.meta.ID, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", "type", event.GetType(), "error", err)
	}
}
