// Package client talks to the workflow backend: workflow persistence,
// execution, the node template catalog, the template gallery and file uploads.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukex/flowcanvas/pkg/gallery"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout = 30 * time.Second
	tracerName     = "github.com/dukex/flowcanvas/pkg/client"

	// UploadField is the multipart field holding an uploaded file.
	UploadField = "file"
)

// Client is a backend API client. Calls are never retried.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	tracer     trace.Tracer
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tracer: otelhelper.Tracer(tracerName),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("module", "client")

	return c
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WorkflowPayload is the body of PUT /workflows/:id.
type WorkflowPayload struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Nodes       []models.Node       `json:"nodes"`
	Connections []models.Connection `json:"connections"`
}

// NewWorkflowPayload builds the save body of a workflow.
func NewWorkflowPayload(w *models.Workflow) WorkflowPayload {
	p := WorkflowPayload{
		Name:        w.Name,
		Description: w.Description,
		Nodes:       w.Nodes,
		Connections: w.Connections,
	}

	if p.Nodes == nil {
		p.Nodes = []models.Node{}
	}

	if p.Connections == nil {
		p.Connections = []models.Connection{}
	}

	return p
}

// ListWorkflows fetches every workflow.
func (c *Client) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	var out []models.Workflow

	err := c.do(ctx, "list_workflows", http.MethodGet, "/workflows", nil, &out)

	return out, err
}

// GetWorkflow fetches one workflow.
func (c *Client) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	var out models.Workflow

	if err := c.do(ctx, "get_workflow", http.MethodGet, "/workflows/"+url.PathEscape(id), nil, &out,
		attribute.String(otelhelper.WorkflowIDKey, id)); err != nil {
		return nil, err
	}

	return &out, nil
}

// SaveWorkflow stores the workflow graph and returns the stored version.
func (c *Client) SaveWorkflow(ctx context.Context, w *models.Workflow) (*models.Workflow, error) {
	var out models.Workflow

	if err := c.do(ctx, "save_workflow", http.MethodPut, "/workflows/"+url.PathEscape(w.ID), NewWorkflowPayload(w), &out,
		attribute.String(otelhelper.WorkflowIDKey, w.ID)); err != nil {
		return nil, err
	}

	return &out, nil
}

// ExecuteWorkflow starts a run of the workflow with an arbitrary input.
func (c *Client) ExecuteWorkflow(ctx context.Context, workflowID string, input any) (*models.Execution, error) {
	var out models.Execution

	if input == nil {
		input = map[string]any{}
	}

	if err := c.do(ctx, "execute_workflow", http.MethodPost, "/executions/"+url.PathEscape(workflowID)+"/execute", input, &out,
		attribute.String(otelhelper.WorkflowIDKey, workflowID)); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetExecution fetches the status and results of a run.
func (c *Client) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	var out models.Execution

	if err := c.do(ctx, "get_execution", http.MethodGet, "/executions/"+url.PathEscape(id), nil, &out,
		attribute.String(otelhelper.ExecutionIDKey, id)); err != nil {
		return nil, err
	}

	return &out, nil
}

// ListNodeTemplates fetches the node template catalog.
func (c *Client) ListNodeTemplates(ctx context.Context) ([]*models.NodeTemplate, error) {
	var out []*models.NodeTemplate

	err := c.do(ctx, "list_node_templates", http.MethodGet, "/nodes", nil, &out)

	return out, err
}

// UploadFile sends a file as multipart form data and returns its stored
// description. The returned ID is what file-typed properties hold.
func (c *Client) UploadFile(ctx context.Context, filename string, content io.Reader) (*models.FileInfo, error) {
	var body bytes.Buffer

	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile(UploadField, filename)
	if err != nil {
		return nil, c.fail("upload_file", http.MethodPost, "/files/upload", err)
	}

	if _, err := io.Copy(part, content); err != nil {
		return nil, c.fail("upload_file", http.MethodPost, "/files/upload", err)
	}

	if err := form.Close(); err != nil {
		return nil, c.fail("upload_file", http.MethodPost, "/files/upload", err)
	}

	var out models.FileInfo

	if err := c.send(ctx, "upload_file", http.MethodPost, "/files/upload", &body, form.FormDataContentType(), &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ListNodeCategories fetches the palette categories with their node types.
func (c *Client) ListNodeCategories(ctx context.Context) ([]models.NodeCategory, error) {
	var out []models.NodeCategory

	err := c.do(ctx, "list_node_categories", http.MethodGet, "/nodes/categories", nil, &out)

	return out, err
}

// ListFiles fetches the description of every upload, most recent first.
func (c *Client) ListFiles(ctx context.Context) ([]models.FileInfo, error) {
	var out []models.FileInfo

	err := c.do(ctx, "list_files", http.MethodGet, "/files", nil, &out)

	return out, err
}

// DeleteFile removes an upload.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	return c.do(ctx, "delete_file", http.MethodDelete, "/files/"+url.PathEscape(id), nil, nil,
		attribute.String(otelhelper.FileIDKey, id))
}

// ListTemplates fetches the workflow template gallery narrowed by filter.
func (c *Client) ListTemplates(ctx context.Context, filter gallery.Filter) (*gallery.Listing, error) {
	query := url.Values{}

	for key, value := range map[string]string{
		"category":   filter.Category,
		"difficulty": filter.Difficulty,
		"search":     filter.Search,
	} {
		if value != "" {
			query.Set(key, value)
		}
	}

	path := "/templates"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out gallery.Listing

	if err := c.do(ctx, "list_templates", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetTemplate fetches one workflow template.
func (c *Client) GetTemplate(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	var out models.WorkflowTemplate

	if err := c.do(ctx, "get_template", http.MethodGet, "/templates/"+url.PathEscape(id), nil, &out,
		attribute.String(otelhelper.TemplateIDKey, id)); err != nil {
		return nil, err
	}

	return &out, nil
}

// UseTemplate creates a workflow from a template. An empty name keeps the
// template name.
func (c *Client) UseTemplate(ctx context.Context, id, name string) (*models.Workflow, error) {
	var out models.Workflow

	if err := c.do(ctx, "use_template", http.MethodPost, "/templates/"+url.PathEscape(id)+"/use",
		map[string]string{"name": name}, &out,
		attribute.String(otelhelper.TemplateIDKey, id)); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any, attrs ...attribute.KeyValue) error {
	var (
		body        io.Reader
		contentType string
	)

	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return c.fail(op, method, path, fmt.Errorf("encode request: %w", err))
		}

		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	return c.send(ctx, op, method, path, body, contentType, out, attrs...)
}

func (c *Client) send(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any, attrs ...attribute.KeyValue) error {
	target := c.baseURL + path

	attrs = append(attrs, attribute.String(otelhelper.HTTPMethodKey, method), attribute.String(otelhelper.HTTPURLKey, target))

	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client."+op, attrs...)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return c.traceFail(span, &TransportError{Op: op, Method: method, URL: target, Err: err})
	}

	req.Header.Set("Accept", "application/json")

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.traceFail(span, &TransportError{Op: op, Method: method, URL: target, Err: err})
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int(otelhelper.HTTPStatusKey, resp.StatusCode))

	c.logger.DebugContext(ctx, "Backend call",
		"op", op, "method", method, "url", target,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.traceFail(span, &TransportError{
			Op: op, Method: method, URL: target,
			StatusCode: resp.StatusCode,
			Detail:     problemDetail(resp.Body),
		})
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.traceFail(span, &TransportError{
			Op: op, Method: method, URL: target, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("decode response: %w", err),
		})
	}

	return nil
}

func (c *Client) fail(op, method, path string, err error) error {
	return &TransportError{Op: op, Method: method, URL: c.baseURL + path, Err: err}
}

func (c *Client) traceFail(span trace.Span, err *TransportError) error {
	otelhelper.SetError(span, err)
	c.logger.Warn("Backend call failed", "op", err.Op, "url", err.URL, "status", err.StatusCode, "error", err)

	return err
}

// problemDetail extracts a human readable message from an error body, which
// is usually an RFC 7807 problem document.
func problemDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var problem struct {
		Title   string `json:"title"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	if json.Unmarshal(raw, &problem) == nil {
		for _, s := range []string{problem.Detail, problem.Message, problem.Error, problem.Title} {
			if s != "" {
				return s
			}
		}
	}

	return strings.TrimSpace(string(raw))
}
