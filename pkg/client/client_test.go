package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukex/flowcanvas/pkg/gallery"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(srv.URL+"/", append([]Option{WithHTTPClient(srv.Client())}, opts...)...)
}

func TestClient_GetWorkflow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/workflows/wf-1", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"wf-1","name":"Test","nodes":[{"id":"a","type":"webhook","position":{"x":1,"y":2},"data":{"label":"A"}}],"connections":[]}`)
	}, WithToken("secret"))

	wf, err := c.GetWorkflow(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Test", wf.Name)
	require.Len(t, wf.Nodes, 1)
	assert.Equal(t, "A", wf.Nodes[0].Data.Label)
	assert.InDelta(t, 2.0, wf.Nodes[0].Position.Y, 0)
}

func TestClient_SaveWorkflowSendsGraph(t *testing.T) {
	var got map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/workflows/wf-1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = io.WriteString(w, `{"id":"wf-1","name":"Renamed"}`)
	})

	saved, err := c.SaveWorkflow(context.Background(), &models.Workflow{ID: "wf-1", Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", saved.Name)

	assert.Equal(t, "Renamed", got["name"])
	assert.Equal(t, []any{}, got["nodes"])
	assert.Equal(t, []any{}, got["connections"])
	assert.NotContains(t, got, "id")
}

func TestClient_ExecuteWorkflow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/executions/wf-1/execute", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"k":"v"}`, string(body))

		_, _ = io.WriteString(w, `{"id":"ex-1","workflowId":"wf-1","status":"running","startedAt":"2024-01-01T00:00:00Z"}`)
	})

	ex, err := c.ExecuteWorkflow(context.Background(), "wf-1", map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, "ex-1", ex.ID)
	assert.Equal(t, models.ExecutionStatusRunning, ex.Status)
}

func TestClient_ListNodeTemplates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nodes", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":"email","name":"Email","properties":[{"name":"toEmail","type":"string","required":true}]}]`)
	})

	templates, err := c.ListNodeTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "email", templates[0].ID)
	assert.True(t, templates[0].Properties[0].Required)
}

func TestClient_UploadFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/upload", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))

		file, header, err := r.FormFile(UploadField)
		require.NoError(t, err)
		defer file.Close()

		content, _ := io.ReadAll(file)
		assert.Equal(t, "name,email\n", string(content))
		assert.Equal(t, "users.csv", header.Filename)

		_, _ = io.WriteString(w, `{"_id":"f-1","filename":"users.csv","mimetype":"text/csv","size":11}`)
	})

	info, err := c.UploadFile(context.Background(), "users.csv", strings.NewReader("name,email\n"))
	require.NoError(t, err)
	assert.Equal(t, "f-1", info.ID)
	assert.Equal(t, "text/csv", info.MimeType)
	assert.Equal(t, int64(11), info.Size)
}

func TestClient_Files(t *testing.T) {
	var deleted string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/files", r.URL.Path)
			_, _ = io.WriteString(w, `[{"_id":"f-2","filename":"b.csv","size":3},{"_id":"f-1","filename":"a.csv","size":1}]`)
		case http.MethodDelete:
			deleted = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	files, err := c.ListFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "f-2", files[0].ID)

	require.NoError(t, c.DeleteFile(context.Background(), "f 1"))
	assert.Equal(t, "/files/f 1", deleted)
}

func TestClient_ListNodeCategories(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nodes/categories", r.URL.Path)
		_, _ = io.WriteString(w, `[{"name":"AI","count":2,"types":["aiChat","aiTextGeneration"]}]`)
	})

	categories, err := c.ListNodeCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.NodeCategory{{Name: "AI", Count: 2, Types: []string{"aiChat", "aiTextGeneration"}}}, categories)
}

func TestClient_Templates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/templates":
			assert.Equal(t, "ai", r.URL.Query().Get("category"))
			assert.Equal(t, "email reply", r.URL.Query().Get("search"))
			assert.False(t, r.URL.Query().Has("difficulty"))

			_, _ = io.WriteString(w, `{"templates":[{"id":"t-1","name":"Reply","category":"ai","difficulty":"advanced","tags":["ai"]}],"total":1,"categories":[{"id":"all","name":"All Templates","icon":"📋","count":4}]}`)
		case r.Method == http.MethodGet && r.URL.Path == "/templates/t-1":
			_, _ = io.WriteString(w, `{"id":"t-1","name":"Reply","nodes":[{"id":"a","type":"webhook"}],"connections":[]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/templates/t-1/use":
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"name":"Mine"}`, string(body))

			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":"wf-9","name":"Mine","nodes":[{"id":"a","type":"webhook"}],"connections":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"type":"template_not_found","status":404,"detail":"workflow template not found"}`)
		}
	})

	listing, err := c.ListTemplates(context.Background(), gallery.Filter{Category: "ai", Search: "email reply"})
	require.NoError(t, err)
	assert.Equal(t, 1, listing.Total)
	assert.Equal(t, models.DifficultyAdvanced, listing.Templates[0].Difficulty)
	assert.Equal(t, 4, listing.Categories[0].Count)

	tmpl, err := c.GetTemplate(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Len(t, tmpl.Nodes, 1)

	wf, err := c.UseTemplate(context.Background(), "t-1", "Mine")
	require.NoError(t, err)
	assert.Equal(t, "wf-9", wf.ID)

	_, err = c.UseTemplate(context.Background(), "missing", "")
	assert.True(t, IsNotFound(err))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "use_template", te.Op)
}

func TestClient_ProblemDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"type":"not_found","title":"Not Found","status":404,"detail":"workflow not found"}`)
	})

	_, err := c.GetWorkflow(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "workflow not found", te.Detail)
	assert.Equal(t, "get_workflow", te.Op)
	assert.Contains(t, err.Error(), "workflow not found")
}

func TestClient_PlainErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.ListWorkflows(context.Background())

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "boom", te.Detail)
	assert.False(t, IsNotFound(err))
}

func TestClient_NoRetryOnFailure(t *testing.T) {
	calls := 0

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++

		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.GetExecution(context.Background(), "ex-1")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.ListWorkflows(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Zero(t, StatusCode(err))
}

func TestClient_UnreachableBackend(t *testing.T) {
	c := New("http://127.0.0.1:1")

	_, err := c.ListWorkflows(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_BaseURLTrimmed(t *testing.T) {
	assert.Equal(t, "http://api.local", New("http://api.local///").BaseURL())
}
