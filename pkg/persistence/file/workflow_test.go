package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/dukex/flowcanvas/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowRepository_SaveAndGet(t *testing.T) {
	testDir := t.TempDir()
	repo := NewWorkflowRepository(testDir)
	ctx := t.Context()

	workflow := testutil.CreateTestWorkflow(testutil.WithWorkflowID("wf-1"))
	workflow.Graph = testutil.Chain("a", "b")

	require.NoError(t, repo.Save(ctx, workflow))
	assert.FileExists(t, filepath.Join(testDir, "workflows", "wf-1.json"))
	assert.False(t, workflow.CreatedAt.IsZero())

	created := workflow.CreatedAt

	time.Sleep(time.Millisecond)
	require.NoError(t, repo.Save(ctx, workflow))
	assert.Equal(t, created, workflow.CreatedAt)
	assert.True(t, workflow.UpdatedAt.After(created))

	got, err := repo.GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, got.Name)
	assert.Equal(t, workflow.Graph, got.Graph)
}

func TestWorkflowRepository_NotFound(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	ctx := t.Context()

	_, err := repo.GetByID(ctx, "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	assert.True(t, persistence.IsWorkflowNotFound(repo.Delete(ctx, "missing")))

	_, err = repo.GetByID(ctx, "../../secret")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_List(t *testing.T) {
	testDir := t.TempDir()
	repo := NewWorkflowRepository(testDir)
	ctx := t.Context()

	workflows, err := repo.List(ctx, persistence.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, workflows)

	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		w := testutil.CreateTestWorkflow(testutil.WithWorkflowID("wf-"+name), testutil.WithWorkflowName(name))
		require.NoError(t, repo.Save(ctx, w))
	}

	// stray files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(testDir, "workflows", "notes.txt"), []byte("x"), 0600))

	workflows, err = repo.List(ctx, persistence.ListOptions{SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, workflows, 3)
	assert.Equal(t, "Alpha", workflows[0].Name)
	assert.Equal(t, "Charlie", workflows[2].Name)

	_, err = repo.List(ctx, persistence.ListOptions{SortBy: "name; DROP TABLE workflows; --"})
	assert.True(t, persistence.IsInvalidSortField(err))

	require.NoError(t, repo.Delete(ctx, "wf-Alpha"))

	workflows, err = repo.List(ctx, persistence.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, workflows, 2)
}
