package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	fp := NewPersistence("/tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)

	fp = NewPersistence("file:///tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_HealthCheck(t *testing.T) {
	assert.NoError(t, NewPersistence(t.TempDir()).HealthCheck(t.Context()))
	assert.ErrorIs(t, NewPersistence(filepath.Join(t.TempDir(), "missing")).HealthCheck(t.Context()), os.ErrNotExist)
	assert.NoError(t, NewPersistence("./test-data").Close(t.Context()))
}

func TestExecutionRepository(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.ExecutionRepository()
	ctx := t.Context()

	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"exec-1", "exec-2"} {
		require.NoError(t, repo.Save(ctx, &models.Execution{
			ID:         id,
			WorkflowID: "wf-1",
			Status:     models.ExecutionStatusWaiting,
			StartedAt:  started.Add(time.Duration(i) * time.Minute),
		}))
	}

	require.NoError(t, repo.Save(ctx, &models.Execution{ID: "exec-3", WorkflowID: "wf-2", StartedAt: started}))

	execution, err := repo.GetByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusWaiting, execution.Status)

	execution.Status = models.ExecutionStatusSuccess
	require.NoError(t, repo.Save(ctx, execution))

	execution, err = repo.GetByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)

	executions, err := repo.GetByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, executions, 2)
	assert.Equal(t, "exec-2", executions[0].ID)

	_, err = repo.GetByID(ctx, "nope")
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestFileRepository(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.FileRepository()
	ctx := t.Context()

	info := &models.FileInfo{ID: "f-1", Filename: "notes.txt", MimeType: "text/plain", Size: 5}
	require.NoError(t, repo.Save(ctx, info, []byte("hello")))

	got, err := repo.GetByID(ctx, "f-1")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", got.Filename)

	content, err := repo.Content(ctx, "f-1")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	_, err = repo.GetByID(ctx, "f-2")
	assert.True(t, persistence.IsFileNotFound(err))

	_, err = repo.Content(ctx, "../etc/passwd")
	assert.True(t, persistence.IsFileNotFound(err))

	assert.Error(t, repo.Save(ctx, &models.FileInfo{ID: "a/b"}, nil))
}

func TestFileRepository_ListAndDelete(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.FileRepository()
	ctx := t.Context()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	uploaded := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, &models.FileInfo{ID: "old", Filename: "a.txt", UploadedAt: uploaded}, []byte("a")))
	require.NoError(t, repo.Save(ctx, &models.FileInfo{ID: "new", Filename: "b.txt", UploadedAt: uploaded.Add(time.Hour)}, []byte("b")))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)

	require.NoError(t, repo.Delete(ctx, "old"))

	_, err = repo.Content(ctx, "old")
	assert.True(t, persistence.IsFileNotFound(err))
	assert.NoFileExists(t, filepath.Join(p.root, filesDir, "old.bin"))

	err = repo.Delete(ctx, "old")
	assert.True(t, persistence.IsFileNotFound(err))

	err = repo.Delete(ctx, "../new")
	assert.True(t, persistence.IsFileNotFound(err))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].ID)
}
