// Package file provides file-based persistence: one JSON document per record
// under a root directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/flowcanvas/pkg/persistence"
)

var errInvalidID = errors.New("id contains invalid characters")

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root          string
	workflowRepo  *WorkflowRepository
	executionRepo *ExecutionRepository
	fileRepo      *FileRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		workflowRepo:  NewWorkflowRepository(cleanRoot),
		executionRepo: NewExecutionRepository(cleanRoot),
		fileRepo:      NewFileRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return fp.executionRepo
}

func (fp *Persistence) FileRepository() persistence.FileRepository {
	return fp.fileRepo
}

// validateID rejects ids that could escape the collection directory.
func validateID(id string) error {
	if id == "" || strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", errInvalidID, id)
	}

	return nil
}

func recordPath(root, collection, id, ext string) string {
	return filepath.Join(root, collection, id+ext)
}

// readJSON decodes a record. It returns os.ErrNotExist when absent.
func readJSON(path string, v any) error {
	body, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	return writeAtomic(path, data)
}

// writeAtomic replaces path so readers never observe a partial record.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
