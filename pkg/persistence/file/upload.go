package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
)

const filesDir = "files"

// FileRepository stores uploads as a metadata document next to the raw
// content.
type FileRepository struct {
	root string
}

// NewFileRepository creates a new file repository.
func NewFileRepository(root string) *FileRepository {
	return &FileRepository{root: root}
}

// Save writes content before metadata, so a listed file always has content.
func (fr *FileRepository) Save(_ context.Context, info *models.FileInfo, content []byte) error {
	if err := validateID(info.ID); err != nil {
		return persistence.NewFileError("Save", info.ID, err)
	}

	if err := writeAtomic(recordPath(fr.root, filesDir, info.ID, ".bin"), content); err != nil {
		return persistence.NewFileError("Save", info.ID, err)
	}

	if err := writeJSON(recordPath(fr.root, filesDir, info.ID, ".json"), info); err != nil {
		return persistence.NewFileError("Save", info.ID, err)
	}

	return nil
}

// GetByID returns the metadata of an upload.
func (fr *FileRepository) GetByID(_ context.Context, id string) (*models.FileInfo, error) {
	if err := validateID(id); err != nil {
		return nil, persistence.NewFileError("GetByID", id, persistence.ErrFileNotFound)
	}

	var info models.FileInfo

	err := readJSON(recordPath(fr.root, filesDir, id, ".json"), &info)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewFileError("GetByID", id, persistence.ErrFileNotFound)
	}

	if err != nil {
		return nil, persistence.NewFileError("GetByID", id, err)
	}

	return &info, nil
}

// Content returns the raw bytes of an upload.
func (fr *FileRepository) Content(_ context.Context, id string) ([]byte, error) {
	if err := validateID(id); err != nil {
		return nil, persistence.NewFileError("Content", id, persistence.ErrFileNotFound)
	}

	content, err := os.ReadFile(filepath.Clean(recordPath(fr.root, filesDir, id, ".bin")))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewFileError("Content", id, persistence.ErrFileNotFound)
	}

	if err != nil {
		return nil, persistence.NewFileError("Content", id, err)
	}

	return content, nil
}

// List reads every metadata document. Records removed while listing are
// skipped.
func (fr *FileRepository) List(ctx context.Context) ([]*models.FileInfo, error) {
	names, err := fs.Glob(os.DirFS(filepath.Join(fr.root, filesDir)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list upload files: %w", err)
	}

	files := make([]*models.FileInfo, 0, len(names))

	for _, name := range names {
		info, err := fr.GetByID(ctx, strings.TrimSuffix(name, ".json"))
		if persistence.IsFileNotFound(err) {
			continue
		}

		if err != nil {
			return nil, err
		}

		files = append(files, info)
	}

	persistence.SortFiles(files)

	return files, nil
}

// Delete removes metadata before content, the reverse of Save.
func (fr *FileRepository) Delete(_ context.Context, id string) error {
	if err := validateID(id); err != nil {
		return persistence.NewFileError("Delete", id, persistence.ErrFileNotFound)
	}

	err := os.Remove(recordPath(fr.root, filesDir, id, ".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewFileError("Delete", id, persistence.ErrFileNotFound)
	}

	if err != nil {
		return persistence.NewFileError("Delete", id, err)
	}

	err = os.Remove(recordPath(fr.root, filesDir, id, ".bin"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return persistence.NewFileError("Delete", id, err)
	}

	return nil
}
