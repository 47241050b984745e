package postgresql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
)

// FileRepository keeps uploads in the files table, content included.
type FileRepository struct {
	db *sql.DB
}

// NewFileRepository creates a new file repository.
func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Save inserts or replaces an upload.
func (r *FileRepository) Save(ctx context.Context, info *models.FileInfo, content []byte) error {
	if content == nil {
		content = []byte{}
	}

	query := `
		INSERT INTO files (id, filename, mimetype, size, uploaded_at, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			mimetype = EXCLUDED.mimetype,
			size = EXCLUDED.size,
			uploaded_at = EXCLUDED.uploaded_at,
			content = EXCLUDED.content
	`

	_, err := r.db.ExecContext(ctx, query, info.ID, info.Filename, info.MimeType, info.Size, info.UploadedAt, content)
	if err != nil {
		return persistence.NewFileError("Save", info.ID, err)
	}

	return nil
}

// GetByID returns the metadata of an upload.
func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.FileInfo, error) {
	var info models.FileInfo

	err := r.db.QueryRowContext(ctx,
		`SELECT id, filename, mimetype, size, uploaded_at FROM files WHERE id = $1`, id,
	).Scan(&info.ID, &info.Filename, &info.MimeType, &info.Size, &info.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewFileError("GetByID", id, persistence.ErrFileNotFound)
	}

	if err != nil {
		return nil, persistence.NewFileError("GetByID", id, err)
	}

	return &info, nil
}

// Content returns the raw bytes of an upload.
func (r *FileRepository) Content(ctx context.Context, id string) ([]byte, error) {
	var content []byte

	err := r.db.QueryRowContext(ctx, `SELECT content FROM files WHERE id = $1`, id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewFileError("Content", id, persistence.ErrFileNotFound)
	}

	if err != nil {
		return nil, persistence.NewFileError("Content", id, err)
	}

	return content, nil
}

// List returns upload metadata without content.
func (r *FileRepository) List(ctx context.Context) ([]*models.FileInfo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, filename, mimetype, size, uploaded_at FROM files ORDER BY uploaded_at DESC, id`)
	if err != nil {
		return nil, persistence.NewFileError("List", "", err)
	}
	defer rows.Close()

	files := make([]*models.FileInfo, 0)

	for rows.Next() {
		var info models.FileInfo
		if err := rows.Scan(&info.ID, &info.Filename, &info.MimeType, &info.Size, &info.UploadedAt); err != nil {
			return nil, persistence.NewFileError("List", "", err)
		}

		files = append(files, &info)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewFileError("List", "", err)
	}

	return files, nil
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return persistence.NewFileError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewFileError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewFileError("Delete", id, persistence.ErrFileNotFound)
	}

	return nil
}
