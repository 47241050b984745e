package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukex/flowcanvas/pkg/eventbus"
	"github.com/dukex/flowcanvas/pkg/events"
	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DefaultMaxUploadSize bounds uploads when NewFile gets no limit.
const DefaultMaxUploadSize int64 = 10 << 20

// File stores uploads referenced by file-typed node properties.
type File struct {
	persistence persistence.Persistence
	bus         eventbus.EventPublisher
	logger      *slog.Logger
	maxSize     int64
}

// NewFile creates a new file service. maxSize <= 0 selects DefaultMaxUploadSize.
func NewFile(persistence persistence.Persistence, bus eventbus.EventPublisher, logger *slog.Logger, maxSize int64) *File {
	if bus == nil {
		bus = eventbus.Discard{}
	}

	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}

	return &File{
		persistence: persistence,
		bus:         bus,
		logger:      logger.With("module", "file_service"),
		maxSize:     maxSize,
	}
}

// MaxSize returns the largest accepted upload in bytes.
func (f *File) MaxSize() int64 {
	return f.maxSize
}

// Upload stores content under a new id. The MIME type is sniffed from the
// content, not taken from the client.
func (f *File) Upload(ctx context.Context, filename string, content []byte) (*models.FileInfo, error) {
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}

	if int64(len(content)) > f.maxSize {
		return nil, &ServiceError{
			Op:      "Upload",
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("file is %d bytes, limit is %d", len(content), f.maxSize),
			Err:     ErrFileTooLarge,
		}
	}

	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}

	detected := mimetype.Detect(content)
	mediaType, _, _ := strings.Cut(detected.String(), ";")

	info := &models.FileInfo{
		ID:         uuid.NewString(),
		Filename:   name,
		MimeType:   strings.TrimSpace(mediaType),
		Size:       int64(len(content)),
		UploadedAt: time.Now().UTC(),
	}

	if err := f.persistence.FileRepository().Save(ctx, info, content); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	f.logger.InfoContext(ctx, "File uploaded", "file_id", info.ID, "mimetype", info.MimeType, "size", info.Size)

	err := f.bus.Publish(ctx, info.ID, events.FileUploaded{
		BaseEvent: events.NewBaseEvent(events.FileUploadedEvent, ""),
		FileID:    info.ID,
		Filename:  info.Filename,
		MimeType:  info.MimeType,
		Size:      info.Size,
	})
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to publish event", "error", err)
	}

	return info, nil
}

// Get returns the metadata of an upload.
func (f *File) Get(ctx context.Context, id string) (*models.FileInfo, error) {
	return f.persistence.FileRepository().GetByID(ctx, id)
}

// Content returns an upload with its bytes.
func (f *File) Content(ctx context.Context, id string) (*models.FileInfo, []byte, error) {
	info, err := f.persistence.FileRepository().GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	content, err := f.persistence.FileRepository().Content(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return info, content, nil
}

// List returns the metadata of every upload, most recent first.
func (f *File) List(ctx context.Context) ([]*models.FileInfo, error) {
	files, err := f.persistence.FileRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}

	return files, nil
}

// Delete removes an upload and its content.
func (f *File) Delete(ctx context.Context, id string) error {
	if err := f.persistence.FileRepository().Delete(ctx, id); err != nil {
		return err
	}

	f.logger.InfoContext(ctx, "File deleted", "file_id", id)

	err := f.bus.Publish(ctx, id, events.FileDeleted{
		BaseEvent: events.NewBaseEvent(events.FileDeletedEvent, ""),
		FileID:    id,
	})
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to publish event", "error", err)
	}

	return nil
}
