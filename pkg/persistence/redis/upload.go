package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const (
	fileInfoField    = "info"
	fileContentField = "content"

	// fileIndexKey scores upload ids by upload time in milliseconds.
	fileIndexKey = keyPrefix + "files"
)

func fileKey(id string) string {
	return keyPrefix + "file:" + id
}

// FileRepository keeps each upload in a hash holding metadata and content.
type FileRepository struct {
	client redis.UniversalClient
}

func (r *FileRepository) Save(ctx context.Context, info *models.FileInfo, content []byte) error {
	data, err := json.Marshal(info)
	if err != nil {
		return persistence.NewFileError("Save", info.ID, fmt.Errorf("failed to marshal file info: %w", err))
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, fileKey(info.ID), fileInfoField, data, fileContentField, content)
		pipe.ZAdd(ctx, fileIndexKey, redis.Z{Score: float64(info.UploadedAt.UnixMilli()), Member: info.ID})

		return nil
	})
	if err != nil {
		return persistence.NewFileError("Save", info.ID, err)
	}

	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.FileInfo, error) {
	raw, err := r.field(ctx, "GetByID", id, fileInfoField)
	if err != nil {
		return nil, err
	}

	var info models.FileInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, persistence.NewFileError("GetByID", id, fmt.Errorf("failed to unmarshal file info: %w", err))
	}

	return &info, nil
}

func (r *FileRepository) Content(ctx context.Context, id string) ([]byte, error) {
	return r.field(ctx, "Content", id, fileContentField)
}

func (r *FileRepository) field(ctx context.Context, op, id, field string) ([]byte, error) {
	raw, err := r.client.HGet(ctx, fileKey(id), field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.NewFileError(op, id, persistence.ErrFileNotFound)
	}

	if err != nil {
		return nil, persistence.NewFileError(op, id, err)
	}

	return raw, nil
}

// List follows the upload index newest first and reads each info field in
// one pipeline.
func (r *FileRepository) List(ctx context.Context) ([]*models.FileInfo, error) {
	ids, err := r.client.ZRevRange(ctx, fileIndexKey, 0, -1).Result()
	if err != nil {
		return nil, persistence.NewFileError("List", "", err)
	}

	files := make([]*models.FileInfo, 0, len(ids))

	if len(ids) == 0 {
		return files, nil
	}

	cmds := make([]*redis.StringCmd, len(ids))

	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGet(ctx, fileKey(id), fileInfoField)
		}

		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, persistence.NewFileError("List", "", err)
	}

	for i, cmd := range cmds {
		raw, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			// indexed but gone
			continue
		}

		if err != nil {
			return nil, persistence.NewFileError("List", ids[i], err)
		}

		var info models.FileInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, persistence.NewFileError("List", ids[i], fmt.Errorf("failed to unmarshal file info: %w", err))
		}

		files = append(files, &info)
	}

	persistence.SortFiles(files)

	return files, nil
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	var deleted *redis.IntCmd

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, fileKey(id))
		pipe.ZRem(ctx, fileIndexKey, id)

		return nil
	})
	if err != nil {
		return persistence.NewFileError("Delete", id, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewFileError("Delete", id, persistence.ErrFileNotFound)
	}

	return nil
}
