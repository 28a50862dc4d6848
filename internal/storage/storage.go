package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/types"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store persists the result of one run.
	Store(result *types.RunResult) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New builds the file backend named by cfg.Type, fanned out to MongoDB
// when it is enabled.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	file, err := NewFileStorage(cfg.Type, cfg.OutputPath, logger)
	if err != nil {
		return nil, err
	}
	if !cfg.MongoDB.Enabled {
		return file, nil
	}

	mongo, err := NewMongoStorage(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database, cfg.MongoDB.Collection, logger)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return NewMultiStorage([]Storage{file, mongo}, logger), nil
}

// NewFileStorage creates the file-based storage for storageType writing to
// outputPath.
func NewFileStorage(storageType, outputPath string, logger *slog.Logger) (Storage, error) {
	switch storageType {
	case "json":
		return NewJSONStorage(outputPath, logger), nil
	case "jsonl":
		return NewJSONLStorage(outputPath, logger), nil
	case "csv":
		return NewCSVStorage(outputPath, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

func storageErr(backend string, err error) error {
	if err == nil {
		return nil
	}
	return &types.StorageError{Backend: backend, Err: err}
}
