package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sagarc03/filebox"
	"github.com/sagarc03/filebox/config"
	"github.com/sagarc03/filebox/database"
	"github.com/sagarc03/filebox/filesystem"
	"github.com/sagarc03/filebox/s3store"
)

// openStorage builds the blob store selected by cfg. When create is false a
// missing storage directory is an error instead of being created.
func openStorage(ctx context.Context, cfg config.StorageConfig, create bool) (filebox.FileStorage, func(), error) {
	switch cfg.Type {
	case "s3":
		store, err := s3store.New(cfg.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("open s3 storage: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, nil, fmt.Errorf("open s3 storage: %w", err)
		}
		slog.Info("using s3 storage", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket)
		return store, func() {}, nil

	case "filesystem":
		if create {
			if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
				return nil, nil, fmt.Errorf("create storage directory: %w", err)
			}
		} else if _, err := os.Stat(cfg.Path); os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("storage directory does not exist: %s", cfg.Path)
		}

		root, err := os.OpenRoot(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage root: %w", err)
		}
		slog.Info("using filesystem storage", "path", cfg.Path)
		return filesystem.NewFileStorage(root), func() { _ = root.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// openService connects the metadata index and the blob store and composes
// them into a FileService. The returned func closes both.
func openService(ctx context.Context, cfg *config.Config, createStorage bool) (*filebox.FileService, func(), error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	slog.Info("connected to database", "type", cfg.Database.Type)

	storage, closeStorage, err := openStorage(ctx, cfg.Storage, createStorage)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	closeAll := func() {
		closeStorage()
		if err := db.Close(); err != nil {
			slog.Warn("failed to close database", "err", err)
		}
	}

	service, err := filebox.NewFileService(db.GetRepo(), storage, filebox.ServiceConfig{})
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("create service: %w", err)
	}

	return service, closeAll, nil
}
