package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/filebox/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "c.txt"), []byte("c"), 0o600))

	t.Run("single file", func(t *testing.T) {
		entries, err := collectFiles(filepath.Join(dir, "a.txt"))
		require.NoError(t, err)
		assert.Equal(t, []fileEntry{{sourcePath: filepath.Join(dir, "a.txt"), filename: "a.txt"}}, entries)
	})

	t.Run("directory is flat", func(t *testing.T) {
		entries, err := collectFiles(dir)
		require.NoError(t, err)

		var names []string
		for _, e := range entries {
			names = append(names, e.filename)
		}
		assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, names)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := collectFiles(filepath.Join(dir, "nope"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestOpenService_Filesystem(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Database.Type = "sqlite"
	cfg.Database.DSN = filepath.Join(dir, "index.db")
	cfg.Database.Tables.MetaData = "filebox_files"
	cfg.Storage.Type = "filesystem"
	cfg.Storage.Path = filepath.Join(dir, "uploads")

	t.Run("missing directory without create", func(t *testing.T) {
		_, _, err := openService(t.Context(), cfg, false)
		assert.ErrorContains(t, err, "storage directory does not exist")
	})

	t.Run("create and populate", func(t *testing.T) {
		service, closeService, err := openService(t.Context(), cfg, true)
		require.NoError(t, err)
		defer closeService()

		require.NoError(t, os.WriteFile(filepath.Join(cfg.Storage.Path, "seed.txt"), []byte("seed"), 0o600))

		indexed, err := service.Populate(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, indexed)

		records, err := service.List(t.Context())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "seed.txt", records[0].Filename)
	})
}
