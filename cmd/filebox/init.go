package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filebox/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Rebuild the file index from storage",
	Long: `Scan the storage backend and rebuild the index so that it lists
exactly the stored files. Each file is indexed with its modification time
as the upload time. Index entries without a stored file are dropped.

This is useful when:
  - Setting up filebox over an existing directory or bucket
  - Recovering the index after database loss
  - Repairing files left unindexed by a failed upload`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	service, closeService, err := openService(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer closeService()

	slog.Info("scanning storage", "type", cfg.Storage.Type)

	indexed, err := service.Populate(ctx)
	if err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	slog.Info("initialization complete", "files_indexed", indexed)
	return nil
}
