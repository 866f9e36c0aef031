package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/sagarc03/filebox"
	"github.com/sagarc03/filebox/config"
)

var removeCmd = &cobra.Command{
	Use:   "remove [flags] <filename> ...",
	Short: "Remove files from filebox storage",
	Long: `Delete files from storage and from the index, exactly as a
DELETE request would.

Examples:
  # Remove a single file
  filebox remove report.pdf

  # Remove multiple files
  filebox remove a.txt b.txt c.txt

  # Remove every indexed file matching a pattern
  filebox remove --match '*.log'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var (
	removeMatch bool
	removeQuiet bool
)

func init() {
	removeCmd.Flags().BoolVarP(&removeMatch, "match", "m", false, "treat arguments as glob patterns matched against the index")
	removeCmd.Flags().BoolVarP(&removeQuiet, "quiet", "q", false, "suppress per-file output")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
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

	filenames := args
	if removeMatch {
		filenames, err = matchIndexed(ctx, service, args)
		if err != nil {
			return err
		}
	}

	removed, notFound := 0, 0
	for _, filename := range filenames {
		deleteErr := service.Delete(ctx, filename)
		if errors.Is(deleteErr, filebox.ErrNotFound) {
			notFound++
			if !removeQuiet {
				slog.Warn("not found", "filename", filename)
			}
			continue
		}
		if deleteErr != nil {
			return fmt.Errorf("remove %s: %w", filename, deleteErr)
		}
		removed++
		if !removeQuiet {
			slog.Info("removed", "filename", filename)
		}
	}

	slog.Info("remove complete", "removed", removed, "not_found", notFound)
	return nil
}

// matchIndexed returns the indexed filenames matching any of patterns.
func matchIndexed(ctx context.Context, service *filebox.FileService, patterns []string) ([]string, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}

	records, err := service.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list index: %w", err)
	}

	var matched []string
	for _, record := range records {
		for _, g := range globs {
			if g.Match(record.Filename) {
				matched = append(matched, record.Filename)
				break
			}
		}
	}

	return matched, nil
}
