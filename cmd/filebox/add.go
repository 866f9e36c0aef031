package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filebox"
	"github.com/sagarc03/filebox/config"
)

var addCmd = &cobra.Command{
	Use:   "add [flags] <file-or-dir> ...",
	Short: "Import local files into filebox storage",
	Long: `Import files into filebox storage without going through the HTTP API.

Each file is stored under its base name and indexed with the current time,
exactly as an upload would. A directory argument imports the regular files
directly inside it; filebox names are flat so subdirectories are skipped.

Examples:
  # Add a single file
  filebox add /path/to/report.pdf

  # Add under a different name
  filebox add --name q3.pdf /path/to/report.pdf

  # Add every file in a directory, keeping existing ones
  filebox add --no-clobber /path/to/exports`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addName      string
	addNoClobber bool
	addQuiet     bool
)

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "store a single file under this name")
	addCmd.Flags().BoolVarP(&addNoClobber, "no-clobber", "n", false, "skip files that already exist instead of overwriting")
	addCmd.Flags().BoolVarP(&addQuiet, "quiet", "q", false, "suppress per-file output")
	rootCmd.AddCommand(addCmd)
}

// fileEntry is a local file and the name it will be stored under.
type fileEntry struct {
	sourcePath string
	filename   string
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	var files []fileEntry
	for _, arg := range args {
		entries, collectErr := collectFiles(arg)
		if collectErr != nil {
			return fmt.Errorf("collect files from %s: %w", arg, collectErr)
		}
		files = append(files, entries...)
	}

	if addName != "" {
		if len(files) != 1 {
			return errors.New("--name requires exactly one file")
		}
		files[0].filename = addName
	}

	if len(files) == 0 {
		slog.Info("no files to add")
		return nil
	}

	ctx := cmd.Context()

	service, closeService, err := openService(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer closeService()

	added, skipped := 0, 0
	for _, entry := range files {
		if !filebox.IsValidFilename(entry.filename) {
			skipped++
			slog.Warn("skipped (invalid name)", "path", entry.sourcePath, "filename", entry.filename)
			continue
		}

		if addNoClobber {
			if _, statErr := service.Stat(ctx, entry.filename); statErr == nil {
				skipped++
				if !addQuiet {
					slog.Info("skipped (exists)", "filename", entry.filename)
				}
				continue
			} else if !errors.Is(statErr, filebox.ErrNotFound) {
				return fmt.Errorf("add %s: %w", entry.filename, statErr)
			}
		}

		f, openErr := os.Open(entry.sourcePath)
		if openErr != nil {
			return fmt.Errorf("open %s: %w", entry.sourcePath, openErr)
		}

		result, uploadErr := service.Upload(ctx, entry.filename, f)
		_ = f.Close()

		if uploadErr != nil {
			return fmt.Errorf("add %s: %w", entry.filename, uploadErr)
		}

		added++
		if !addQuiet {
			slog.Info("added", "filename", result.Filename, "size", result.Size)
		}
	}

	slog.Info("add complete", "added", added, "skipped", skipped)
	return nil
}

// collectFiles expands path into the files to add. A regular file yields
// itself; a directory yields the regular files directly inside it.
func collectFiles(path string) ([]fileEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.Mode().IsRegular() {
		return []fileEntry{{sourcePath: path, filename: filepath.Base(path)}}, nil
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var entries []fileEntry
	for _, d := range dirEntries {
		if !d.Type().IsRegular() {
			continue
		}
		entries = append(entries, fileEntry{
			sourcePath: filepath.Join(path, d.Name()),
			filename:   d.Name(),
		})
	}

	return entries, nil
}
