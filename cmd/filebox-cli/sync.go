package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filebox/clientcli"
)

var (
	syncIgnore      []string
	syncConcurrency int
	syncDryRun      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [dir]",
	Short: "Sync a local directory with the server",
	Long: `Make a local directory and the server hold the same set of files.

Files only on the local side are uploaded, then files only on the server are
downloaded. Files present on both sides are never transferred, even when
their content differs. Subdirectories and symlinks are skipped.

A failed transfer does not stop the others; the command exits non-zero when
any transfer failed. A file deleted on the server while the sync runs is
reported as a warning.

Examples:
  filebox-cli sync
  filebox-cli sync ./shared --ignore '*.tmp' --ignore '.DS_Store'
  filebox-cli sync ./shared --concurrency 8
  filebox-cli sync ./shared --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringArrayVarP(&syncIgnore, "ignore", "i", nil, "glob pattern of local names to leave alone (repeatable)")
	syncCmd.Flags().IntVarP(&syncConcurrency, "concurrency", "j", 4, "transfers to run at once")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "show what would be transferred without doing it")
}

func runSync(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	client, err := getClient(true)
	if err != nil {
		return err
	}

	report, err := client.Sync(cmd.Context(), clientcli.SyncOptions{
		Dir:         dir,
		Ignore:      syncIgnore,
		Concurrency: syncConcurrency,
		DryRun:      syncDryRun,
	})
	if err != nil {
		return reportError(err)
	}

	if err := getFormatter().FormatSync(os.Stdout, report); err != nil {
		return err
	}

	if report.HasFailures() {
		return &exitError{code: 1}
	}
	return nil
}
