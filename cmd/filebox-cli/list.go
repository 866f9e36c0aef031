package main

import (
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List files on the server",
	Long: `List every file on the server, most recent upload first.

Examples:
  filebox-cli list
  filebox-cli list -q | grep '\.pdf$'
  filebox-cli list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	client, err := getClient(true)
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context())
	if err != nil {
		return reportError(err)
	}

	return getFormatter().FormatList(os.Stdout, result)
}
