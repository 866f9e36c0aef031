package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filebox/clientcli"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <filename> [filename...]",
	Aliases: []string{"rm"},
	Short:   "Delete files from the server",
	Long: `Delete one or more files from the server. Every name is attempted
even when an earlier one fails.

Examples:
  filebox-cli delete report.pdf
  filebox-cli delete a.txt b.txt c.txt
  filebox-cli delete -q temp.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient(true)
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{
		Filenames: args,
	})
	if err != nil {
		return reportError(err)
	}

	if err := getFormatter().FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
