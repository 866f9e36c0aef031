package main

import (
	"os"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is up",
	Long: `Call GET /health on the server. No API key is needed.

Examples:
  filebox-cli health
  filebox-cli health --endpoint https://files.example.com`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func runHealth(cmd *cobra.Command, _ []string) error {
	client, err := getClient(false)
	if err != nil {
		return err
	}

	result, err := client.Health(cmd.Context())
	if err != nil {
		return reportError(err)
	}

	return getFormatter().FormatHealth(os.Stdout, client.Endpoint(), result)
}
