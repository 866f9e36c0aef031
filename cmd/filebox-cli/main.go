package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filebox/clientcli"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	apiKey     string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "filebox-cli",
	Version: version,
	Short:   "Client for the filebox file server",
	Long: `filebox-cli talks to a filebox server: upload, list, download and
delete files by name, or sync a local directory with the server.

Connection settings come from a profile in ~/.filebox/config.yaml, then
FILEBOX_ENDPOINT / FILEBOX_API_KEY, then the --endpoint / --api-key flags.
Later sources win.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.filebox/config.yaml, env: FILEBOX_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile to use (env: FILEBOX_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:8000, env: FILEBOX_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&apiKey, "api-key", "k", "", "API key (env: FILEBOX_API_KEY)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// buildConfig merges config from the profile file, env vars and flags
// (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	return clientcli.Resolve(cfgFile, profile, &clientcli.Config{
		Endpoint: endpoint,
		APIKey:   apiKey,
	})
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates a configured client. Every route except /health
// needs the API key, so requireKey is false only for health checks.
func getClient(requireKey bool) (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	if requireKey {
		if err := cfg.ValidateWithAuth(); err != nil {
			return nil, fmt.Errorf("%w (use --api-key, FILEBOX_API_KEY or 'filebox-cli configure add')", err)
		}
	}

	return clientcli.New(cfg)
}

// reportError prints err with the active formatter and returns an
// exitError so main exits non-zero without printing it twice.
func reportError(err error) error {
	_ = getFormatter().FormatError(os.Stderr, err)
	return &exitError{code: 1}
}

// exitError is returned when we want to exit with a specific code
// but don't want main to print an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
