package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filebox/clientcli"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <filename> [local-path]",
	Short: "Download a file from the server",
	Long: `Download a file from the server. The file is written under a
temporary name and renamed into place, so an interrupted download never
leaves a partial file behind.

Examples:
  filebox-cli download report.pdf
  filebox-cli download report.pdf ./archive/report-q3.pdf
  filebox-cli download --stdout data.json | jq .
  filebox-cli download -o ./output.txt notes.txt`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	filename := args[0]

	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	client, err := getClient(true)
	if err != nil {
		return err
	}

	result, reader, err := client.Download(cmd.Context(), clientcli.DownloadOptions{
		Filename:  filename,
		LocalPath: localPath,
	})
	if err != nil {
		return reportError(err)
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		if _, err := io.Copy(os.Stdout, reader); err != nil {
			return err
		}
		// stdout carries the content, so metadata only goes out in JSON mode
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
