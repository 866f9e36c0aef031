package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filebox/clientcli"
)

var uploadName string

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [local-path...]",
	Short: "Upload files to the server",
	Long: `Upload one or more files. Each file is stored under its base name
unless --name is given; an existing file with the same name is replaced.

Examples:
  filebox-cli upload ./report.pdf
  filebox-cli upload --name q3.pdf ./report.pdf
  filebox-cli upload ./exports/*.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "store a single file under this name")
}

func runUpload(cmd *cobra.Command, args []string) error {
	if uploadName != "" && len(args) != 1 {
		return errors.New("--name requires exactly one file")
	}

	client, err := getClient(true)
	if err != nil {
		return err
	}

	results := make([]clientcli.UploadResult, 0, len(args))
	failed := false
	for _, localPath := range args {
		result, uploadErr := client.Upload(cmd.Context(), clientcli.UploadOptions{
			LocalPath: localPath,
			Filename:  uploadName,
		})
		if uploadErr != nil {
			result = clientcli.UploadResult{LocalPath: localPath, Err: uploadErr}
			failed = true
		}
		results = append(results, result)
	}

	if err := getFormatter().FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	if failed {
		return &exitError{code: 1}
	}
	return nil
}
