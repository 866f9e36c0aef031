// Package clientcli provides a client library for interacting with filebox servers.
//
// It supports health, list, upload, download and delete operations, plus a
// two-way Sync that reconciles a local directory with the server by filename
// presence. Every request carries the API key in the X-API-KEY header.
// The package includes profile-based configuration for managing connections to multiple servers.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	cfg := &clientcli.Config{
//		Endpoint: "http://localhost:8000",
//		APIKey:   "your-api-key",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./report.pdf",
//	})
//
// # Sync
//
// Sync lists the server once, uploads every local file the server lacks and
// then downloads every server file missing locally. Files present on both
// sides are never transferred, whatever their content:
//
//	report, err := client.Sync(ctx, clientcli.SyncOptions{
//		Dir:         "./shared",
//		Ignore:      []string{"*.tmp"},
//		Concurrency: 4,
//	})
//	if err != nil {
//		log.Fatal(err) // listing failed, nothing was transferred
//	}
//	if report.HasFailures() {
//		// individual transfers failed; the rest completed
//	}
//
// # Profile Configuration
//
// Resolve merges the profile file, FILEBOX_* environment variables and
// explicit overrides:
//
//	cfg, err := clientcli.Resolve("", "production", &clientcli.Config{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatSync(os.Stdout, report)
package clientcli
