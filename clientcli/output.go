package clientcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatSync(w io.Writer, report *SyncReport) error
	FormatHealth(w io.Writer, endpoint string, result *HealthResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
	// Now is used for relative times. Defaults to time.Now.
	Now func() time.Time
}

func (f *HumanFormatter) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// FormatUpload formats upload results as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Uploaded: %s (%s)\n", r.Filename, formatSize(r.Size))
		}
	}
	return nil
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if !f.Quiet {
		if result.LocalPath == "-" {
			_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", result.Filename, formatSize(result.Size))
		} else {
			_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.Filename, result.LocalPath, formatSize(result.Size))
		}
	}
	return nil
}

// FormatDelete formats delete results as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %s\n", r.Filename, describeError(r.Err))
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Deleted: %s\n", r.Filename)
		}
	}
	return nil
}

// FormatList formats list results as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if len(result.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No files found")
		return nil
	}

	if f.Quiet {
		for i := range result.Items {
			_, _ = fmt.Fprintln(w, result.Items[i].Filename)
		}
		return nil
	}

	// Calculate column widths
	maxNameLen := 8 // "FILENAME"
	for i := range result.Items {
		if len(result.Items[i].Filename) > maxNameLen {
			maxNameLen = len(result.Items[i].Filename)
		}
	}
	if maxNameLen > 60 {
		maxNameLen = 60
	}

	now := f.now()

	_, _ = fmt.Fprintf(w, "%-*s  %-19s  %s\n", maxNameLen, "FILENAME", "UPLOADED", "AGE")
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", 19), strings.Repeat("-", 14))

	for i := range result.Items {
		item := &result.Items[i]
		name := item.Filename
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%-*s  %-19s  %s\n",
			maxNameLen,
			name,
			item.UploadedAt.Local().Format("2006-01-02 15:04:05"),
			humanize.RelTime(item.UploadedAt, now, "ago", "from now"),
		)
	}

	_, _ = fmt.Fprintf(w, "\n%s file(s)\n", humanize.Comma(int64(len(result.Items))))
	return nil
}

// FormatSync formats a sync report as human-readable text.
func (f *HumanFormatter) FormatSync(w io.Writer, report *SyncReport) error {
	verbUp, verbDown := "Uploaded", "Downloaded"
	if report.DryRun {
		verbUp, verbDown = "Would upload", "Would download"
	}

	var bytesMoved int64
	for _, pass := range []struct {
		verb    string
		results []TransferResult
	}{
		{verbUp, report.Uploaded},
		{verbDown, report.Downloaded},
	} {
		for _, t := range pass.results {
			switch {
			case t.IsWarning():
				_, _ = fmt.Fprintf(w, "Warning: %s - removed from server during sync\n", t.Filename)
			case t.Err != nil:
				_, _ = fmt.Fprintf(w, "Error: %s %s - %s\n", t.Direction, t.Filename, describeError(t.Err))
			case !f.Quiet:
				bytesMoved += t.Size
				if report.DryRun {
					_, _ = fmt.Fprintf(w, "%s: %s\n", pass.verb, t.Filename)
				} else {
					_, _ = fmt.Fprintf(w, "%s: %s (%s)\n", pass.verb, t.Filename, formatSize(t.Size))
				}
			}
		}
	}

	if f.Quiet {
		return nil
	}

	_, _ = fmt.Fprintf(w, "\n%d uploaded, %d downloaded, %d already in sync, %d failed",
		countOK(report.Uploaded), countOK(report.Downloaded), len(report.InSync), len(report.Failures()))
	if !report.DryRun {
		_, _ = fmt.Fprintf(w, " (%s transferred)", formatSize(bytesMoved))
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

// FormatHealth formats a health check result as human-readable text.
func (f *HumanFormatter) FormatHealth(w io.Writer, endpoint string, result *HealthResult) error {
	_, _ = fmt.Fprintf(w, "%s: %s\n", endpoint, result.Status)
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %s\n", describeError(err))
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats upload results as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	// Convert errors to strings for JSON output
	type jsonResult struct {
		LocalPath string `json:"local_path"`
		Filename  string `json:"filename,omitempty"`
		Size      int64  `json:"size"`
		Error     string `json:"error,omitempty"`
	}

	output := make([]jsonResult, len(results))
	for i := range results {
		r := &results[i]
		jr := jsonResult{
			LocalPath: r.LocalPath,
			Filename:  r.Filename,
			Size:      r.Size,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output[i] = jr
	}

	return writeJSON(w, output)
}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatDelete formats delete results as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	// Convert errors to strings for JSON output
	type jsonResult struct {
		Filename string `json:"filename"`
		Deleted  bool   `json:"deleted"`
		Error    string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{
			Filename: r.Filename,
			Deleted:  r.Deleted,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

// FormatList formats list results as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	return writeJSON(w, result)
}

// FormatSync formats a sync report as JSON.
func (f *JSONFormatter) FormatSync(w io.Writer, report *SyncReport) error {
	type jsonTransfer struct {
		Filename string `json:"filename"`
		Size     int64  `json:"size"`
		Error    string `json:"error,omitempty"`
		Warning  bool   `json:"warning,omitempty"`
	}

	convert := func(results []TransferResult) []jsonTransfer {
		out := make([]jsonTransfer, len(results))
		for i, t := range results {
			out[i] = jsonTransfer{Filename: t.Filename, Size: t.Size, Warning: t.IsWarning()}
			if t.Err != nil {
				out[i].Error = t.Err.Error()
			}
		}
		return out
	}

	inSync := report.InSync
	if inSync == nil {
		inSync = []string{}
	}

	output := struct {
		DryRun     bool           `json:"dry_run"`
		Uploaded   []jsonTransfer `json:"uploaded"`
		Downloaded []jsonTransfer `json:"downloaded"`
		InSync     []string       `json:"in_sync"`
	}{
		DryRun:     report.DryRun,
		Uploaded:   convert(report.Uploaded),
		Downloaded: convert(report.Downloaded),
		InSync:     inSync,
	}

	return writeJSON(w, output)
}

// FormatHealth formats a health check result as JSON.
func (f *JSONFormatter) FormatHealth(w io.Writer, endpoint string, result *HealthResult) error {
	output := struct {
		Endpoint string `json:"endpoint"`
		Status   string `json:"status"`
	}{
		Endpoint: endpoint,
		Status:   result.Status,
	}
	return writeJSON(w, output)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	if bytes < 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(bytes))
}

func countOK(results []TransferResult) int {
	n := 0
	for _, t := range results {
		if t.Err == nil {
			n++
		}
	}
	return n
}

// describeError turns well-known failures into a short message.
func describeError(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrUnauthorized):
		return "invalid API key"
	case errors.Is(err, ErrConnectionFailure):
		return "cannot reach server: " + err.Error()
	default:
		return err.Error()
	}
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	// Calculate column widths
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
		if len(profiles[i].Endpoint) > maxEndpointLen {
			maxEndpointLen = len(profiles[i].Endpoint)
		}
	}
	if maxNameLen > 20 {
		maxNameLen = 20
	}
	if maxEndpointLen > 50 {
		maxEndpointLen = 50
	}

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "API KEY")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen), strings.Repeat("-", 20))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		endpoint := p.Endpoint
		if len(endpoint) > maxEndpointLen {
			endpoint = endpoint[:maxEndpointLen-3] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n", marker, maxNameLen, name, maxEndpointLen, endpoint, maskSecret(p.APIKey, showSecrets))
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:     %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint: %s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(w, "API Key:  %s\n", maskSecret(profile.APIKey, showSecrets))
	return nil
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		APIKey   string `json:"api_key,omitempty"`
		Default  bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		output.Profiles[i] = jsonProfile{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			APIKey:   maskSecret(p.APIKey, showSecrets),
			Default:  p.Name == defaultName,
		}
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	output := struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		APIKey   string `json:"api_key"`
		Default  bool   `json:"default"`
	}{
		Name:     profile.Name,
		Endpoint: profile.Endpoint,
		APIKey:   maskSecret(profile.APIKey, showSecrets),
		Default:  isDefault,
	}

	return writeJSON(w, output)
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
