package clientcli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/sagarc03/filebox"
)

// Sync reconciles Dir with the server by presence only. Files present on
// one side and missing on the other are copied across. Files present on
// both sides are left alone whatever their content.
//
// Uploads run before downloads. Every transfer is independent: a failed
// transfer is recorded in the report and never stops the others. The
// returned error is reserved for failures that prevent planning, such as
// an unreadable Dir, a bad ignore pattern, or a failed listing.
func (c *Client) Sync(ctx context.Context, opts SyncOptions) (*SyncReport, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("sync: %w", ErrEmptyPath)
	}

	info, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sync %s: %w", opts.Dir, ErrNotDirectory)
	}

	ignore, err := compileIgnore(opts.Ignore)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	remote, err := c.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	local, err := localFiles(opts.Dir, ignore)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	plan := planSync(local, remote.Names())

	report := &SyncReport{
		InSync: plan.inSync,
		DryRun: opts.DryRun,
	}

	// Names that cannot become a local path, or whose local path is taken by
	// something other than a regular file, fail without a request.
	var rejected []TransferResult
	for _, name := range plan.unsafe {
		slog.Warn("skipping remote file with unsupported name", "filename", name)
		rejected = append(rejected, TransferResult{
			Filename:  name,
			Direction: DirectionDownload,
			Err:       fmt.Errorf("download %q: %w", name, ErrUnsafeFilename),
		})
	}
	for _, name := range plan.conflict {
		rejected = append(rejected, TransferResult{
			Filename:  name,
			Direction: DirectionDownload,
			Err:       fmt.Errorf("download %s: %w", name, ErrLocalNotRegular),
		})
	}

	if opts.DryRun {
		report.Uploaded = plannedResults(plan.upload, DirectionUpload)
		report.Downloaded = append(plannedResults(plan.download, DirectionDownload), rejected...)
		return report, nil
	}

	report.Uploaded = runTransfers(ctx, plan.upload, opts.Concurrency, func(ctx context.Context, name string) TransferResult {
		result, err := c.Upload(ctx, UploadOptions{
			LocalPath: filepath.Join(opts.Dir, name),
			Filename:  name,
		})
		return TransferResult{Filename: name, Direction: DirectionUpload, Size: result.Size, Err: err}
	})

	report.Downloaded = runTransfers(ctx, plan.download, opts.Concurrency, func(ctx context.Context, name string) TransferResult {
		result, _, err := c.Download(ctx, DownloadOptions{
			Filename:  name,
			LocalPath: filepath.Join(opts.Dir, name),
		})
		t := TransferResult{Filename: name, Direction: DirectionDownload, Err: err}
		if err == nil {
			t.Size = result.Size
		}
		if t.IsWarning() {
			slog.Warn("file removed from server during sync", "filename", name)
		}
		return t
	})
	report.Downloaded = append(report.Downloaded, rejected...)

	return report, nil
}

type syncPlan struct {
	upload   []string
	download []string
	inSync   []string
	// unsafe holds remote names that are not valid filenames.
	unsafe []string
	// conflict holds remote-only names whose local path holds something
	// other than a regular file.
	conflict []string
}

// localDir is what a sync run sees of the local directory.
type localDir struct {
	// files are the names that take part in sync.
	files []string
	// occupied are names that exist locally but do not take part: ignored
	// names and names of non-regular entries. The value tells whether the
	// entry is a regular file.
	occupied map[string]bool
}

// planSync splits names into presence classes. Each list is sorted so runs
// are reproducible. A remote name that exists locally but does not take
// part in sync is never downloaded, so nothing local is overwritten.
func planSync(local localDir, remote []string) syncPlan {
	remoteSet := make(map[string]struct{}, len(remote))
	for _, name := range remote {
		remoteSet[name] = struct{}{}
	}
	localSet := make(map[string]struct{}, len(local.files))
	for _, name := range local.files {
		localSet[name] = struct{}{}
	}

	var plan syncPlan
	for name := range localSet {
		if _, ok := remoteSet[name]; ok {
			plan.inSync = append(plan.inSync, name)
		} else {
			plan.upload = append(plan.upload, name)
		}
	}
	for name := range remoteSet {
		if _, ok := localSet[name]; ok {
			continue
		}
		if !filebox.IsValidFilename(name) {
			plan.unsafe = append(plan.unsafe, name)
			continue
		}
		if regular, ok := local.occupied[name]; ok {
			if !regular {
				plan.conflict = append(plan.conflict, name)
			}
			continue
		}
		plan.download = append(plan.download, name)
	}

	slices.Sort(plan.upload)
	slices.Sort(plan.download)
	slices.Sort(plan.inSync)
	slices.Sort(plan.unsafe)
	slices.Sort(plan.conflict)
	return plan
}

// localFiles reads the entries directly inside dir. Regular files and
// symlinks to regular files take part in sync. Directories, other symlinks,
// partial downloads, ignored names and names the server would reject do
// not.
func localFiles(dir string, ignore []glob.Glob) (localDir, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return localDir{}, fmt.Errorf("read dir: %w", err)
	}

	local := localDir{
		files:    make([]string, 0, len(entries)),
		occupied: make(map[string]bool),
	}
	for _, entry := range entries {
		name := entry.Name()

		regular := entry.Type().IsRegular()
		if entry.Type()&os.ModeSymlink != 0 {
			// Follows the link; a broken link counts as non-regular.
			if info, statErr := os.Stat(filepath.Join(dir, name)); statErr == nil {
				regular = info.Mode().IsRegular()
			}
		}

		if !regular {
			local.occupied[name] = false
			continue
		}
		if strings.HasPrefix(name, tmpPrefix) && strings.HasSuffix(name, tmpSuffix) {
			continue
		}
		if matchesAny(ignore, name) {
			slog.Debug("ignoring local file", "filename", name)
			local.occupied[name] = true
			continue
		}
		if !filebox.IsValidFilename(name) {
			slog.Warn("skipping local file with unsupported name", "filename", name)
			continue
		}

		local.files = append(local.files, name)
	}

	return local, nil
}

func compileIgnore(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchesAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func plannedResults(names []string, direction Direction) []TransferResult {
	results := make([]TransferResult, len(names))
	for i, name := range names {
		results[i] = TransferResult{Filename: name, Direction: direction}
	}
	return results
}

// runTransfers runs fn for every name with at most concurrency calls in
// flight. Results keep the order of names. fn reports failures through its
// result, so one failure never cancels the rest of the pass.
func runTransfers(ctx context.Context, names []string, concurrency int, fn func(context.Context, string) TransferResult) []TransferResult {
	results := make([]TransferResult, len(names))
	if len(names) == 0 {
		return results
	}

	if concurrency < 1 {
		concurrency = 1
	}

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, name := range names {
		g.Go(func() error {
			results[i] = fn(ctx, name)
			return nil
		})
	}

	_ = g.Wait()
	return results
}
