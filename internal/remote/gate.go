package remote

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"csvimport/csv-import/internal/fileutils"
	"csvimport/csv-import/internal/logging"
	"csvimport/csv-import/internal/models"
)

// Suffixes of the marker protocol: X.csv is only picked up once X.csv.start
// exists next to it.
const (
	CSVSuffix    = ".csv"
	MarkerSuffix = ".start"
)

// Paths are the remote and local directories a Gate works with.
type Paths struct {
	CSVDir       string
	ProcessedDir string
	DownloadDir  string
	UploadDir    string
	BatchDir     string
}

// StagedFile is a remote file copied to the local download directory.
type StagedFile struct {
	Entry     string
	LocalPath string
}

// Remove deletes the local copy.
func (f StagedFile) Remove() error {
	return fileutils.RemoveIfExists(f.LocalPath)
}

// Gate decides which remote files are ready and moves them in and out.
type Gate struct {
	channel Channel
	paths   Paths
	logger  logging.Logger
}

// NewGate creates a Gate on top of channel.
func NewGate(channel Channel, paths Paths, logger logging.Logger) *Gate {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Gate{channel: channel, paths: paths, logger: logger}
}

// Paths returns the configured directories.
func (g *Gate) Paths() Paths { return g.paths }

// Prepare creates the local working directories.
func (g *Gate) Prepare() error {
	for _, dir := range []string{g.paths.DownloadDir, g.paths.UploadDir, g.paths.BatchDir} {
		if err := fileutils.EnsureDirectoryExists(dir); err != nil {
			return fmt.Errorf("prepare %s: %w", dir, err)
		}
	}
	return nil
}

// ListEligible returns, sorted by name, the CSV files whose start marker is
// present in the same listing.
func (g *Gate) ListEligible(ctx context.Context) ([]string, error) {
	names, err := g.channel.List(ctx, g.paths.CSVDir)
	if err != nil {
		return nil, transferError("list", g.paths.CSVDir, err)
	}
	return Eligible(names), nil
}

// Eligible filters a directory listing down to the files ready for import.
func Eligible(names []string) []string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	present := make(map[string]bool, len(sorted))
	for _, n := range sorted {
		present[n] = true
	}

	var out []string
	for _, n := range sorted {
		if strings.HasSuffix(n, CSVSuffix) && present[n+MarkerSuffix] {
			out = append(out, n)
		}
	}
	return out
}

// Stage downloads entry and then removes its start marker so the file is
// not picked up again.
func (g *Gate) Stage(ctx context.Context, entry string) (StagedFile, error) {
	remotePath := path.Join(g.paths.CSVDir, entry)
	localPath := filepath.Join(g.paths.DownloadDir, entry)

	if err := g.channel.Get(ctx, remotePath, localPath); err != nil {
		return StagedFile{}, transferError("download", remotePath, err)
	}
	marker := remotePath + MarkerSuffix
	if err := g.channel.Delete(ctx, marker); err != nil {
		return StagedFile{}, transferError("delete", marker, err)
	}

	g.logger.Info("Staged remote file",
		logging.F(logging.FieldEntry, entry),
		logging.F(logging.FieldRemotePath, remotePath),
		logging.F(logging.FieldLocalPath, localPath))
	return StagedFile{Entry: entry, LocalPath: localPath}, nil
}

// UploadReport stores content in the local upload directory and publishes
// it under the processed directory with the name of entry.
func (g *Gate) UploadReport(ctx context.Context, entry, content string) error {
	localPath := filepath.Join(g.paths.UploadDir, entry)
	if err := fileutils.WriteFile(localPath, []byte(content), models.PermissionReportFile); err != nil {
		return err
	}
	remotePath := path.Join(g.paths.ProcessedDir, entry)
	if err := g.channel.Put(ctx, localPath, remotePath); err != nil {
		return transferError("upload", remotePath, err)
	}
	g.logger.Info("Uploaded error report",
		logging.F(logging.FieldEntry, entry),
		logging.F(logging.FieldRemotePath, remotePath))
	return nil
}

// Close releases the channel.
func (g *Gate) Close() error {
	return g.channel.Close()
}
