// Package remote talks to the drop box the import files arrive in.
package remote

import (
	"context"
	"fmt"
	"strings"

	"csvimport/csv-import/internal/importerror"
	"csvimport/csv-import/internal/logging"
)

// Channel is a remote file store. Paths use forward slashes.
type Channel interface {
	// List returns the names of the files directly inside dir.
	List(ctx context.Context, dir string) ([]string, error)
	// Get downloads remotePath to localPath.
	Get(ctx context.Context, remotePath, localPath string) error
	// Put uploads localPath to remotePath.
	Put(ctx context.Context, localPath, remotePath string) error
	// Delete removes remotePath.
	Delete(ctx context.Context, remotePath string) error
	Close() error
}

// Backends understood by Open.
const (
	BackendSFTP = "sftp"
	BackendGCS  = "gcs"
	BackendDir  = "dir"
)

// Config selects and configures a Channel.
type Config struct {
	Backend         string
	SFTP            SFTPConfig
	Bucket          string
	CredentialsFile string
	Root            string
}

// Open connects the channel selected by cfg.Backend.
func Open(ctx context.Context, cfg Config, logger logging.Logger) (Channel, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	switch strings.ToLower(cfg.Backend) {
	case BackendSFTP:
		ch, err := DialSFTP(ctx, cfg.SFTP, logger)
		if err != nil {
			return nil, err
		}
		return ch, nil
	case BackendGCS:
		ch, err := NewGCSChannel(ctx, cfg.Bucket, cfg.CredentialsFile, logger)
		if err != nil {
			return nil, err
		}
		return ch, nil
	case BackendDir, "":
		ch, err := NewDirChannel(cfg.Root, logger)
		if err != nil {
			return nil, err
		}
		return ch, nil
	default:
		return nil, fmt.Errorf("unknown remote backend: %s", cfg.Backend)
	}
}

func transferError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &importerror.TransferError{Op: op, Path: path, Err: err}
}
