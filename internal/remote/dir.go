package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"csvimport/csv-import/internal/fileutils"
	"csvimport/csv-import/internal/logging"
)

// DirChannel serves a local or mounted directory as the drop box.
type DirChannel struct {
	root   string
	logger logging.Logger
}

// NewDirChannel returns a channel rooted at root.
func NewDirChannel(root string, logger logging.Logger) (*DirChannel, error) {
	if root == "" {
		return nil, fmt.Errorf("dir channel: root is not set")
	}
	if !fileutils.DirectoryExists(root) {
		return nil, fmt.Errorf("dir channel: %s is not a directory", root)
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &DirChannel{root: root, logger: logger}, nil
}

func (c *DirChannel) resolve(p string) string {
	return filepath.Join(c.root, filepath.FromSlash(strings.TrimPrefix(p, "/")))
}

// List returns the file names in dir.
func (c *DirChannel) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(c.resolve(dir))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Get copies remotePath to localPath.
func (c *DirChannel) Get(ctx context.Context, remotePath, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return copyFile(c.resolve(remotePath), localPath)
}

// Put copies localPath to remotePath.
func (c *DirChannel) Put(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return copyFile(localPath, c.resolve(remotePath))
}

// Delete removes remotePath.
func (c *DirChannel) Delete(ctx context.Context, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Remove(c.resolve(remotePath))
}

// Close is a no-op.
func (c *DirChannel) Close() error { return nil }

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fileutils.CreateFile(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
