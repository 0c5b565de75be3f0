package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"csvimport/csv-import/internal/fileutils"
	"csvimport/csv-import/internal/logging"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// gcsTimeout bounds a single object transfer.
const gcsTimeout = 2 * time.Minute

// GCSChannel is a Channel on a Cloud Storage bucket. Directories map to
// object name prefixes.
type GCSChannel struct {
	client *storage.Client
	bucket *storage.BucketHandle
	logger logging.Logger
}

// NewGCSChannel opens bucket. Without a credentials file Application
// Default Credentials are used.
func NewGCSChannel(ctx context.Context, bucket, credentialsFile string, logger logging.Logger) (*GCSChannel, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: bucket is not set")
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	logger.Info("Opened Cloud Storage bucket", logging.F("bucket", bucket))
	return &GCSChannel{client: client, bucket: client.Bucket(bucket), logger: logger}, nil
}

func objectName(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func prefixFor(dir string) string {
	prefix := objectName(dir)
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// List returns the object names directly under dir, without the prefix.
func (c *GCSChannel) List(ctx context.Context, dir string) ([]string, error) {
	prefix := prefixFor(dir)
	it := c.bucket.Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		// Sub-directories come back as prefix-only entries.
		if attrs.Name == "" {
			continue
		}
		names = append(names, strings.TrimPrefix(attrs.Name, prefix))
	}
	return names, nil
}

// Get downloads an object to localPath.
func (c *GCSChannel) Get(ctx context.Context, remotePath, localPath string) error {
	ctx, cancel := context.WithTimeout(ctx, gcsTimeout)
	defer cancel()

	r, err := c.bucket.Object(objectName(remotePath)).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	dst, err := fileutils.CreateFile(localPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, r); err != nil {
		_ = dst.Close()
		return fmt.Errorf("read GCS object: %w", err)
	}
	return dst.Close()
}

// Put uploads localPath as an object.
func (c *GCSChannel) Put(ctx context.Context, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", localPath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, gcsTimeout)
	defer cancel()

	w := c.bucket.Object(objectName(remotePath)).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

// Delete removes an object.
func (c *GCSChannel) Delete(ctx context.Context, remotePath string) error {
	return c.bucket.Object(objectName(remotePath)).Delete(ctx)
}

// Close releases the storage client.
func (c *GCSChannel) Close() error {
	return c.client.Close()
}
