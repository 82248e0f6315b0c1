// Package blob provides path-addressed storage for extracted package
// content. Three drivers are available: local filesystem (default, dev),
// S3-compatible object storage, and in-memory (tests).
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Driver identifies a concrete storage backend.
type Driver string

const (
	// DriverFilesystem stores content under a local directory root.
	DriverFilesystem Driver = "fs"
	// DriverS3 targets AWS S3 or any S3-compatible endpoint (e.g. MinIO).
	DriverS3 Driver = "s3"
	// DriverMemory keeps content in process memory, for tests.
	DriverMemory Driver = "memory"
)

// ErrExists is returned by Put when the key is already stored. Keys are
// write-once; package content is immutable after extraction.
var ErrExists = errors.New("blob: key already exists")

// ErrNotFound is returned when no content is stored under a key.
var ErrNotFound = errors.New("blob: key not found")

// Store is the write-once, path-addressed storage surface the extractor and
// content-serving layer depend on.
type Store interface {
	// Put streams r to key and returns the number of bytes stored.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	// Open returns a reader over the content stored at key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes a single key, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// DeletePrefix removes every key under prefix and returns the count.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	// List returns the keys stored under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	Driver() Driver
}

// SanitizeKey normalizes a key and rejects anything that could escape the
// store root: absolute paths, parent traversal, empty keys.
func SanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("blob: empty key")
	}
	clean := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	if strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("blob: key %q escapes storage root", key)
	}
	return clean, nil
}

// Options selects and configures a driver for Open.
type Options struct {
	Driver Driver
	// FSRoot is the directory root for the filesystem driver.
	FSRoot string
	// S3 settings, used when Driver is DriverS3.
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// Open constructs a Store for the configured driver. An empty driver selects
// the filesystem.
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(opts.FSRoot)
	case DriverS3:
		return NewS3(ctx, opts)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("blob: unknown driver %q", driver)
	}
}
