// Package packages implements the upload pipeline: validate an archive,
// resolve its launch point, stream its members to blob storage, and write
// the catalog record. A failed extraction leaves no catalog row behind.
package packages

import (
	"archive/zip"
	"context"
	"fmt"
	"path"
	"strings"

	"scormhost/internal/blob"
)

// Extract streams every non-directory archive member to the blob store under
// the given key prefix and returns the stored keys. Entries that would
// resolve outside the prefix are rejected before any byte is written for
// them.
func Extract(ctx context.Context, store blob.Store, archive *zip.Reader, prefix string) ([]string, error) {
	keys := make([]string, 0, len(archive.File))
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.TrimPrefix(strings.ReplaceAll(f.Name, "\\", "/"), "./")
		key, err := blob.SanitizeKey(path.Join(prefix, name))
		if err != nil || !strings.HasPrefix(key, prefix+"/") {
			return keys, fmt.Errorf("archive entry %q escapes extraction prefix", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			return keys, fmt.Errorf("open archive entry %s: %w", f.Name, err)
		}
		_, err = store.Put(ctx, key, rc)
		_ = rc.Close()
		if err != nil {
			return keys, fmt.Errorf("store %s: %w", key, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
