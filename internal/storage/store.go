// Package storage persists uploaded attachment bytes. Metadata lives in
// the attachment repository; a Store only holds the files themselves.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store writes and reads attachment files by their stored name.
type Store interface {
	// Save writes the file under the given key, replacing any previous
	// content for that key.
	Save(ctx context.Context, key string, r io.Reader) error

	// Open returns a reader for the file. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// StoredName builds the on-disk name for an upload: a prefix, the upload
// time in unix milliseconds, a short random token and the original
// extension. The original filename never reaches the store.
func StoredName(prefix, originalName string, now time.Time) string {
	ext := filepath.Ext(originalName)
	token := uuid.New().String()[:8]
	return fmt.Sprintf("%s_%d_%s%s", prefix, now.UnixMilli(), token, ext)
}
