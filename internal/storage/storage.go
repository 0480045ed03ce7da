// Package storage abstracts the blob store that holds profile images.
// The rest of the app deals only in opaque references; swapping the disk
// implementation for an object store touches nothing above this interface.
package storage

import (
	"context"
	"io"
)

// BlobStore stores and removes uploaded blobs.
type BlobStore interface {
	// Save writes the blob and returns its reference. filename is the
	// client's original name; implementations use it only as a suffix
	// hint, never as a path.
	Save(ctx context.Context, filename string, r io.Reader) (string, error)

	// Remove deletes the blob behind ref. Removing a blob that is
	// already gone is a no-op, so retried deletes and dangling
	// references don't surface as errors.
	Remove(ctx context.Context, ref string) error
}
