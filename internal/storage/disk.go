package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"
)

// DiskStore keeps blobs as files under a single root directory.
// References are paths relative to the working directory (e.g.
// "uploads/profiles/1714060800000avatar.png") so they can be served
// statically as-is.
type DiskStore struct {
	root string
}

// compile-time check that *DiskStore implements BlobStore
var _ BlobStore = (*DiskStore)(nil)

// NewDiskStore creates the root directory if needed and returns the store.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating upload dir %s: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

// Save writes the blob under a name prefixed with the upload time in
// millis plus an xid, so repeated uploads of "avatar.png" never collide
// even within the same tick. filepath.Base strips any directory
// components a hostile client put in the filename.
func (d *DiskStore) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	name := strconv.FormatInt(time.Now().UnixMilli(), 10) + xid.New().String() + filepath.Base(filename)
	ref := filepath.Join(d.root, name)

	f, err := os.Create(ref)
	if err != nil {
		return "", fmt.Errorf("storage: creating blob %s: %w", ref, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(ref)
		return "", fmt.Errorf("storage: writing blob %s: %w", ref, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(ref)
		return "", fmt.Errorf("storage: closing blob %s: %w", ref, err)
	}

	return ref, nil
}

// Remove deletes the blob. A missing file is treated as already removed.
func (d *DiskStore) Remove(_ context.Context, ref string) error {
	// Only delete inside our root, even if a corrupt reference comes in.
	rel, err := filepath.Rel(d.root, ref)
	if err != nil || filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("storage: reference %q is outside the store", ref)
	}

	if err := os.Remove(ref); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: removing blob %s: %w", ref, err)
	}
	return nil
}
