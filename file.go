package umod

import (
	"context"
	"fmt"
	"os"
)

// File is an Archive that owns the file it was opened from.
type File struct {
	*Archive
	file *os.File
}

// OpenFile opens the archive at path. Close releases the archive and closes
// the file.
func OpenFile(ctx context.Context, path string, opts ...Option) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // caller-provided path
	if err != nil {
		return nil, err
	}
	a, err := Open(ctx, f, opts...)
	if err != nil {
		_ = f.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &File{Archive: a, file: f}, nil
}

// Name returns the path the archive was opened from.
func (f *File) Name() string {
	return f.file.Name()
}

// Close releases the archive and closes the underlying file.
func (f *File) Close() error {
	_ = f.Archive.Close() //nolint:errcheck // Archive.Close never fails
	return f.file.Close()
}
