package umod

import (
	"context"
	"fmt"
	"io"

	"github.com/meigma/umod/cache"
	umodhttp "github.com/meigma/umod/http"
)

// ByteSource provides random access to archive bytes.
//
// Implementations include *os.File (via a size wrapper), *bytes.Reader,
// http.Source and sources wrapped by cache.BlockCache.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// OpenSource opens the archive held by src. Reads go through ReadAt, so
// entry views never share a cursor.
func OpenSource(ctx context.Context, src ByteSource, opts ...Option) (*Archive, error) {
	return Open(ctx, io.NewSectionReader(src, 0, src.Size()), opts...)
}

// OpenURL opens a remote archive through HTTP range requests, reading it in
// cached blocks. The checksum scan is off unless opts include
// WithVerify(true), so only the trailer, the directory and the entries
// that are read get fetched.
//
// ctx is kept by the underlying http.Source and bounds the open and every
// later request for the archive's lifetime. A ctx with a short deadline
// makes reads fail once it expires; pass a long-lived ctx and cancel it
// after Close.
//
// Use http.NewSource, cache.New and OpenSource directly to configure the
// client, headers or cache size.
func OpenURL(ctx context.Context, url string, opts ...Option) (*Archive, error) {
	src, err := umodhttp.NewSource(ctx, url)
	if err != nil {
		return nil, err
	}
	blocks, err := cache.New()
	if err != nil {
		return nil, err
	}
	cached, err := blocks.Wrap(src)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithVerify(false)}, opts...)
	a, err := OpenSource(ctx, cached, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	return a, nil
}
