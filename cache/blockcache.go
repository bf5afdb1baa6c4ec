// Package cache provides an in-memory block cache for remote byte sources.
//
// Opening a remote archive reads the trailer, walks the directory and then
// pulls payloads, all as small ReadAt calls. BlockCache turns those into a
// few aligned block fetches and keeps recently used blocks in an LRU.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// ByteSource provides random access to data for block caching.
type ByteSource interface {
	io.ReaderAt

	// Size returns the total size of the data source in bytes.
	Size() int64

	// SourceID returns a unique identifier for this data source.
	// The ID is part of the cache key, so it must be stable across calls
	// and unique across different sources.
	SourceID() string
}

// RangeReader is implemented by sources that can stream a byte range more
// efficiently than a single ReadAt (for example one HTTP request).
type RangeReader interface {
	ReadRange(off, length int64) (io.ReadCloser, error)
}

const (
	// DefaultBlockSize is the default size of a cached block.
	DefaultBlockSize int64 = 64 << 10

	// DefaultMaxBlocks is the default number of blocks kept (16MB at the
	// default block size).
	DefaultMaxBlocks = 256

	// DefaultMaxBlocksPerRead caps cached blocks per ReadAt; larger reads
	// go straight to the source.
	DefaultMaxBlocksPerRead = 4
)

// BlockCache caches fixed-size blocks of wrapped sources.
//
// A BlockCache is safe for concurrent use and may be shared by several
// wrapped sources; concurrent misses on the same block trigger a single
// fetch.
type BlockCache struct {
	blocks           *lru.Cache[blockKey, []byte]
	fetchGroup       singleflight.Group
	blockSize        int64
	maxBlocks        int
	maxBlocksPerRead int

	hits   atomic.Int64
	misses atomic.Int64
}

type blockKey struct {
	source string
	index  int64
}

// Option configures a BlockCache.
type Option func(*BlockCache)

// WithBlockSize sets the block size in bytes.
func WithBlockSize(n int64) Option {
	return func(c *BlockCache) {
		c.blockSize = n
	}
}

// WithMaxBlocks sets how many blocks are retained.
func WithMaxBlocks(n int) Option {
	return func(c *BlockCache) {
		c.maxBlocks = n
	}
}

// WithMaxBlocksPerRead bypasses the cache when a ReadAt spans more than n
// blocks. Values <= 0 disable the limit.
func WithMaxBlocksPerRead(n int) Option {
	return func(c *BlockCache) {
		c.maxBlocksPerRead = n
	}
}

// New creates a BlockCache.
func New(opts ...Option) (*BlockCache, error) {
	c := &BlockCache{
		blockSize:        DefaultBlockSize,
		maxBlocks:        DefaultMaxBlocks,
		maxBlocksPerRead: DefaultMaxBlocksPerRead,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.blockSize <= 0 {
		return nil, errors.New("block cache: block size must be > 0")
	}
	if c.blockSize > math.MaxInt32 {
		return nil, errors.New("block cache: block size too large")
	}
	if c.maxBlocks <= 0 {
		return nil, errors.New("block cache: max blocks must be > 0")
	}
	blocks, err := lru.New[blockKey, []byte](c.maxBlocks)
	if err != nil {
		return nil, fmt.Errorf("block cache: %w", err)
	}
	c.blocks = blocks
	return c, nil
}

// Wrap returns a ByteSource that serves reads of src through the cache.
// The result also implements RangeReader.
func (c *BlockCache) Wrap(src ByteSource) (ByteSource, error) {
	if src == nil {
		return nil, errors.New("block cache: source is nil")
	}
	id := src.SourceID()
	if id == "" {
		return nil, errors.New("block cache: source id is empty")
	}
	return &cachedSource{src: src, cache: c, sourceID: id}, nil
}

// Len returns the number of cached blocks.
func (c *BlockCache) Len() int {
	return c.blocks.Len()
}

// Stats returns the number of block hits and misses so far.
func (c *BlockCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Purge drops every cached block.
func (c *BlockCache) Purge() {
	c.blocks.Purge()
}

func (c *BlockCache) getBlock(key blockKey, blockLen int64, fetch func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.blocks.Get(key); ok && int64(len(data)) == blockLen {
		c.hits.Add(1)
		return data, nil
	}
	flightKey := key.source + "#" + strconv.FormatInt(key.index, 10)
	result, err, _ := c.fetchGroup.Do(flightKey, func() (any, error) {
		if data, ok := c.blocks.Get(key); ok && int64(len(data)) == blockLen {
			return data, nil
		}
		c.misses.Add(1)
		data, err := fetch()
		if err != nil {
			return nil, err
		}
		if int64(len(data)) != blockLen {
			return nil, io.ErrUnexpectedEOF
		}
		c.blocks.Add(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

// cachedSource wraps a ByteSource with block-level caching.
type cachedSource struct {
	src      ByteSource
	cache    *BlockCache
	sourceID string
}

func (s *cachedSource) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	size := s.src.Size()
	if off >= size {
		return 0, io.EOF
	}
	expected := min(int64(len(p)), size-off)

	bs := s.cache.blockSize
	startBlock := off / bs
	endBlock := (off + expected - 1) / bs
	if limit := s.cache.maxBlocksPerRead; limit > 0 && endBlock-startBlock+1 > int64(limit) {
		return s.src.ReadAt(p, off)
	}

	var n int64
	for blockIndex := startBlock; blockIndex <= endBlock; blockIndex++ {
		blockStart := blockIndex * bs
		blockEnd := min(blockStart+bs, size)
		blockLen := blockEnd - blockStart

		data, err := s.cache.getBlock(blockKey{source: s.sourceID, index: blockIndex}, blockLen, func() ([]byte, error) {
			return s.readBlock(blockStart, blockLen)
		})
		if err != nil {
			return int(n), err
		}

		copyStart := max(off, blockStart)
		copyEnd := min(off+expected, blockEnd)
		n += int64(copy(p[copyStart-off:copyEnd-off], data[copyStart-blockStart:copyEnd-blockStart]))
	}

	if expected < int64(len(p)) {
		return int(n), io.EOF
	}
	return int(n), nil
}

func (s *cachedSource) ReadRange(off, length int64) (io.ReadCloser, error) {
	if length < 0 {
		return nil, fmt.Errorf("read range length %d: negative length", length)
	}
	if off < 0 {
		return nil, fmt.Errorf("read range %d: negative offset", off)
	}
	if length == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	size := s.src.Size()
	if off >= size {
		return io.NopCloser(bytes.NewReader(nil)), io.EOF
	}
	return io.NopCloser(io.NewSectionReader(s, off, min(length, size-off))), nil
}

func (s *cachedSource) Size() int64 {
	return s.src.Size()
}

func (s *cachedSource) SourceID() string {
	return s.sourceID
}

func (s *cachedSource) readBlock(off, length int64) ([]byte, error) {
	if rr, ok := s.src.(RangeReader); ok {
		rc, err := rr.ReadRange(off, length)
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, length))
		if err != nil {
			return nil, err
		}
		if int64(len(data)) != length {
			return nil, io.ErrUnexpectedEOF
		}
		return data, nil
	}

	buf := make([]byte, int(length))
	n, err := s.src.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if int64(n) != length {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}
