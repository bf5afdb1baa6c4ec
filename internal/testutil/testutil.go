// Package testutil builds synthetic Umod archives and byte sources for tests.
package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync/atomic"
	"testing"

	"github.com/meigma/umod/internal/format"
)

// File describes one entry of a synthetic archive.
type File struct {
	// Name is stored with a trailing NUL, as real archives do.
	Name string

	// RawName, if non-nil, is stored verbatim instead of Name.
	RawName []byte

	Data  []byte
	Flags uint32

	// ExtraSize is added to the declared size, making the entry claim more
	// bytes than were written.
	ExtraSize uint32
}

type archiveConfig struct {
	version         uint32
	corruptChecksum bool
	totalBytes      *uint32
}

// ArchiveOption configures BuildArchive.
type ArchiveOption func(*archiveConfig)

// WithVersion sets the trailer version field.
func WithVersion(v uint32) ArchiveOption {
	return func(c *archiveConfig) {
		c.version = v
	}
}

// WithCorruptChecksum stores a checksum that does not match the content.
func WithCorruptChecksum() ArchiveOption {
	return func(c *archiveConfig) {
		c.corruptChecksum = true
	}
}

// WithTotalBytes overrides the declared archive size.
func WithTotalBytes(n uint32) ArchiveOption {
	return func(c *archiveConfig) {
		c.totalBytes = &n
	}
}

// BuildArchive lays out files back to back from offset 0, followed by the
// directory and the trailer.
func BuildArchive(tb testing.TB, files []File, opts ...ArchiveOption) []byte {
	tb.Helper()

	cfg := archiveConfig{version: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	var buf []byte
	entries := make([]format.Entry, len(files))
	for i, f := range files {
		name := f.RawName
		if name == nil {
			name = append([]byte(f.Name), 0)
		}
		entries[i] = format.Entry{
			Name:   name,
			Offset: uint32(len(buf)),                  //nolint:gosec // test archives are small
			Size:   uint32(len(f.Data)) + f.ExtraSize, //nolint:gosec // test archives are small
			Flags:  f.Flags,
		}
		buf = append(buf, f.Data...)
	}

	dirOffset := uint32(len(buf))                       //nolint:gosec // test archives are small
	buf = format.AppendIndex(buf, uint32(len(entries))) //nolint:gosec // test archives are small
	for _, e := range entries {
		buf = format.AppendEntry(buf, e)
	}

	crc := format.NewCRC()
	_, _ = crc.Write(buf)
	checksum := crc.Sum32()
	if cfg.corruptChecksum {
		checksum ^= 0xFFFFFFFF
	}
	total := uint32(len(buf) + format.TrailerSize) //nolint:gosec // test archives are small
	if cfg.totalBytes != nil {
		total = *cfg.totalBytes
	}

	trailer := format.Trailer{
		Signature:  format.Signature,
		DirOffset:  dirOffset,
		TotalBytes: total,
		Version:    cfg.version,
		Checksum:   checksum,
	}
	out, err := trailer.AppendBinary(buf)
	if err != nil {
		tb.Fatalf("encode trailer: %v", err)
	}
	return out
}

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data     []byte
	sourceID string
	reads    atomic.Int64
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	sum := sha256.Sum256(data)
	return &MockByteSource{
		data:     data,
		sourceID: "mock:" + hex.EncodeToString(sum[:]),
	}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	m.reads.Add(1)
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if off+int64(n) >= int64(len(m.data)) && n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// SourceID returns an identifier derived from the content hash.
func (m *MockByteSource) SourceID() string {
	return m.sourceID
}

// Reads returns the number of ReadAt calls so far.
func (m *MockByteSource) Reads() int64 {
	return m.reads.Load()
}
