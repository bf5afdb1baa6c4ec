package umod

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Compression selects how FileSink stores extracted payloads.
type Compression uint8

const (
	// CompressionNone writes payloads as stored in the archive.
	CompressionNone Compression = iota
	// CompressionZstd writes zstd frames and appends ".zst" to each file name.
	CompressionZstd
)

// String returns the human-readable name of the compression algorithm.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompression parses "none" (or "") and "zstd".
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression %q", s)
	}
}

// zstdExt is appended to file names written with CompressionZstd.
const zstdExt = ".zst"

// FileSink writes extracted entries below a destination directory.
//
// By default, files are written to a temporary file in the same directory
// and renamed to the final path on Commit, so partially written files are
// never visible at the final path. Entry paths are normalized with
// NormalizePath and must then satisfy fs.ValidPath; paths escaping the
// destination are rejected.
type FileSink struct {
	destDir     string
	overwrite   bool
	directWrite bool
	compression Compression
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithDirectWrites disables temp files and writes directly to the final path.
func WithDirectWrites(enabled bool) FileSinkOption {
	return func(s *FileSink) {
		s.directWrite = enabled
	}
}

// WithCompression stores each payload compressed. With CompressionZstd the
// file name gains a ".zst" suffix.
func WithCompression(c Compression) FileSinkOption {
	return func(s *FileSink) {
		s.compression = c
	}
}

// NewFileSink creates a FileSink that writes to destDir.
//
// destDir must exist. Parent directories below it are created as needed.
func NewFileSink(destDir string, opts ...FileSinkOption) *FileSink {
	s := &FileSink{destDir: destDir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Writer implements SinkFactory.
//
// It returns a nil Committer for entries whose file already exists when
// overwrite is disabled.
func (s *FileSink) Writer(_ int, entry *Entry) (Committer, error) {
	rel := NormalizePath(entry.Path)
	if rel == "." || !fs.ValidPath(rel) {
		return nil, &fs.PathError{Op: "extract", Path: entry.Path, Err: fs.ErrInvalid}
	}
	if s.compression == CompressionZstd {
		rel += zstdExt
	}
	destRel := filepath.FromSlash(rel)
	destPath := filepath.Join(s.destDir, destRel)

	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return nil, fmt.Errorf("open destination root %s: %w", s.destDir, err)
	}
	if !s.overwrite {
		if _, err := root.Stat(destRel); err == nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, nil
		}
	}
	if err := root.MkdirAll(filepath.Dir(destRel), 0o750); err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("create directory %s: %w", filepath.Dir(destPath), err)
	}

	c := &fileCommitter{destPath: destPath, destRel: destRel, root: root}
	if s.directWrite {
		c.file, err = root.OpenFile(destRel, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
		if err != nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("create file %s: %w", destPath, err)
		}
		c.writeRel = destRel
	} else {
		c.file, c.writeRel, err = createTempFile(root, filepath.Dir(destRel), ".umod-")
		if err != nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("create temp file: %w", err)
		}
	}

	c.w = c.file
	if s.compression == CompressionZstd {
		enc, err := zstd.NewWriter(c.file)
		if err != nil {
			_ = c.Discard() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		c.enc = enc
		c.w = enc
	}
	return c, nil
}

// fileCommitter writes to writeRel and, when that is a temp file, renames
// it to destRel on Commit.
type fileCommitter struct {
	destPath string
	destRel  string
	writeRel string
	file     *os.File
	enc      *zstd.Encoder
	w        io.Writer
	root     *os.Root
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

// Commit flushes the encoder, closes the file and renames it into place.
func (c *fileCommitter) Commit() error {
	if c.enc != nil {
		if err := c.enc.Close(); err != nil {
			_ = c.Discard() //nolint:errcheck // best-effort cleanup
			return fmt.Errorf("close zstd encoder: %w", err)
		}
		c.enc = nil
	}
	if err := c.file.Close(); err != nil {
		_ = c.root.Remove(c.writeRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()            //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close file: %w", err)
	}
	if c.writeRel != c.destRel {
		if err := c.root.Rename(c.writeRel, c.destRel); err != nil {
			_ = c.root.Remove(c.writeRel) //nolint:errcheck // best-effort cleanup
			_ = c.root.Close()            //nolint:errcheck // best-effort cleanup
			return fmt.Errorf("rename to %s: %w", c.destPath, err)
		}
	}
	return c.root.Close()
}

// Discard closes and removes the file being written.
func (c *fileCommitter) Discard() error {
	if c.enc != nil {
		c.enc.Reset(io.Discard)
		_ = c.enc.Close() //nolint:errcheck // releasing encoder state only
		c.enc = nil
	}
	_ = c.file.Close() //nolint:errcheck // we're cleaning up
	if err := c.root.Remove(c.writeRel); err != nil {
		_ = c.root.Close() //nolint:errcheck // best-effort cleanup
		return err
	}
	return c.root.Close()
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
