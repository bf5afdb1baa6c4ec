package umod

import (
	"log/slog"

	"golang.org/x/text/encoding"
)

const (
	// DefaultChunkSize is the buffer size used by the checksum scan.
	DefaultChunkSize = 16 << 10

	// DefaultMaxEntrySize is the default limit for ReadEntry (256MB).
	DefaultMaxEntrySize = 256 << 20
)

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger for debug output.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithProgress sets a callback receiving progress for open and extraction.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Archive) {
		a.progress = fn
	}
}

// WithVerify controls whether Open scans the archive body to check the
// trailer checksum (default: true). The declared-size check always runs.
func WithVerify(enabled bool) Option {
	return func(a *Archive) {
		a.verify = enabled
	}
}

// WithChunkSize sets the read size for the checksum scan.
// Values <= 0 select DefaultChunkSize. Raise it for high-latency sources.
func WithChunkSize(n int) Option {
	return func(a *Archive) {
		if n <= 0 {
			n = DefaultChunkSize
		}
		a.chunkSize = n
	}
}

// WithNameEncoding decodes entry names with enc when building Entry.Path.
// Entry.Name always keeps the stored bytes. A nil enc leaves names as is.
func WithNameEncoding(enc encoding.Encoding) Option {
	return func(a *Archive) {
		a.nameEncoding = enc
	}
}

// WithMaxEntrySize limits the entry size accepted by ReadEntry.
// Set limit to 0 to disable the limit.
func WithMaxEntrySize(limit uint64) Option {
	return func(a *Archive) {
		a.maxEntrySize = limit
	}
}
