package umod

import (
	"errors"

	"github.com/meigma/umod/internal/format"
)

// Sentinel errors re-exported from internal/format.
var (
	// ErrFormat is returned by Open when the stream is not a Umod archive.
	// Callers probing several formats should treat it as "not mine".
	ErrFormat = format.ErrFormat

	// ErrNegativeValue is returned when a compact index has its sign bit set.
	ErrNegativeValue = format.ErrNegativeValue

	// ErrTruncated is returned when the stream ends inside the trailer or directory.
	ErrTruncated = format.ErrTruncated
)

// Sentinel errors specific to the umod package.
var (
	// ErrDataError is returned when an entry's payload is shorter than declared.
	ErrDataError = errors.New("umod: data error")

	// ErrIndexOutOfRange is returned for an entry index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("umod: entry index out of range")

	// ErrClosed is returned when an Archive is used after Close.
	ErrClosed = errors.New("umod: archive closed")

	// ErrEntryTooLarge is returned when an entry exceeds the in-memory read limit.
	ErrEntryTooLarge = errors.New("umod: entry too large")

	// ErrUnknownProperty is returned for a property not defined on entries.
	ErrUnknownProperty = errors.New("umod: unknown property")
)
