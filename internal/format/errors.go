package format

import (
	"errors"
	"fmt"
	"io"
)

// Sentinel errors.
var (
	// ErrFormat is returned when the trailer signature does not match.
	// Callers probing several formats should treat it as "not this format".
	ErrFormat = errors.New("umod: not a umod archive")

	// ErrNegativeValue is returned when a compact index has its sign bit set.
	ErrNegativeValue = errors.New("umod: negative compact index not supported")

	// ErrTruncated is returned when the input ends before a structure is complete.
	ErrTruncated = errors.New("umod: truncated input")
)

// truncated wraps a short-read error with ErrTruncated.
// io.EOF is promoted to io.ErrUnexpectedEOF since a structure was in progress.
func truncated(what string, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: %s: %w", ErrTruncated, what, err)
}
