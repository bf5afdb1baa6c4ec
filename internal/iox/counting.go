package iox

import (
	"errors"
	"io"
)

// ErrOverflow indicates a counter exceeded its maximum value.
var ErrOverflow = errors.New("counter overflow")

// CountingWriter wraps a writer and counts bytes written.
type CountingWriter struct {
	W io.Writer
	N uint64
}

// Write implements io.Writer.
func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.W.Write(p)
	if n > 0 {
		//nolint:gosec // n is guaranteed non-negative by io.Writer contract
		if cw.N > ^uint64(0)-uint64(n) {
			return n, ErrOverflow
		}
		cw.N += uint64(n) //nolint:gosec // overflow checked above
	}
	return n, err
}

// WriteError marks an error as coming from the destination of a copy.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return "write: " + e.Err.Error() }

func (e *WriteError) Unwrap() error { return e.Err }

// TagWriter wraps w so that its errors surface as *WriteError.
// io.Copy reports source and destination failures through one error value;
// the tag lets callers tell them apart.
func TagWriter(w io.Writer) io.Writer {
	return tagWriter{w}
}

type tagWriter struct {
	w io.Writer
}

func (t tagWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		return n, &WriteError{Err: err}
	}
	return n, nil
}
