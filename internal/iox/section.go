package iox

import (
	"errors"
	"io"
)

// Section is a read-only view over [off, off+n) of a shared stream.
//
// When the stream implements io.ReaderAt, reads go through ReadAt and leave
// the stream's cursor alone. Otherwise each Read seeks the stream first, so
// interleaving reads from several sections of one stream is allowed as long
// as the calls themselves are serialized.
//
// Reading past the bound returns io.EOF. If the stream ends before the
// bound is reached, Read returns io.ErrUnexpectedEOF.
type Section struct {
	rs   io.ReadSeeker
	ra   io.ReaderAt
	base int64
	off  int64
	n    int64
}

// NewSection returns a Section reading n bytes of rs starting at off.
func NewSection(rs io.ReadSeeker, off, n int64) *Section {
	s := &Section{rs: rs, base: off, off: off, n: n}
	if ra, ok := rs.(io.ReaderAt); ok {
		s.ra = ra
	}
	return s
}

// Size returns the length of the section in bytes.
func (s *Section) Size() int64 {
	return s.n
}

// Remaining returns the number of bytes left before the bound.
func (s *Section) Remaining() int64 {
	return s.base + s.n - s.off
}

// Read implements io.Reader.
func (s *Section) Read(p []byte) (int, error) {
	remaining := s.Remaining()
	if remaining <= 0 {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	var (
		n   int
		err error
	)
	if s.ra != nil {
		n, err = s.ra.ReadAt(p, s.off)
	} else {
		if _, err = s.rs.Seek(s.off, io.SeekStart); err != nil {
			return 0, err
		}
		n, err = s.rs.Read(p)
	}
	s.off += int64(n)

	if errors.Is(err, io.EOF) {
		if s.Remaining() > 0 {
			return n, io.ErrUnexpectedEOF
		}
		err = nil
	}
	if err == nil && n == 0 {
		// A reader returning (0, nil) past its end would spin io.Copy forever.
		return 0, io.ErrUnexpectedEOF
	}
	return n, err
}
