package format

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Signature identifies a Umod archive trailer.
	Signature uint32 = 0x9FE3C5A3

	// TrailerSize is the size in bytes of the trailer at the end of the archive.
	TrailerSize = 20
)

// Trailer is the fixed record anchoring the archive at end of file.
type Trailer struct {
	// Signature must equal [Signature].
	Signature uint32

	// DirOffset is the absolute offset of the directory.
	DirOffset uint32

	// TotalBytes is the declared size of the whole archive, trailer included.
	TotalBytes uint32

	// Version is the installer format version. It is informational only.
	Version uint32

	// Checksum is the CRC of every byte before the trailer.
	Checksum uint32
}

// ParseTrailer decodes a trailer from exactly TrailerSize bytes.
// It does not validate the signature.
func ParseTrailer(b []byte) (Trailer, error) {
	if len(b) != TrailerSize {
		return Trailer{}, fmt.Errorf("trailer: got %d bytes, want %d", len(b), TrailerSize)
	}
	le := binary.LittleEndian
	return Trailer{
		Signature:  le.Uint32(b[0:]),
		DirOffset:  le.Uint32(b[4:]),
		TotalBytes: le.Uint32(b[8:]),
		Version:    le.Uint32(b[12:]),
		Checksum:   le.Uint32(b[16:]),
	}, nil
}

// AppendBinary appends the encoded trailer to dst.
func (t Trailer) AppendBinary(dst []byte) ([]byte, error) {
	le := binary.LittleEndian
	dst = le.AppendUint32(dst, t.Signature)
	dst = le.AppendUint32(dst, t.DirOffset)
	dst = le.AppendUint32(dst, t.TotalBytes)
	dst = le.AppendUint32(dst, t.Version)
	dst = le.AppendUint32(dst, t.Checksum)
	return dst, nil
}

// ReadTrailer locates and validates the trailer of the archive in rs.
//
// It returns the trailer and the total stream size. Streams shorter than a
// trailer fail with ErrTruncated; a signature mismatch fails with ErrFormat.
// On return the position of rs is unspecified; callers must seek to
// Trailer.DirOffset before reading the directory.
func ReadTrailer(rs io.ReadSeeker) (Trailer, int64, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return Trailer{}, 0, fmt.Errorf("seek end: %w", err)
	}
	if size < TrailerSize {
		return Trailer{}, size, truncated("trailer", fmt.Errorf("stream is %d bytes: %w", size, io.ErrUnexpectedEOF))
	}
	if _, err := rs.Seek(size-TrailerSize, io.SeekStart); err != nil {
		return Trailer{}, size, fmt.Errorf("seek trailer: %w", err)
	}

	var buf [TrailerSize]byte
	if _, err := io.ReadFull(rs, buf[:]); err != nil {
		return Trailer{}, size, truncated("trailer", err)
	}
	t, err := ParseTrailer(buf[:])
	if err != nil {
		return Trailer{}, size, err
	}
	if t.Signature != Signature {
		return Trailer{}, size, fmt.Errorf("%w: signature 0x%08X", ErrFormat, t.Signature)
	}
	return t, size, nil
}
