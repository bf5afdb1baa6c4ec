package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// EntryInfoSize is the size of the fixed record following each name.
	EntryInfoSize = 12

	// progressInterval is how many entries are read between progress callbacks.
	progressInterval = 256

	// maxPrealloc caps the entry slice capacity reserved from an untrusted count.
	maxPrealloc = 4096
)

// Reader is the cursor the directory is decoded from.
type Reader interface {
	io.Reader
	io.ByteReader
}

// Entry is one raw directory record.
type Entry struct {
	// Name is the stored name, byte for byte. No text encoding is assumed.
	Name []byte

	// Offset is the absolute position of the payload.
	Offset uint32

	// Size is the payload length in bytes.
	Size uint32

	// Flags is an opaque attribute bitmask.
	Flags uint32
}

// ReadDirectory decodes count entries from r.
//
// Entries are returned in directory order. progress, if non-nil, is called
// every 256 entries with the number read so far; a non-nil error from it
// aborts the read and is returned unchanged.
func ReadDirectory(r Reader, count uint32, progress func(done int) error) ([]Entry, error) {
	entries := make([]Entry, 0, min(count, maxPrealloc))
	for i := range count {
		e, err := readEntry(r)
		if err != nil {
			return nil, fmt.Errorf("directory entry %d of %d: %w", i, count, err)
		}
		entries = append(entries, e)
		if progress != nil && len(entries)%progressInterval == 0 {
			if err := progress(len(entries)); err != nil {
				return nil, err
			}
		}
	}
	return entries, nil
}

func readEntry(r Reader) (Entry, error) {
	n, err := ReadIndex(r)
	if err != nil {
		return Entry{}, err
	}

	// Copy rather than allocate n bytes up front: n comes from the file and
	// the read must fail on short input, not on a huge allocation.
	var name bytes.Buffer
	if _, err := io.CopyN(&name, r, int64(n)); err != nil {
		return Entry{}, truncated("entry name", err)
	}

	var info [EntryInfoSize]byte
	if _, err := io.ReadFull(r, info[:]); err != nil {
		return Entry{}, truncated("entry info", err)
	}
	le := binary.LittleEndian
	return Entry{
		Name:   name.Bytes(),
		Offset: le.Uint32(info[0:]),
		Size:   le.Uint32(info[4:]),
		Flags:  le.Uint32(info[8:]),
	}, nil
}

// AppendEntry appends the directory encoding of e to dst.
func AppendEntry(dst []byte, e Entry) []byte {
	dst = AppendIndex(dst, uint32(len(e.Name))) //nolint:gosec // names are far below 4GiB
	dst = append(dst, e.Name...)
	le := binary.LittleEndian
	dst = le.AppendUint32(dst, e.Offset)
	dst = le.AppendUint32(dst, e.Size)
	return le.AppendUint32(dst, e.Flags)
}
