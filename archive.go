package umod

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/meigma/umod/internal/format"
	"github.com/meigma/umod/internal/iox"
	"github.com/meigma/umod/internal/sizing"
)

// Re-export types from internal packages for the public API.
type (
	// Trailer is the fixed record at the end of every archive.
	Trailer = format.Trailer

	// EntryReader is a bounded, read-only view of one entry's payload.
	EntryReader = iox.Section
)

// Format constants.
const (
	// Signature is the trailer magic of a Umod archive.
	Signature = format.Signature

	// TrailerSize is the size of the trailer in bytes.
	TrailerSize = format.TrailerSize
)

// dirBufferSize is the read-ahead used while walking the directory.
const dirBufferSize = 32 << 10

// Entry describes one item stored in the archive.
type Entry struct {
	// Name is the name as stored, byte for byte. Treat it as read-only.
	Name []byte

	// Path is Name decoded to a slash-separated path (see WithNameEncoding).
	Path string

	// Offset is the absolute file position of the payload.
	Offset uint32

	// Size is the payload length in bytes.
	Size uint32

	// Flags is the stored attribute bitmask. Its meaning is not defined by
	// the format and it is passed through uninterpreted.
	Flags uint32
}

// Archive provides read access to an opened Umod archive.
//
// The Archive does not own the stream passed to Open; the caller keeps it
// open for the Archive's lifetime and closes it afterwards. See OpenFile for
// a variant that owns its file.
type Archive struct {
	r        io.ReadSeeker
	size     int64
	trailer  Trailer
	entries  []Entry
	byPath   map[string]int
	warnings []string
	closed   bool

	verify       bool
	chunkSize    int
	maxEntrySize uint64
	nameEncoding encoding.Encoding
	progress     ProgressFunc
	logger       *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

func (a *Archive) emit(ev ProgressEvent) {
	if a.progress != nil {
		a.progress(ev)
	}
}

func (a *Archive) warn(tmpl string, args ...any) {
	msg := fmt.Sprintf(tmpl, args...)
	a.warnings = append(a.warnings, msg)
	a.log().Warn("archive warning", "warning", msg)
}

// Open reads the trailer and directory of the archive in r.
//
// Open fails with ErrFormat when r is not a Umod archive, and with
// ErrTruncated or ErrNegativeValue when the directory cannot be parsed.
// Checksum and declared-size mismatches do not fail Open; they are
// reported by Warnings. ctx is checked between directory batches and
// checksum chunks.
func Open(ctx context.Context, r io.ReadSeeker, opts ...Option) (*Archive, error) {
	a := &Archive{
		r:            r,
		verify:       true,
		chunkSize:    DefaultChunkSize,
		maxEntrySize: DefaultMaxEntrySize,
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trailer, size, err := format.ReadTrailer(r)
	if err != nil {
		return nil, err
	}
	a.trailer = trailer
	a.size = size
	a.log().Debug("trailer located",
		"size", size,
		"dir_offset", trailer.DirOffset,
		"version", trailer.Version,
	)

	if err := a.readDirectory(ctx); err != nil {
		return nil, err
	}

	if int64(trailer.TotalBytes) != size {
		a.warn("header size mismatch with real file size: declared %d, actual %d", trailer.TotalBytes, size)
	}
	if a.verify {
		if err := a.verifyChecksum(ctx); err != nil {
			return nil, err
		}
	}

	a.log().Debug("archive opened", "entries", len(a.entries), "warnings", len(a.warnings))
	return a, nil
}

// readDirectory parses the directory located by the trailer.
func (a *Archive) readDirectory(ctx context.Context) error {
	if _, err := a.r.Seek(int64(a.trailer.DirOffset), io.SeekStart); err != nil {
		return fmt.Errorf("seek directory: %w", err)
	}
	br := bufio.NewReaderSize(a.r, dirBufferSize)

	count, err := format.ReadIndex(br)
	if err != nil {
		return fmt.Errorf("read item count: %w", err)
	}
	total := int(count)
	a.emit(ProgressEvent{Stage: StageReadingDirectory, FilesTotal: total})

	raw, err := format.ReadDirectory(br, count, func(done int) error {
		a.emit(ProgressEvent{Stage: StageReadingDirectory, FilesDone: done, FilesTotal: total})
		return ctx.Err()
	})
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}

	a.entries = make([]Entry, len(raw))
	a.byPath = make(map[string]int, len(raw))
	for i, e := range raw {
		path, err := decodeName(e.Name, a.nameEncoding)
		if err != nil {
			a.warn("entry %d: cannot decode name: %v", i, err)
		}
		a.entries[i] = Entry{
			Name:   e.Name,
			Path:   path,
			Offset: e.Offset,
			Size:   e.Size,
			Flags:  e.Flags,
		}
		if end := sizing.End(e.Offset, e.Size); end > a.size {
			a.log().Debug("entry extends past end of archive", "path", path, "end", end, "size", a.size)
		}
		key := NormalizePath(path)
		if _, dup := a.byPath[key]; !dup {
			a.byPath[key] = i
		}
	}
	a.emit(ProgressEvent{Stage: StageReadingDirectory, FilesDone: len(raw), FilesTotal: total})
	return nil
}

// Close releases the directory, trailer and warnings. It does not close the
// underlying stream.
func (a *Archive) Close() error {
	a.closed = true
	a.r = nil
	a.entries = nil
	a.byPath = nil
	a.trailer = Trailer{}
	a.warnings = nil
	return nil
}

func (a *Archive) checkOpen() error {
	if a.closed {
		return ErrClosed
	}
	return nil
}

// Trailer returns the parsed trailer, or the zero Trailer after Close.
func (a *Archive) Trailer() Trailer {
	return a.trailer
}

// Size returns the length of the underlying stream in bytes.
func (a *Archive) Size() int64 {
	return a.size
}

// Warnings returns the integrity warnings recorded by Open, oldest first.
func (a *Archive) Warnings() []string {
	return append([]string(nil), a.warnings...)
}

// Warning returns all warnings joined by newlines, or "" if there are none.
func (a *Archive) Warning() string {
	return strings.Join(a.warnings, "\n")
}

// Len returns the number of entries in the archive.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entry returns the entry at index i in directory order.
func (a *Archive) Entry(i int) (Entry, error) {
	e, err := a.entry(i)
	if err != nil {
		return Entry{}, err
	}
	return *e, nil
}

func (a *Archive) entry(i int) (*Entry, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(a.entries) {
		return nil, fmt.Errorf("%w: %d (archive has %d entries)", ErrIndexOutOfRange, i, len(a.entries))
	}
	return &a.entries[i], nil
}

// Entries returns an iterator over all entries in directory order.
func (a *Archive) Entries() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		for i, e := range a.entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Lookup returns the index of the first entry whose path matches path.
// Both sides are compared after NormalizePath, so `Help\ReadMe.txt` and
// "Help/ReadMe.txt" are the same entry.
func (a *Archive) Lookup(path string) (int, bool) {
	i, ok := a.byPath[NormalizePath(path)]
	return i, ok
}

// OpenEntry returns a bounded view of entry i's payload.
//
// The view shares the archive's stream: reads must not run concurrently
// with other operations on the same Archive. Reading stops with io.EOF at
// the entry's end, or with io.ErrUnexpectedEOF if the file ends first.
func (a *Archive) OpenEntry(i int) (*EntryReader, error) {
	e, err := a.entry(i)
	if err != nil {
		return nil, err
	}
	return a.section(e), nil
}

func (a *Archive) section(e *Entry) *iox.Section {
	return iox.NewSection(a.r, int64(e.Offset), int64(e.Size))
}

// ReadEntry reads entry i's payload into memory.
//
// Entries larger than the WithMaxEntrySize limit fail with ErrEntryTooLarge.
// A payload cut short by end of file fails with ErrDataError.
func (a *Archive) ReadEntry(i int) ([]byte, error) {
	e, err := a.entry(i)
	if err != nil {
		return nil, err
	}
	if a.maxEntrySize > 0 && uint64(e.Size) > a.maxEntrySize {
		return nil, fmt.Errorf("read %s: %w: %d bytes (limit %d)", e.Path, ErrEntryTooLarge, e.Size, a.maxEntrySize)
	}
	n, err := sizing.ToInt(uint64(e.Size), ErrEntryTooLarge)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Path, err)
	}

	buf := make([]byte, n)
	got, err := io.ReadFull(a.section(e), buf)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: short read (%d of %d bytes): %w", e.Path, ErrDataError, got, n, err)
	}
	return buf, nil
}
