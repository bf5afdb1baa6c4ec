package umod

import (
	"bytes"
	"io"
	"sync"
)

// SinkFactory supplies a destination for each extracted entry.
//
// Implementations determine where content is written (filesystem, memory,
// network) and which entries to take. Extraction in test mode never calls
// the factory; payloads are read and discarded instead.
type SinkFactory interface {
	// Writer returns the destination for entry index. Returning a nil
	// Committer and nil error skips the entry. An error marks the entry as
	// failed; extraction continues with the next entry.
	//
	// The caller will:
	// 1. Copy the entry's payload to the Committer
	// 2. Compare the byte count with entry.Size
	// 3. Call Commit() if they match, Discard() otherwise
	Writer(index int, entry *Entry) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
//
// Implementations should stage writes until Commit is called. For example,
// a file-based implementation might write to a temp file and rename it on
// Commit, or delete it on Discard.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}

// SinkFunc adapts a function to SinkFactory.
type SinkFunc func(index int, entry *Entry) (Committer, error)

// Writer implements SinkFactory.
func (f SinkFunc) Writer(index int, entry *Entry) (Committer, error) {
	return f(index, entry)
}

// NopCommitter wraps w as a Committer whose Commit and Discard do nothing.
// Bytes reach w as they are copied, whether or not the entry is later
// committed.
func NopCommitter(w io.Writer) Committer {
	return nopCommitter{w}
}

type nopCommitter struct {
	io.Writer
}

func (nopCommitter) Commit() error  { return nil }
func (nopCommitter) Discard() error { return nil }

// maxMemoryPrealloc caps the buffer reserved from an entry's declared size.
const maxMemoryPrealloc = 1 << 20

// MemorySink keeps committed entries in memory, keyed by index.
// It is safe for concurrent use.
type MemorySink struct {
	mu    sync.Mutex
	files map[int][]byte
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[int][]byte)}
}

// Writer implements SinkFactory.
func (s *MemorySink) Writer(index int, entry *Entry) (Committer, error) {
	c := &memoryCommitter{sink: s, index: index}
	c.buf.Grow(int(min(entry.Size, maxMemoryPrealloc)))
	return c, nil
}

// Bytes returns the committed content of entry index.
func (s *MemorySink) Bytes(index int) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[index]
	return b, ok
}

// Len returns the number of committed entries.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

type memoryCommitter struct {
	sink  *MemorySink
	index int
	buf   bytes.Buffer
}

func (c *memoryCommitter) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *memoryCommitter) Commit() error {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	c.sink.files[c.index] = c.buf.Bytes()
	return nil
}

func (c *memoryCommitter) Discard() error {
	c.buf.Reset()
	return nil
}
