package umod

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/meigma/umod/internal/testutil"
)

// fourFiles is a small archive of four 16-byte text files.
func fourFiles() []testutil.File {
	files := make([]testutil.File, 4)
	for i, name := range []string{"a", "b", "c", "d"} {
		files[i] = testutil.File{
			Name: name + ".txt",
			Data: bytes.Repeat([]byte(name), 16),
		}
	}
	return files
}

func openBytes(t *testing.T, data []byte, opts ...Option) *Archive {
	t.Helper()
	a, err := Open(context.Background(), bytes.NewReader(data), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestOpen_FourFiles(t *testing.T) {
	t.Parallel()

	data := testutil.BuildArchive(t, fourFiles(), testutil.WithVersion(2))
	a := openBytes(t, data)

	assert.Equal(t, 4, a.Len())
	assert.Empty(t, a.Warnings())
	assert.Empty(t, a.Warning())
	assert.Equal(t, uint32(2), a.Trailer().Version)
	assert.Equal(t, int64(len(data)), a.Size())

	var offset uint32
	for i, e := range a.Entries() {
		name := string(rune('a'+i)) + ".txt"
		assert.Equal(t, name, e.Path)
		assert.Equal(t, append([]byte(name), 0), e.Name)
		assert.Equal(t, offset, e.Offset)
		assert.Equal(t, uint32(16), e.Size)
		offset += 16

		got, err := a.ReadEntry(i)
		require.NoError(t, err)
		assert.Equal(t, bytes.Repeat([]byte{byte('a' + i)}, 16), got)
	}
}

func TestOpen_EmptyArchive(t *testing.T) {
	t.Parallel()

	a := openBytes(t, testutil.BuildArchive(t, nil))
	assert.Zero(t, a.Len())
	assert.Empty(t, a.Warnings())

	results, err := a.ExtractAll(context.Background(), NewMemorySink())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestOpen_BadSignatureStopsAtTrailer(t *testing.T) {
	t.Parallel()

	data := testutil.BuildArchive(t, fourFiles())
	data[len(data)-TrailerSize] ^= 0xFF
	size := int64(len(data))

	rec := &recordingReader{r: bytes.NewReader(data)}
	_, err := Open(context.Background(), rec)
	require.ErrorIs(t, err, ErrFormat)

	require.NotEmpty(t, rec.positions)
	for _, pos := range rec.positions {
		assert.GreaterOrEqual(t, pos, size-TrailerSize)
		assert.LessOrEqual(t, pos, size)
	}
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	valid := testutil.BuildArchive(t, fourFiles())
	badSig := bytes.Clone(valid)
	badSig[len(badSig)-TrailerSize] ^= 0xFF

	// Directory count byte with the sign bit set.
	negative := testutil.BuildArchive(t, nil)
	negative[0] = 0x80

	// First name length points past the end of the stream.
	truncatedDir := testutil.BuildArchive(t, []testutil.File{{Name: "a"}})
	truncatedDir[1] = 0x3F

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "empty stream", data: nil, wantErr: ErrTruncated},
		{name: "shorter than trailer", data: valid[:TrailerSize-1], wantErr: ErrTruncated},
		{name: "bad signature", data: badSig, wantErr: ErrFormat},
		{name: "random bytes", data: bytes.Repeat([]byte{0x42}, 64), wantErr: ErrFormat},
		{name: "negative item count", data: negative, wantErr: ErrNegativeValue},
		{name: "name runs past end", data: truncatedDir, wantErr: ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, err := Open(context.Background(), bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, a)
		})
	}
}

func TestOpen_ChecksumMismatchWarns(t *testing.T) {
	t.Parallel()

	data := testutil.BuildArchive(t, fourFiles(), testutil.WithCorruptChecksum())
	a := openBytes(t, data)

	require.Len(t, a.Warnings(), 1)
	assert.Contains(t, a.Warning(), "CRC mismatch")
	assert.Contains(t, a.Warning(), fmt.Sprintf("stored %08X", a.Trailer().Checksum))

	w, ok := a.ArchiveProperty(PropWarning)
	require.True(t, ok)
	assert.Equal(t, a.Warning(), w)

	results, err := a.ExtractAll(context.Background(), NewMemorySink())
	require.NoError(t, err)
	assert.Equal(t, 4, results.Stats().Extracted)
}

func TestOpen_SizeMismatchWarns(t *testing.T) {
	t.Parallel()

	data := testutil.BuildArchive(t, fourFiles(), testutil.WithTotalBytes(12345))
	a := openBytes(t, data)

	require.Len(t, a.Warnings(), 1)
	assert.Equal(t,
		fmt.Sprintf("header size mismatch with real file size: declared 12345, actual %d", len(data)),
		a.Warnings()[0])
}

func TestOpen_BothWarningsJoined(t *testing.T) {
	t.Parallel()

	data := testutil.BuildArchive(t, fourFiles(), testutil.WithTotalBytes(1), testutil.WithCorruptChecksum())
	a := openBytes(t, data)

	require.Len(t, a.Warnings(), 2)
	assert.Equal(t, a.Warnings()[0]+"\n"+a.Warnings()[1], a.Warning())
}

func TestOpen_WithoutVerify(t *testing.T) {
	t.Parallel()

	data := testutil.BuildArchive(t, fourFiles(), testutil.WithCorruptChecksum())
	var stages []ProgressStage
	a := openBytes(t, data, WithVerify(false), WithProgress(func(ev ProgressEvent) {
		stages = append(stages, ev.Stage)
	}))

	assert.Empty(t, a.Warnings())
	assert.NotContains(t, stages, StageVerifying)
}

func TestOpen_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Open(ctx, bytes.NewReader(testutil.BuildArchive(t, fourFiles())))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_CanceledDuringDirectory(t *testing.T) {
	t.Parallel()

	files := make([]testutil.File, 600)
	for i := range files {
		files[i] = testutil.File{Name: fmt.Sprintf("f%03d", i)}
	}
	data := testutil.BuildArchive(t, files)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := Open(ctx, bytes.NewReader(data), WithProgress(func(ev ProgressEvent) {
		if ev.Stage == StageReadingDirectory && ev.FilesDone >= 256 {
			cancel()
		}
	}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_Progress(t *testing.T) {
	t.Parallel()

	data := testutil.BuildArchive(t, fourFiles())
	var events []ProgressEvent
	openBytes(t, data, WithChunkSize(16), WithProgress(func(ev ProgressEvent) {
		events = append(events, ev)
	}))

	require.NotEmpty(t, events)
	assert.Equal(t, StageReadingDirectory, events[0].Stage)
	assert.Equal(t, 4, events[0].FilesTotal)

	last := events[len(events)-1]
	assert.Equal(t, StageVerifying, last.Stage)
	assert.Equal(t, uint64(len(data)-TrailerSize), last.BytesDone)
	assert.Equal(t, last.BytesTotal, last.BytesDone)

	var verifying int
	for _, ev := range events {
		if ev.Stage == StageVerifying {
			verifying++
		}
	}
	// One initial event plus one per 16-byte chunk.
	assert.Equal(t, 1+(len(data)-TrailerSize+15)/16, verifying)
}

func TestArchive_EntryIndexOutOfRange(t *testing.T) {
	t.Parallel()

	a := openBytes(t, testutil.BuildArchive(t, fourFiles()))
	for _, i := range []int{-1, 4, 100} {
		_, err := a.Entry(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		_, err = a.OpenEntry(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		_, err = a.ReadEntry(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}
}

func TestArchive_Closed(t *testing.T) {
	t.Parallel()

	data := testutil.BuildArchive(t, fourFiles(), testutil.WithCorruptChecksum())
	a, err := Open(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	require.NotEmpty(t, a.Warnings())
	require.NoError(t, a.Close())

	assert.Empty(t, a.Warnings())
	assert.Empty(t, a.Warning())
	assert.Zero(t, a.Trailer())
	_, ok := a.ArchiveProperty(PropVersion)
	assert.False(t, ok)
	_, ok = a.ArchiveProperty(PropWarning)
	assert.False(t, ok)

	_, err = a.Entry(0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = a.ExtractAll(context.Background(), NewMemorySink())
	assert.ErrorIs(t, err, ErrClosed)
	_, ok = a.Lookup("a.txt")
	assert.False(t, ok)
}

func TestArchive_Lookup(t *testing.T) {
	t.Parallel()

	files := []testutil.File{
		{Name: `System\Core.u`, Data: []byte("core")},
		{Name: `Help\ReadMe.txt`, Data: []byte("first")},
		{Name: "Help/ReadMe.txt", Data: []byte("second")},
	}
	a := openBytes(t, testutil.BuildArchive(t, files))

	e, err := a.Entry(0)
	require.NoError(t, err)
	assert.Equal(t, "System/Core.u", e.Path)

	tests := []struct {
		path  string
		want  int
		found bool
	}{
		{path: "System/Core.u", want: 0, found: true},
		{path: `System\Core.u`, want: 0, found: true},
		{path: "/System//Core.u", want: 0, found: true},
		{path: "Help/ReadMe.txt", want: 1, found: true},
		{path: "missing", found: false},
	}
	for _, tt := range tests {
		i, ok := a.Lookup(tt.path)
		assert.Equal(t, tt.found, ok, tt.path)
		if tt.found {
			assert.Equal(t, tt.want, i, tt.path)
		}
	}
}

func TestArchive_NameEncoding(t *testing.T) {
	t.Parallel()

	// "Caf\xe9.txt" is "Café.txt" in Windows-1252.
	files := []testutil.File{{RawName: []byte("Caf\xe9.txt\x00"), Data: []byte("x")}}
	data := testutil.BuildArchive(t, files)

	raw := openBytes(t, data)
	e, err := raw.Entry(0)
	require.NoError(t, err)
	assert.Equal(t, "Caf\xe9.txt", e.Path)

	decoded := openBytes(t, data, WithNameEncoding(charmap.Windows1252))
	e, err = decoded.Entry(0)
	require.NoError(t, err)
	assert.Equal(t, "Café.txt", e.Path)
	assert.Equal(t, []byte("Caf\xe9.txt\x00"), e.Name)
}

func TestArchive_Flags(t *testing.T) {
	t.Parallel()

	files := []testutil.File{{Name: "a", Data: []byte("1"), Flags: 0x3}}
	a := openBytes(t, testutil.BuildArchive(t, files))

	e, err := a.Entry(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3), e.Flags)
}

func TestArchive_OpenEntry(t *testing.T) {
	t.Parallel()

	a := openBytes(t, testutil.BuildArchive(t, fourFiles()))
	r, err := a.OpenEntry(2)
	require.NoError(t, err)
	assert.Equal(t, int64(16), r.Size())

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte("c"), 16), got)
}

func TestArchive_ReadEntryLimits(t *testing.T) {
	t.Parallel()

	files := []testutil.File{
		{Name: "small", Data: []byte("tiny")},
		{Name: "big", Data: bytes.Repeat([]byte("x"), 64)},
	}
	a := openBytes(t, testutil.BuildArchive(t, files), WithMaxEntrySize(32))

	_, err := a.ReadEntry(0)
	require.NoError(t, err)
	_, err = a.ReadEntry(1)
	assert.ErrorIs(t, err, ErrEntryTooLarge)
}

func TestArchive_ReadEntryShort(t *testing.T) {
	t.Parallel()

	files := []testutil.File{{Name: "short", Data: []byte("data"), ExtraSize: 1 << 16}}
	a := openBytes(t, testutil.BuildArchive(t, files))

	_, err := a.ReadEntry(0)
	assert.ErrorIs(t, err, ErrDataError)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestArchive_Digest(t *testing.T) {
	t.Parallel()

	files := append(fourFiles(), testutil.File{Name: "short", Data: []byte("x"), ExtraSize: 1 << 16})
	a := openBytes(t, testutil.BuildArchive(t, files))

	d, err := a.Digest(0)
	require.NoError(t, err)
	assert.Equal(t, "sha256:"+sha256Hex(bytes.Repeat([]byte("a"), 16)), d.String())
	require.NoError(t, d.Validate())

	_, err = a.Digest(4)
	assert.ErrorIs(t, err, ErrDataError)
}

func TestArchive_Properties(t *testing.T) {
	t.Parallel()

	files := []testutil.File{{Name: `Maps\DM-Test.unr`, Data: []byte("map data"), Flags: 7}}
	data := testutil.BuildArchive(t, files, testutil.WithVersion(3))
	a := openBytes(t, data)

	tests := []struct {
		id   PropID
		want any
	}{
		{PropPath, "Maps/DM-Test.unr"},
		{PropName, []byte("Maps\\DM-Test.unr\x00")},
		{PropOffset, uint32(0)},
		{PropPackSize, uint32(8)},
		{PropSize, uint32(8)},
		{PropAttrib, uint32(7)},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			t.Parallel()
			got, err := a.Property(0, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := a.Property(0, PropChecksum)
	assert.ErrorIs(t, err, ErrUnknownProperty)

	v, ok := a.ArchiveProperty(PropVersion)
	require.True(t, ok)
	assert.Equal(t, uint32(3), v)
	v, ok = a.ArchiveProperty(PropTotalBytes)
	require.True(t, ok)
	assert.Equal(t, uint32(len(data)), v) //nolint:gosec // test data is small
	_, ok = a.ArchiveProperty(PropWarning)
	assert.False(t, ok)
	_, ok = a.ArchiveProperty(PropPath)
	assert.False(t, ok)
}

func TestOpen_LoggerReceivesWarnings(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	data := testutil.BuildArchive(t, fourFiles(), testutil.WithCorruptChecksum())
	openBytes(t, data, WithLogger(newTestLogger(&buf)))

	assert.Contains(t, buf.String(), "CRC mismatch")
}

func TestOpen_SeekOnlyStream(t *testing.T) {
	t.Parallel()

	data := testutil.BuildArchive(t, fourFiles())
	a, err := Open(context.Background(), &seekOnly{r: bytes.NewReader(data)})
	require.NoError(t, err)

	results, err := a.ExtractAll(context.Background(), NewMemorySink())
	require.NoError(t, err)
	require.NoError(t, results.Err())
	assert.Equal(t, uint64(64), results.Stats().TotalBytes)
}

// recordingReader logs the stream position of every Read and Seek.
type recordingReader struct {
	r         *bytes.Reader
	positions []int64
}

func (s *recordingReader) Read(p []byte) (int, error) {
	pos, _ := s.r.Seek(0, io.SeekCurrent)
	n, err := s.r.Read(p)
	s.positions = append(s.positions, pos, pos+int64(n))
	return n, err
}

func (s *recordingReader) Seek(off int64, whence int) (int64, error) {
	pos, err := s.r.Seek(off, whence)
	s.positions = append(s.positions, pos)
	return pos, err
}

// seekOnly hides the ReaderAt of the wrapped reader.
type seekOnly struct {
	r *bytes.Reader
}

func (s *seekOnly) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *seekOnly) Seek(off int64, whence int) (int64, error) { return s.r.Seek(off, whence) }
