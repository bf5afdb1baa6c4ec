package format

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTrailer(t *testing.T) {
	t.Parallel()

	want := Trailer{
		Signature:  Signature,
		DirOffset:  7,
		TotalBytes: 27,
		Version:    1,
		Checksum:   0xDEADBEEF,
	}
	data := []byte("payload")
	data, err := want.AppendBinary(data)
	require.NoError(t, err)

	got, size, err := ReadTrailer(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, int64(27), size)
}

func TestReadTrailer_Layout(t *testing.T) {
	t.Parallel()

	raw := []byte{
		0xA3, 0xC5, 0xE3, 0x9F, // signature
		0x01, 0x00, 0x00, 0x00, // dir offset
		0x02, 0x00, 0x00, 0x00, // total bytes
		0x03, 0x00, 0x00, 0x00, // version
		0x04, 0x03, 0x02, 0x01, // checksum
	}
	got, err := ParseTrailer(raw)
	require.NoError(t, err)
	assert.Equal(t, Trailer{Signature: Signature, DirOffset: 1, TotalBytes: 2, Version: 3, Checksum: 0x01020304}, got)
}

func TestReadTrailer_TooShort(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, TrailerSize - 1} {
		_, _, err := ReadTrailer(bytes.NewReader(make([]byte, n)))
		require.ErrorIs(t, err, ErrTruncated, "size %d", n)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
		require.NotErrorIs(t, err, ErrFormat)
	}
}

func TestReadTrailer_BadSignature(t *testing.T) {
	t.Parallel()

	tr := Trailer{Signature: 0x12345678}
	data, err := tr.AppendBinary(make([]byte, 100))
	require.NoError(t, err)

	_, _, err = ReadTrailer(bytes.NewReader(data))
	require.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "0x12345678")
}

func TestParseTrailer_WrongLength(t *testing.T) {
	t.Parallel()

	_, err := ParseTrailer(make([]byte, TrailerSize+1))
	require.Error(t, err)
}
