package umod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{`System\Core.u`, "System/Core.u"},
		{"/Help/", "Help"},
		{"Help//a.txt", "Help/a.txt"},
		{"", "."},
		{"/", "."},
		{"../x", "../x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.in), tt.in)
	}
}

func TestDecodeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{name: "nul terminated", raw: []byte("a.txt\x00"), want: "a.txt"},
		{name: "garbage after nul", raw: []byte("a.txt\x00junk"), want: "a.txt"},
		{name: "no terminator", raw: []byte("a.txt"), want: "a.txt"},
		{name: "backslashes", raw: []byte(`Textures\Skins\x.utx` + "\x00"), want: "Textures/Skins/x.utx"},
		{name: "directory", raw: []byte(`Maps\` + "\x00"), want: "Maps"},
		{name: "empty", raw: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := decodeName(tt.raw, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodingByName(t *testing.T) {
	t.Parallel()

	enc, err := EncodingByName("")
	require.NoError(t, err)
	assert.Nil(t, enc)

	enc, err = EncodingByName("RAW")
	require.NoError(t, err)
	assert.Nil(t, enc)

	enc, err = EncodingByName("windows-1252")
	require.NoError(t, err)
	assert.Equal(t, charmap.Windows1252, enc)

	_, err = EncodingByName("no-such-charset")
	assert.Error(t, err)
}
