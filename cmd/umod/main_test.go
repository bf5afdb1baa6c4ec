package main

import (
	"bytes"
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/umod"
	"github.com/meigma/umod/internal/testutil"
)

func writeArchive(t *testing.T, dir, name string, files []testutil.File, opts ...testutil.ArchiveOption) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, testutil.BuildArchive(t, files, opts...), 0o600))
	return path
}

func sampleFiles() []testutil.File {
	return []testutil.File{
		{Name: `System\Core.u`, Data: []byte("core")},
		{Name: `Help\ReadMe.txt`, Data: []byte("read me")},
	}
}

// run executes the CLI with an empty config file and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(context.Background(), append([]string{"umod", "--config", cfg}, args...))
	return out.String(), err
}

func TestCLI_List(t *testing.T) {
	path := writeArchive(t, t.TempDir(), "a.umod", sampleFiles())

	out, err := run(t, "list", "--json", "--digest", path)
	require.NoError(t, err)

	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "System/Core.u", entries[0].Path)
	assert.Equal(t, uint32(4), entries[0].Size)
	assert.Contains(t, entries[1].Digest, "sha256:")
}

func TestCLI_Info(t *testing.T) {
	path := writeArchive(t, t.TempDir(), "a.umod", sampleFiles(), testutil.WithCorruptChecksum())

	out, err := run(t, "info", "--json", path)
	require.NoError(t, err)

	var info archiveInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 2, info.Entries)
	assert.Equal(t, uint64(11), info.PayloadLen)
	require.Len(t, info.Warnings, 1)
	assert.Contains(t, info.Warnings[0], "CRC mismatch")
}

func TestCLI_ExtractAndCat(t *testing.T) {
	dir := t.TempDir()
	path := writeArchive(t, dir, "a.umod", sampleFiles())
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0o750))

	_, err := run(t, "extract", "-o", outDir, path)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(outDir, "Help", "ReadMe.txt"))
	require.NoError(t, err)
	assert.Equal(t, "read me", string(got))

	out, err := run(t, "cat", path, "System/Core.u", `Help\ReadMe.txt`)
	require.NoError(t, err)
	assert.Equal(t, "coreread me", out)

	_, err = run(t, "cat", path, "missing")
	assert.Error(t, err)
}

func TestCLI_CatMaxEntrySize(t *testing.T) {
	path := writeArchive(t, t.TempDir(), "a.umod", sampleFiles())

	out, err := run(t, "--max-entry-size", "4", "cat", path, "System/Core.u")
	require.NoError(t, err)
	assert.Equal(t, "core", out)

	out, err = run(t, "--max-entry-size", "1", "cat", path, "Help/ReadMe.txt")
	require.ErrorIs(t, err, umod.ErrEntryTooLarge)
	assert.Empty(t, out)

	out, err = run(t, "--max-entry-size", "0", "cat", path, "Help/ReadMe.txt")
	require.NoError(t, err)
	assert.Equal(t, "read me", out)
}

func TestCLI_RemoteChecksumScan(t *testing.T) {
	data := testutil.BuildArchive(t, sampleFiles(), testutil.WithCorruptChecksum())
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.ServeContent(w, r, "a.umod", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(server.Close)

	out, err := run(t, "info", "--json", server.URL)
	require.NoError(t, err)
	var info archiveInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 2, info.Entries)
	assert.Empty(t, info.Warnings)

	out, err = run(t, "verify", "--json", server.URL)
	require.Error(t, err)
	var reports []verifyReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	require.Len(t, reports[0].Warnings, 1)
	assert.Contains(t, reports[0].Warnings[0], "CRC mismatch")
}

func TestCLI_TestAndVerify(t *testing.T) {
	dir := t.TempDir()
	good := writeArchive(t, dir, "good.umod", sampleFiles())
	broken := writeArchive(t, dir, "broken.umod", []testutil.File{
		{Name: "ok", Data: []byte("fine")},
		{Name: "bad", Data: []byte("x"), ExtraSize: 1 << 20},
	})
	notArchive := filepath.Join(dir, "junk.umod")
	require.NoError(t, os.WriteFile(notArchive, bytes.Repeat([]byte("j"), 64), 0o600))

	out, err := run(t, "test", good)
	require.NoError(t, err)
	assert.Contains(t, out, "2 ok, 0 skipped, 0 failed")

	out, err = run(t, "test", broken)
	require.Error(t, err)
	assert.Contains(t, out, "1 ok, 0 skipped, 1 failed")

	out, err = run(t, "verify", "--jobs", "2", "--json", good, broken, notArchive)
	require.Error(t, err)
	var reports []verifyReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 3)
	assert.True(t, reports[0].ok())
	assert.Equal(t, 1, reports[1].Failed)
	assert.Contains(t, reports[2].Error, "not a umod archive")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger("info", "json", &buf)
	require.NoError(t, err)
	l.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	_, err = newLogger("loud", "text", &buf)
	assert.Error(t, err)
	_, err = newLogger("info", "xml", &buf)
	assert.Error(t, err)
}
