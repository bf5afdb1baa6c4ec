package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/meigma/umod"
	"github.com/meigma/umod/cache"
	umodhttp "github.com/meigma/umod/http"
)

// handle is an opened archive plus whatever must be closed with it.
type handle struct {
	*umod.Archive
	closer io.Closer
}

func (h *handle) Close() error {
	_ = h.Archive.Close() //nolint:errcheck // Archive.Close never fails
	if h.closer != nil {
		return h.closer.Close()
	}
	return nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// archiveOptions turns the global flags into open options. Remote archives
// skip the checksum scan.
func archiveOptions(remote bool) ([]umod.Option, error) {
	enc, err := umod.EncodingByName(nameEncoding)
	if err != nil {
		return nil, err
	}
	return []umod.Option{
		umod.WithLogger(logger),
		umod.WithNameEncoding(enc),
		umod.WithChunkSize(int(chunkSize)),
		umod.WithMaxEntrySize(uint64(max(maxEntrySize, 0))), //nolint:gosec // clamped to non-negative
		umod.WithVerify(!noVerify && !remote),
		umod.WithProgress(func(ev umod.ProgressEvent) {
			logger.Debug("progress",
				"stage", ev.Stage.String(),
				"path", ev.Path,
				"files_done", ev.FilesDone,
				"files_total", ev.FilesTotal,
				"bytes_done", ev.BytesDone,
				"bytes_total", ev.BytesTotal,
			)
		}),
	}, nil
}

// openArchive opens a local path or an http(s) URL. extra is applied after
// the options built from the global flags.
func openArchive(ctx context.Context, location string, extra ...umod.Option) (*handle, error) {
	opts, err := archiveOptions(isURL(location))
	if err != nil {
		return nil, err
	}
	opts = append(opts, extra...)

	if !isURL(location) {
		f, err := umod.OpenFile(ctx, location, opts...)
		if err != nil {
			return nil, err
		}
		return &handle{Archive: f.Archive, closer: f}, nil
	}

	src, err := umodhttp.NewSource(ctx, location, umodhttp.WithConditionalHeaders())
	if err != nil {
		return nil, err
	}
	blocks, err := cache.New(cache.WithMaxBlocks(int(cacheBlocks)))
	if err != nil {
		return nil, err
	}
	cached, err := blocks.Wrap(src)
	if err != nil {
		return nil, err
	}
	a, err := umod.OpenSource(ctx, cached, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	logger.Debug("remote archive opened", "url", location, "size", src.Size())
	return &handle{Archive: a, closer: cacheReport{blocks}}, nil
}

// cacheReport logs block cache effectiveness when a remote archive closes.
type cacheReport struct {
	blocks *cache.BlockCache
}

func (r cacheReport) Close() error {
	hits, misses := r.blocks.Stats()
	logger.Debug("block cache", "hits", hits, "misses", misses, "blocks", r.blocks.Len())
	return nil
}

// archiveArg returns the first positional argument.
func archiveArg(cmd *cli.Command) (string, error) {
	location := cmd.Args().First()
	if location == "" {
		return "", fmt.Errorf("%s: archive path or URL is required", cmd.Name)
	}
	return location, nil
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

func printWarnings(w io.Writer, location string, a *umod.Archive) {
	for _, warning := range a.Warnings() {
		_, _ = fmt.Fprintf(w, "%s: warning: %s\n", location, warning)
	}
}
