package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/meigma/umod"
)

type archiveInfo struct {
	Archive    string   `json:"archive"`
	Size       int64    `json:"size"`
	Version    uint32   `json:"version"`
	DirOffset  uint32   `json:"dir_offset"`
	TotalBytes uint32   `json:"total_bytes"`
	Checksum   string   `json:"checksum"`
	Entries    int      `json:"entries"`
	PayloadLen uint64   `json:"payload_bytes"`
	Warnings   []string `json:"warnings,omitempty"`
}

func infoCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "info",
		Usage:     "Show trailer fields and integrity warnings",
		ArgsUsage: "<archive>",
		Flags:     []cli.Flag{jsonFlag(&asJSON)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			location, err := archiveArg(cmd)
			if err != nil {
				return err
			}
			h, err := openArchive(ctx, location)
			if err != nil {
				return err
			}
			defer h.Close()

			info := describe(location, h.Archive)
			if asJSON {
				return writeJSON(stdout(cmd), info)
			}
			return writeInfo(stdout(cmd), info)
		},
	}
}

func describe(location string, a *umod.Archive) archiveInfo {
	t := a.Trailer()
	info := archiveInfo{
		Archive:    location,
		Size:       a.Size(),
		Version:    t.Version,
		DirOffset:  t.DirOffset,
		TotalBytes: t.TotalBytes,
		Checksum:   fmt.Sprintf("%08X", t.Checksum),
		Entries:    a.Len(),
		Warnings:   a.Warnings(),
	}
	for _, e := range a.Entries() {
		info.PayloadLen += uint64(e.Size)
	}
	return info
}

func writeInfo(w io.Writer, info archiveInfo) error {
	_, err := fmt.Fprintf(w,
		"Archive:     %s\nSize:        %d\nVersion:     %d\nDirectory:   offset %d\nDeclared:    %d bytes\nChecksum:    %s\nEntries:     %d (%d bytes)\n",
		info.Archive, info.Size, info.Version, info.DirOffset, info.TotalBytes, info.Checksum, info.Entries, info.PayloadLen)
	if err != nil {
		return err
	}
	for _, warning := range info.Warnings {
		if _, err := fmt.Fprintf(w, "Warning:     %s\n", warning); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
