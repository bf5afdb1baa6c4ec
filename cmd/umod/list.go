package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
)

type listEntry struct {
	Index  int    `json:"index"`
	Path   string `json:"path"`
	Offset uint32 `json:"offset"`
	Size   uint32 `json:"size"`
	Flags  uint32 `json:"flags"`
	Digest string `json:"digest,omitempty"`
}

func listCmd() *cli.Command {
	var (
		asJSON     bool
		withDigest bool
	)

	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List entries in directory order",
		ArgsUsage: "<archive>",
		Flags: []cli.Flag{
			jsonFlag(&asJSON),
			&cli.BoolFlag{
				Name:        "digest",
				Usage:       "include the sha256 digest of each payload",
				Destination: &withDigest,
			},
		},
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

			entries := make([]listEntry, 0, h.Len())
			for i, e := range h.Entries() {
				le := listEntry{Index: i, Path: e.Path, Offset: e.Offset, Size: e.Size, Flags: e.Flags}
				if withDigest {
					d, err := h.Digest(i)
					if err != nil {
						return err
					}
					le.Digest = d.String()
				}
				entries = append(entries, le)
			}

			w := stdout(cmd)
			if asJSON {
				return writeJSON(w, entries)
			}
			printWarnings(stderr(cmd), location, h.Archive)

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
			header := "#\tSIZE\tFLAGS\t"
			if withDigest {
				header += "DIGEST\t"
			}
			_, _ = fmt.Fprintln(tw, header+"PATH")
			for _, e := range entries {
				line := fmt.Sprintf("%d\t%d\t%08X\t", e.Index, e.Size, e.Flags)
				if withDigest {
					line += e.Digest + "\t"
				}
				_, _ = fmt.Fprintln(tw, line+e.Path)
			}
			return tw.Flush()
		},
	}
}
