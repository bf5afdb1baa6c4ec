package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/meigma/umod"
)

func testCmd() *cli.Command {
	return &cli.Command{
		Name:      "test",
		Usage:     "Read every payload and report damaged entries",
		ArgsUsage: "<archive>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			location, err := archiveArg(cmd)
			if err != nil {
				return err
			}
			h, err := openArchive(ctx, location, umod.WithVerify(!noVerify))
			if err != nil {
				return err
			}
			defer h.Close()

			w := stdout(cmd)
			printWarnings(w, location, h.Archive)
			results, err := h.ExtractAll(ctx, nil, umod.ExtractWithTestMode(true))
			if err != nil {
				return err
			}
			return reportResults(w, location, results, len(h.Warnings()))
		},
	}
}

func extractCmd() *cli.Command {
	var (
		outDir      string
		overwrite   bool
		direct      bool
		compression string
	)

	return &cli.Command{
		Name:      "extract",
		Aliases:   []string{"x"},
		Usage:     "Extract entries to a directory",
		ArgsUsage: "<archive> [path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "destination directory",
				Value:       ".",
				Destination: &outDir,
			},
			&cli.BoolFlag{
				Name:        "overwrite",
				Usage:       "replace existing files",
				Destination: &overwrite,
			},
			&cli.BoolFlag{
				Name:        "direct",
				Usage:       "write straight to the final path instead of a temp file",
				Destination: &direct,
			},
			&cli.StringFlag{
				Name:        "compression",
				Usage:       "store extracted files compressed (none, zstd)",
				Value:       "none",
				Destination: &compression,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyExtractConfig(cmd, fileConfig, &overwrite, &compression)
			location, err := archiveArg(cmd)
			if err != nil {
				return err
			}
			comp, err := umod.ParseCompression(compression)
			if err != nil {
				return err
			}
			h, err := openArchive(ctx, location)
			if err != nil {
				return err
			}
			defer h.Close()

			indices, err := selectEntries(h.Archive, cmd.Args().Tail())
			if err != nil {
				return err
			}
			sink := umod.NewFileSink(outDir,
				umod.WithOverwrite(overwrite),
				umod.WithDirectWrites(direct),
				umod.WithCompression(comp),
			)

			w := stdout(cmd)
			printWarnings(w, location, h.Archive)
			results, err := h.Extract(ctx, indices, sink)
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Status == umod.StatusSkipped {
					_, _ = fmt.Fprintf(w, "skipped %s (exists)\n", r.Path)
				}
			}
			return reportResults(w, location, results, len(h.Warnings()))
		},
	}
}

func catCmd() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "Write entry payloads to standard output",
		ArgsUsage: "<archive> <path>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			location, err := archiveArg(cmd)
			if err != nil {
				return err
			}
			paths := cmd.Args().Tail()
			if len(paths) == 0 {
				return errors.New("cat: at least one entry path is required")
			}
			h, err := openArchive(ctx, location)
			if err != nil {
				return err
			}
			defer h.Close()

			indices, err := selectEntries(h.Archive, paths)
			if err != nil {
				return err
			}
			out := stdout(cmd)
			for _, i := range indices {
				if err := ctx.Err(); err != nil {
					return err
				}
				data, err := h.ReadEntry(i)
				if err != nil {
					return err
				}
				if _, err := out.Write(data); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// selectEntries maps paths to entry indices; no paths selects everything.
func selectEntries(a *umod.Archive, paths []string) ([]int, error) {
	if len(paths) == 0 {
		indices := make([]int, 0, a.Len())
		for i := range a.Entries() {
			indices = append(indices, i)
		}
		return indices, nil
	}
	indices := make([]int, 0, len(paths))
	for _, p := range paths {
		i, ok := a.Lookup(p)
		if !ok {
			return nil, fmt.Errorf("%s: no such entry", p)
		}
		indices = append(indices, i)
	}
	return indices, nil
}

// reportResults prints failures and a summary line. It returns an error when
// any entry failed.
func reportResults(w io.Writer, location string, results umod.Results, warnings int) error {
	for _, r := range results {
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "%s: %s: %v\n", r.Status, r.Path, r.Err)
		}
	}
	stats := results.Stats()
	_, _ = fmt.Fprintf(w, "%s: %d ok, %d skipped, %d failed, %d bytes, %d warnings\n",
		location, stats.Extracted, stats.Skipped, stats.Failed, stats.TotalBytes, warnings)
	if stats.Failed > 0 {
		return fmt.Errorf("%s: %d entries failed", location, stats.Failed)
	}
	return nil
}
