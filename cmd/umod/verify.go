package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/umod"
)

type verifyReport struct {
	Archive  string   `json:"archive"`
	Entries  int      `json:"entries"`
	Failed   int      `json:"failed"`
	Bytes    uint64   `json:"bytes"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func (r verifyReport) ok() bool {
	return r.Error == "" && r.Failed == 0 && len(r.Warnings) == 0
}

func verifyCmd() *cli.Command {
	var (
		jobs   int64
		asJSON bool
	)

	return &cli.Command{
		Name:      "verify",
		Usage:     "Check checksums and payloads of one or more archives",
		ArgsUsage: "<archive>...",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "jobs",
				Aliases:     []string{"j"},
				Usage:       "archives checked concurrently",
				Value:       int64(runtime.GOMAXPROCS(0)),
				Destination: &jobs,
			},
			jsonFlag(&asJSON),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyVerifyConfig(cmd, fileConfig, &jobs)
			locations := cmd.Args().Slice()
			if len(locations) == 0 {
				return errors.New("verify: at least one archive is required")
			}

			reports, err := verifyAll(ctx, locations, int(max(jobs, 1)))
			if err != nil {
				return err
			}

			w := stdout(cmd)
			if asJSON {
				if err := writeJSON(w, reports); err != nil {
					return err
				}
			} else {
				writeVerifyReports(w, reports)
			}

			var bad int
			for _, r := range reports {
				if !r.ok() {
					bad++
				}
			}
			if bad > 0 {
				return fmt.Errorf("verify: %d of %d archives damaged", bad, len(reports))
			}
			return nil
		},
	}
}

// verifyAll checks each archive on its own handle, at most jobs at a time.
// Reports keep the order of locations. Only cancellation aborts the run;
// an archive that cannot be opened is reported, not returned.
func verifyAll(ctx context.Context, locations []string, jobs int) ([]verifyReport, error) {
	reports := make([]verifyReport, len(locations))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, location := range locations {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = verifyOne(ctx, location)
			logger.Debug("archive verified", "archive", location, "ok", reports[i].ok())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func verifyOne(ctx context.Context, location string) verifyReport {
	report := verifyReport{Archive: location}
	h, err := openArchive(ctx, location, umod.WithVerify(!noVerify))
	if err != nil {
		report.Error = err.Error()
		return report
	}
	defer h.Close()

	report.Entries = h.Len()
	report.Warnings = h.Warnings()
	results, err := h.ExtractAll(ctx, nil, umod.ExtractWithTestMode(true))
	if err != nil {
		report.Error = err.Error()
		return report
	}
	stats := results.Stats()
	report.Failed = stats.Failed
	report.Bytes = stats.TotalBytes
	return report
}

func writeVerifyReports(w io.Writer, reports []verifyReport) {
	for _, r := range reports {
		switch {
		case r.Error != "":
			_, _ = fmt.Fprintf(w, "FAIL  %s: %s\n", r.Archive, r.Error)
		case r.ok():
			_, _ = fmt.Fprintf(w, "OK    %s (%d entries, %d bytes)\n", r.Archive, r.Entries, r.Bytes)
		default:
			_, _ = fmt.Fprintf(w, "FAIL  %s (%d of %d entries damaged)\n", r.Archive, r.Failed, r.Entries)
			for _, warning := range r.Warnings {
				_, _ = fmt.Fprintf(w, "      %s\n", warning)
			}
		}
	}
}
