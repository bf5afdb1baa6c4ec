package umod

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/meigma/umod/internal/iox"
	"github.com/meigma/umod/internal/sizing"
)

// Status is the outcome of extracting one entry.
type Status uint8

const (
	// StatusOK means the full declared size was copied and committed.
	StatusOK Status = iota

	// StatusSkipped means the sink factory declined the entry.
	StatusSkipped

	// StatusDataError means the archive held fewer bytes than declared.
	StatusDataError

	// StatusFailed means the destination could not be opened, written or committed.
	StatusFailed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSkipped:
		return "skipped"
	case StatusDataError:
		return "data error"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports the outcome for one requested entry.
type Result struct {
	// Index is the entry's position in directory order.
	Index int

	// Path is the entry's decoded path.
	Path string

	// Status is the outcome.
	Status Status

	// Bytes is the number of payload bytes copied.
	Bytes uint64

	// Err describes a StatusDataError or StatusFailed outcome.
	Err error
}

// Results holds per-entry outcomes in request order.
type Results []Result

// ExtractStats summarizes Results.
type ExtractStats struct {
	// Extracted is the number of entries with StatusOK.
	Extracted int

	// Skipped is the number of entries with StatusSkipped.
	Skipped int

	// Failed is the number of entries with StatusDataError or StatusFailed.
	Failed int

	// TotalBytes is the sum of bytes copied for extracted entries.
	TotalBytes uint64
}

// Stats summarizes the results.
func (rs Results) Stats() ExtractStats {
	var s ExtractStats
	for _, r := range rs {
		switch r.Status {
		case StatusOK:
			s.Extracted++
			if sum, ok := sizing.AddUint64(s.TotalBytes, r.Bytes); ok {
				s.TotalBytes = sum
			}
		case StatusSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}

// Err joins the errors of all failed entries, or returns nil.
func (rs Results) Err() error {
	var errs []error
	for _, r := range rs {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

// ExtractOption configures Extract and ExtractAll.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	testMode bool
	progress ProgressFunc
}

// ExtractWithTestMode reads and counts every payload without writing it.
// The sink factory is not consulted and may be nil.
func ExtractWithTestMode(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.testMode = enabled
	}
}

// ExtractWithProgress overrides the archive's progress callback for one call.
func ExtractWithProgress(fn ProgressFunc) ExtractOption {
	return func(c *extractConfig) {
		c.progress = fn
	}
}

// ExtractAll extracts every entry in directory order.
func (a *Archive) ExtractAll(ctx context.Context, sinks SinkFactory, opts ...ExtractOption) (Results, error) {
	indices := make([]int, len(a.entries))
	for i := range indices {
		indices[i] = i
	}
	return a.Extract(ctx, indices, sinks, opts...)
}

// Extract copies the payloads of the requested entries to sinks.
//
// Entries are processed in the given order, which need not match directory
// order. Every index is validated before any work starts. Per-entry
// problems never stop the batch: they are reported in the entry's Result.
// The returned error is non-nil only for invalid arguments, use after
// Close, or cancellation; on cancellation the results gathered so far are
// returned with ctx.Err(). ctx is checked between entries, never in the
// middle of one.
func (a *Archive) Extract(ctx context.Context, indices []int, sinks SinkFactory, opts ...ExtractOption) (Results, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	cfg := extractConfig{progress: a.progress}
	for _, opt := range opts {
		opt(&cfg)
	}
	if sinks == nil && !cfg.testMode {
		return nil, errors.New("umod: extract: nil sink factory")
	}

	var total uint64
	for _, idx := range indices {
		e, err := a.entry(idx)
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		total += uint64(e.Size)
	}

	emit := func(ev ProgressEvent) {
		if cfg.progress != nil {
			cfg.progress(ev)
		}
	}

	results := make(Results, 0, len(indices))
	var done uint64
	for n, idx := range indices {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		e := &a.entries[idx]
		emit(ProgressEvent{
			Stage:      StageExtracting,
			Path:       e.Path,
			BytesDone:  done,
			BytesTotal: total,
			FilesDone:  n,
			FilesTotal: len(indices),
		})

		res := a.extractEntry(idx, e, sinks, cfg.testMode)
		switch res.Status {
		case StatusOK:
			a.log().Debug("entry extracted", "path", e.Path, "bytes", res.Bytes)
		case StatusSkipped:
			a.log().Debug("entry skipped", "path", e.Path)
		default:
			a.log().Warn("entry failed", "path", e.Path, "status", res.Status.String(), "error", res.Err)
		}
		results = append(results, res)
		done += uint64(e.Size)
	}

	emit(ProgressEvent{
		Stage:      StageExtracting,
		BytesDone:  done,
		BytesTotal: total,
		FilesDone:  len(indices),
		FilesTotal: len(indices),
	})
	return results, nil
}

// extractEntry copies one payload to its destination.
func (a *Archive) extractEntry(idx int, e *Entry, sinks SinkFactory, testMode bool) Result {
	res := Result{Index: idx, Path: e.Path}

	var c Committer
	dst := io.Discard
	if !testMode {
		var err error
		c, err = sinks.Writer(idx, e)
		if err != nil {
			res.Status = StatusFailed
			res.Err = fmt.Errorf("extract %s: %w", e.Path, err)
			return res
		}
		if c == nil {
			res.Status = StatusSkipped
			return res
		}
		dst = c
	}

	cw := &iox.CountingWriter{W: iox.TagWriter(dst)}
	_, err := io.Copy(cw, a.section(e))
	res.Bytes = cw.N

	var we *iox.WriteError
	switch {
	case errors.As(err, &we):
		res.Status = StatusFailed
		res.Err = fmt.Errorf("extract %s: %w", e.Path, we.Err)
	case err != nil || cw.N != uint64(e.Size):
		res.Status = StatusDataError
		res.Err = fmt.Errorf("extract %s: %w: copied %d of %d bytes", e.Path, ErrDataError, cw.N, e.Size)
		if err != nil {
			res.Err = fmt.Errorf("%w: %w", res.Err, err)
		}
	}

	if c == nil {
		return res
	}
	if res.Err != nil {
		if derr := c.Discard(); derr != nil {
			res.Err = errors.Join(res.Err, fmt.Errorf("discard %s: %w", e.Path, derr))
		}
		return res
	}
	if err := c.Commit(); err != nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("commit %s: %w", e.Path, err)
		return res
	}
	res.Status = StatusOK
	return res
}
