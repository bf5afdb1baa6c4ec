package umod

import (
	"context"
	"fmt"
	"io"

	"github.com/meigma/umod/internal/format"
)

// verifyChecksum streams every byte before the trailer through the archive
// CRC and records a warning when it differs from the stored checksum.
//
// Only read failures and cancellation are returned as errors.
func (a *Archive) verifyChecksum(ctx context.Context) error {
	end := a.size - format.TrailerSize
	if _, err := a.r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("verify checksum: %w", err)
	}

	crc := format.NewCRC()
	buf := make([]byte, min(int64(a.chunkSize), max(end, 1)))
	total := uint64(end) //nolint:gosec // end >= 0 once the trailer was read
	files := len(a.entries)
	a.emit(ProgressEvent{Stage: StageVerifying, BytesTotal: total, FilesDone: files, FilesTotal: files})

	var done int64
	for done < end {
		n := min(int64(len(buf)), end-done)
		if _, err := io.ReadFull(a.r, buf[:n]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return fmt.Errorf("verify checksum at offset %d: %w", done, err)
		}
		_, _ = crc.Write(buf[:n])
		done += n

		a.emit(ProgressEvent{
			Stage:      StageVerifying,
			BytesDone:  uint64(done), //nolint:gosec // done is non-negative
			BytesTotal: total,
			FilesDone:  files,
			FilesTotal: files,
		})
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	sum := crc.Sum32()
	a.log().Debug("checksum computed", "stored", a.trailer.Checksum, "computed", sum)
	if sum != a.trailer.Checksum {
		a.warn("archive damaged: CRC mismatch: stored %08X, computed %08X", a.trailer.Checksum, sum)
	}
	return nil
}
