package umod

// ProgressEvent represents a progress update during open, verification or extraction.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the entry currently being processed, if applicable.
	Path string

	// BytesDone is the number of bytes completed in the current operation.
	BytesDone uint64

	// BytesTotal is the total bytes for the current operation.
	// Zero indicates the total is unknown or not meaningful for the stage.
	BytesTotal uint64

	// FilesDone is the number of entries completed.
	FilesDone int

	// FilesTotal is the total number of entries.
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages.
const (
	// StageReadingDirectory indicates directory entries are being parsed.
	StageReadingDirectory ProgressStage = iota

	// StageVerifying indicates the archive body is being checksummed.
	StageVerifying

	// StageExtracting indicates entries are being extracted.
	StageExtracting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageReadingDirectory:
		return "reading directory"
	case StageVerifying:
		return "verifying"
	case StageExtracting:
		return "extracting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates. It is called synchronously on the
// goroutine running the operation. Cancellation is signalled through the
// operation's context, not through the callback.
type ProgressFunc func(ProgressEvent)
