package umod

import "fmt"

// PropID names a property of the archive or of one entry.
type PropID uint8

// Entry properties, for Archive.Property.
const (
	// PropPath is the decoded path (string).
	PropPath PropID = iota

	// PropName is the stored name bytes ([]byte).
	PropName

	// PropOffset is the payload offset (uint32).
	PropOffset

	// PropPackSize is the stored payload size (uint32).
	PropPackSize

	// PropSize is the unpacked size (uint32). Payloads are stored, so it
	// always equals PropPackSize.
	PropSize

	// PropAttrib is the opaque flags bitmask (uint32).
	PropAttrib
)

// Archive properties, for Archive.ArchiveProperty.
const (
	// PropChecksum is the checksum stored in the trailer (uint32).
	PropChecksum PropID = iota + 64

	// PropVersion is the format version stored in the trailer (uint32).
	PropVersion

	// PropWarning is the newline-joined warning text (string).
	// It is absent when the archive has no warnings.
	PropWarning

	// PropDirOffset is the directory offset stored in the trailer (uint32).
	PropDirOffset

	// PropTotalBytes is the archive size declared by the trailer (uint32).
	PropTotalBytes
)

// String returns the property name.
func (p PropID) String() string {
	switch p {
	case PropPath:
		return "path"
	case PropName:
		return "name"
	case PropOffset:
		return "offset"
	case PropPackSize:
		return "packed size"
	case PropSize:
		return "size"
	case PropAttrib:
		return "attributes"
	case PropChecksum:
		return "checksum"
	case PropVersion:
		return "version"
	case PropWarning:
		return "warning"
	case PropDirOffset:
		return "directory offset"
	case PropTotalBytes:
		return "total bytes"
	default:
		return fmt.Sprintf("property(%d)", uint8(p))
	}
}

// Property returns property id of entry i.
//
// It fails with ErrIndexOutOfRange for a bad index and ErrUnknownProperty
// for an id that is not an entry property.
func (a *Archive) Property(i int, id PropID) (any, error) {
	e, err := a.entry(i)
	if err != nil {
		return nil, err
	}
	switch id {
	case PropPath:
		return e.Path, nil
	case PropName:
		return e.Name, nil
	case PropOffset:
		return e.Offset, nil
	case PropPackSize, PropSize:
		return e.Size, nil
	case PropAttrib:
		return e.Flags, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProperty, id)
	}
}

// ArchiveProperty returns an archive-level property.
// ok is false for unknown ids, for PropWarning when there are no warnings
// and for every id once the archive is closed.
func (a *Archive) ArchiveProperty(id PropID) (value any, ok bool) {
	if a.closed {
		return nil, false
	}
	switch id {
	case PropChecksum:
		return a.trailer.Checksum, true
	case PropVersion:
		return a.trailer.Version, true
	case PropWarning:
		if len(a.warnings) == 0 {
			return nil, false
		}
		return a.Warning(), true
	case PropDirOffset:
		return a.trailer.DirOffset, true
	case PropTotalBytes:
		return a.trailer.TotalBytes, true
	default:
		return nil, false
	}
}
