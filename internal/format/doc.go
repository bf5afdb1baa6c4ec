// Package format decodes the on-disk structures of Umod installer archives.
//
// A Umod archive is laid out as:
//   - File payloads, stored uncompressed at arbitrary offsets
//   - Directory: a compact-index item count followed by one record per item
//   - Trailer: 20 bytes at end of file (signature, directory offset,
//     declared size, format version, checksum)
//
// All fixed-width integers are little-endian uint32. The Append functions
// produce the same encodings but the package never assembles a whole
// archive.
package format
