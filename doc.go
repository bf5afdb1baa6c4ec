// Package umod reads Unreal installer archives (".umod").
//
// A Umod archive is anchored by a 20-byte trailer at end of file that
// locates a directory of entries. Each entry names a byte range of the
// file holding the stored (uncompressed) payload. The trailer also records
// the declared archive size and a CRC of everything before it.
//
// The package never loads a whole archive into memory. Open reads only the
// trailer and the directory, then streams the body once to verify the
// checksum. Payloads are read on demand through bounded views.
//
// # Quick Start
//
//	f, err := umod.OpenFile(ctx, "Mod.umod")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	for i, e := range f.Entries() {
//	    fmt.Println(i, e.Path, e.Size)
//	}
//	results, err := f.ExtractAll(ctx, umod.NewFileSink("out"))
//
// # Damaged archives
//
// Historical archives are often slightly wrong. A checksum or declared-size
// mismatch does not fail Open; it is recorded in [Archive.Warnings]. An
// entry whose range runs past end of file fails on its own with
// [ErrDataError] while the remaining entries extract normally.
//
// # Remote archives
//
// [OpenURL] reads an archive over HTTP range requests through an in-memory
// block cache, so listing and single-entry reads do not download the whole
// file. It skips the checksum scan unless [WithVerify] turns it back on.
// [OpenSource] accepts any [ByteSource], for callers that build their
// own http.Source or cache.BlockCache.
//
// # Concurrency
//
// An Archive shares one stream cursor between all of its operations and
// must not be used from several goroutines at once. Open one Archive per
// goroutine, or serialize calls with a lock.
package umod
