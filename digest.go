package umod

import (
	_ "crypto/sha256" // registers sha256 for digest.Canonical
	"fmt"

	"github.com/opencontainers/go-digest"
)

// Digest returns the canonical (sha256) digest of entry i's payload.
// A payload cut short by end of file fails with ErrDataError.
func (a *Archive) Digest(i int) (digest.Digest, error) {
	e, err := a.entry(i)
	if err != nil {
		return "", err
	}
	sec := a.section(e)
	d, err := digest.Canonical.FromReader(sec)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w: %w", e.Path, ErrDataError, err)
	}
	if rem := sec.Remaining(); rem > 0 {
		return "", fmt.Errorf("digest %s: %w: %d bytes missing", e.Path, ErrDataError, rem)
	}
	return d, nil
}
