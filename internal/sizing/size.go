// Package sizing provides safe size arithmetic and conversions to prevent overflow.
package sizing

import "math"

// ToInt converts a uint64 to int, returning overflowErr if it doesn't fit.
func ToInt(size uint64, overflowErr error) (int, error) {
	if size > uint64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// End returns off+size as an int64 stream position.
// Both operands are 32-bit on disk, so the sum always fits.
func End(off, size uint32) int64 {
	return int64(off) + int64(size)
}
