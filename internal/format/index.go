package format

import "io"

// MaxIndexLen is the maximum number of bytes in an encoded compact index.
const MaxIndexLen = 5

// ReadIndex decodes one compact index from r.
//
// The first byte carries a sign bit (0x80), a continuation bit (0x40) and
// six value bits. Up to three further bytes carry a continuation bit (0x80)
// and seven value bits each. A fifth byte, if reached, contributes its low
// five bits and always terminates. Bits beyond 32 are dropped.
func ReadIndex(r io.ByteReader) (uint32, error) {
	var v uint32
	for i := range MaxIndexLen {
		b, err := r.ReadByte()
		if err != nil {
			return 0, truncated("compact index", err)
		}
		switch {
		case i == 0:
			if b&0x80 != 0 {
				return 0, ErrNegativeValue
			}
			v |= uint32(b & 0x3F)
			if b&0x40 == 0 {
				return v, nil
			}
		case i == MaxIndexLen-1:
			v |= uint32(b&0x1F) << (6 + 3*7)
		default:
			v |= uint32(b&0x7F) << (6 + (i-1)*7)
			if b&0x80 == 0 {
				return v, nil
			}
		}
	}
	return v, nil
}

// AppendIndex appends the compact index encoding of v to dst.
func AppendIndex(dst []byte, v uint32) []byte {
	b := byte(v & 0x3F)
	v >>= 6
	if v == 0 {
		return append(dst, b)
	}
	dst = append(dst, b|0x40)
	for range MaxIndexLen - 2 {
		b = byte(v & 0x7F)
		v >>= 7
		if v == 0 {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
	return append(dst, byte(v&0x1F))
}
