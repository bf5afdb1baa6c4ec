package format

import "hash"

// crcPoly is the CRC-32 polynomial in MSB-first form, as used by bzip2.
const crcPoly = 0x04C11DB7

var crcTable = makeCRCTable()

func makeCRCTable() *[256]uint32 {
	var t [256]uint32
	for i := range t {
		c := uint32(i) << 24
		for range 8 {
			if c&0x80000000 != 0 {
				c = c<<1 ^ crcPoly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return &t
}

// crc32BZip2 is the non-reflected CRC-32 variant legacy Umod tools store in
// the trailer (init 0xFFFFFFFF, final xor 0xFFFFFFFF).
type crc32BZip2 struct {
	crc uint32
}

// NewCRC returns a hash computing the archive checksum.
func NewCRC() hash.Hash32 {
	return &crc32BZip2{crc: 0xFFFFFFFF}
}

// UpdateCRC returns the running (unfinalized) value crc updated with p.
func UpdateCRC(crc uint32, p []byte) uint32 {
	for _, b := range p {
		crc = crcTable[byte(crc>>24)^b] ^ crc<<8
	}
	return crc
}

func (c *crc32BZip2) Write(p []byte) (int, error) {
	c.crc = UpdateCRC(c.crc, p)
	return len(p), nil
}

func (c *crc32BZip2) Sum32() uint32 { return ^c.crc }

func (c *crc32BZip2) Sum(b []byte) []byte {
	s := c.Sum32()
	return append(b, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}

func (c *crc32BZip2) Reset()         { c.crc = 0xFFFFFFFF }
func (c *crc32BZip2) Size() int      { return 4 }
func (c *crc32BZip2) BlockSize() int { return 1 }
