package oggopus

// crc32Table implements the specific CRC-32 variant Ogg pages use: polynomial
// 0x04c11db7, initial value 0, no input/output reflection. This differs from
// the reflected CRC-32 in the standard library's hash/crc32, so it is
// implemented directly here.
var crc32Table [256]uint32

func init() {
	const poly = uint32(0x04c11db7)
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for bit := 0; bit < 8; bit++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		crc32Table[i] = crc
	}
}

func oggCRC32(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = (crc << 8) ^ crc32Table[byte(crc>>24)^b]
	}
	return crc
}
