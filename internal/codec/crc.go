package codec

// Checksum calcula CRC-16/CCITT (registro inicial 0xFFFF, polinomio 0x1021,
// MSB primero, sin xor final) sobre b.
func Checksum(b []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, v := range b {
		crc ^= uint16(v) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ CRCPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
