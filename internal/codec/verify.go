package codec

import (
	"bytes"
	"fmt"
	"strconv"
)

var crcField = []byte(`,"crc":`)

// SplitChecksum separa el campo crc (siempre el último) del resto del
// mensaje y devuelve el cuerpo tal como estaba antes de agregarlo.
func SplitChecksum(text []byte) ([]byte, uint16, error) {
	t := bytes.TrimSpace(text)
	i := bytes.LastIndex(t, crcField)
	if i < 0 || len(t) == 0 || t[len(t)-1] != '}' {
		return nil, 0, ErrChecksumMissing
	}
	digits := t[i+len(crcField) : len(t)-1]
	v, err := strconv.ParseUint(string(digits), 10, 16)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %q", ErrChecksumMissing, digits)
	}

	body := make([]byte, 0, i+1)
	body = append(body, t[:i]...)
	body = append(body, '}')
	return body, uint16(v), nil
}

// Verify recalcula el CRC de un mensaje recibido. Devuelve el CRC
// transmitido y ErrChecksumMismatch si no coincide.
func Verify(text []byte) (uint16, error) {
	body, crc, err := SplitChecksum(text)
	if err != nil {
		return 0, err
	}
	if got := Checksum(body); got != crc {
		return crc, fmt.Errorf("%w: got %04x want %04x", ErrChecksumMismatch, got, crc)
	}
	return crc, nil
}
