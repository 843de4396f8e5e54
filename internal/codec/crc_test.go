package codec

import "testing"

func TestChecksumReferenceValues(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint16
	}{
		{name: "nil", in: nil, want: 0xFFFF},
		{name: "empty", in: []byte{}, want: 0xFFFF},
		{name: "check string", in: []byte("123456789"), want: 0x29B1},
		{name: "single zero byte", in: []byte{0x00}, want: 0xE1F0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.in); got != tt.want {
				t.Errorf("Checksum(%q) = %04x, want %04x", tt.in, got, tt.want)
			}
		})
	}
}

func TestChecksumStable(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := Checksum(nil); got != 0xFFFF {
			t.Fatalf("Checksum(nil) call %d = %04x", i, got)
		}
	}
}

func TestChecksumDetectsSingleByteCorruption(t *testing.T) {
	body := []byte(`{"type":"device_status","sequence":7,"timestamp":1000,"status":{"wifi_connected":true,"gps_fix":false,"battery_level":88,"ble_connected":true}}`)
	want := Checksum(body)

	for i := range body {
		corrupted := append([]byte(nil), body...)
		corrupted[i] ^= 0x20
		if Checksum(corrupted) == want {
			t.Errorf("corrupting byte %d (%q) did not change the checksum", i, body[i])
		}
	}
}
