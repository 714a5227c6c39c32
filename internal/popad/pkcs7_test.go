package popad

import (
	"bytes"
	"testing"
)

func TestPadUnpadRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		data      []byte
		blockSize int
	}{
		{"shorter than block", []byte("YELLOW"), 16},
		{"exact multiple", []byte("YELLOW SUBMARINE"), 16},
		{"empty", []byte{}, 16},
		{"block size 8", []byte("admin=true"), 8},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			padded := Pad(c.data, c.blockSize)
			if len(padded)%c.blockSize != 0 {
				t.Fatalf("padded length %d not a multiple of %d", len(padded), c.blockSize)
			}
			if len(padded) == len(c.data) {
				t.Fatalf("Pad must always add at least one byte of padding")
			}

			unpadded, err := Unpad(padded, c.blockSize)
			if err != nil {
				t.Fatalf("Unpad() error = %v", err)
			}
			if !bytes.Equal(unpadded, c.data) {
				t.Fatalf("Unpad(Pad(x)) = %q, want %q", unpadded, c.data)
			}
		})
	}
}

func TestUnpadRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"zero pad value", append([]byte("123456789012345"), 0x00)},
		{"pad value exceeds block size", append([]byte("123456789012345"), 0x11)},
		{"inconsistent trailing bytes", append([]byte("1234567890123"), 0x03, 0x03, 0x02)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if Valid(c.data, 16) {
				t.Fatalf("expected %q to be invalid padding", c.data)
			}
			if _, err := Unpad(c.data, 16); err == nil {
				t.Fatal("expected Unpad to return an error")
			}
		})
	}
}
