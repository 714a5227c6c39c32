package poenc

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data := []byte{0x00, 0x11, 0x22, 0xff, 0xab}
	for _, enc := range []Encoding{Hex, Base64, Base64URL} {
		s := enc.Encode(data)
		got, err := enc.Decode(s)
		if err != nil {
			t.Fatalf("%s: Decode() error = %v", enc, err)
		}
		if string(got) != string(data) {
			t.Fatalf("%s: round trip = %x, want %x", enc, got, data)
		}
	}
}

func TestParse(t *testing.T) {
	for _, label := range []string{"hex", "base64", "base64url"} {
		if _, err := Parse(label); err != nil {
			t.Fatalf("Parse(%q) error = %v", label, err)
		}
	}
	if _, err := Parse("rot13"); err == nil {
		t.Fatal("expected error for unknown encoding")
	}
}
