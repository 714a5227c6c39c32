// Package poenc renders forged ciphertexts to and from the wire encoding an
// oracle expects. The CLI boundary already decoded the original ciphertext
// before handing it to the core (spec.md §6); this package exists so every
// forged submission the engine builds is rendered back out in that same,
// uniform encoding.
package poenc

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Encoding identifies one of the wire encodings the engine submits forged
// ciphertexts in. A single Encoding is selected once per run and used for
// every question the engine asks — spec.md §4.1 forbids mixing encodings
// mid-run.
type Encoding int

const (
	// Hex renders bytes as lowercase hexadecimal.
	Hex Encoding = iota
	// Base64 renders bytes as standard Base64 (RFC 4648 §4).
	Base64
	// Base64URL renders bytes as URL-safe Base64 (RFC 4648 §5).
	Base64URL
)

// String implements fmt.Stringer for diagnostics and CLI flag echoing.
func (e Encoding) String() string {
	switch e {
	case Hex:
		return "hex"
	case Base64:
		return "base64"
	case Base64URL:
		return "base64url"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// Parse maps a CLI-supplied label to an Encoding.
func Parse(label string) (Encoding, error) {
	switch label {
	case "hex":
		return Hex, nil
	case "base64":
		return Base64, nil
	case "base64url":
		return Base64URL, nil
	default:
		return 0, fmt.Errorf("poenc: unknown encoding %q", label)
	}
}

// Encode renders data in the receiver's encoding.
func (e Encoding) Encode(data []byte) string {
	switch e {
	case Hex:
		return hex.EncodeToString(data)
	case Base64:
		return base64.StdEncoding.EncodeToString(data)
	case Base64URL:
		return base64.URLEncoding.EncodeToString(data)
	default:
		panic(fmt.Sprintf("poenc: unhandled encoding %d", int(e)))
	}
}

// Decode parses s back into bytes using the receiver's encoding. Used at the
// CLI boundary to decode the original ciphertext before it ever reaches the
// core (spec.md §6: "Raw ciphertext bytes (already decoded...) plus the
// original encoding label for echo-back").
func (e Encoding) Decode(s string) ([]byte, error) {
	switch e {
	case Hex:
		return hex.DecodeString(s)
	case Base64:
		return base64.StdEncoding.DecodeString(s)
	case Base64URL:
		return base64.URLEncoding.DecodeString(s)
	default:
		return nil, fmt.Errorf("poenc: unhandled encoding %d", int(e))
	}
}
