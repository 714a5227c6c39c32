// Package popad implements PKCS#7 padding and validation for arbitrary block
// sizes. The attack engine never encrypts anything itself, but it needs to
// pad chosen plaintext before forging (§4.5) and to recognize the shape of a
// valid pad when it builds the reference oracle used in tests.
package popad

import "fmt"

// Pad appends PKCS#7 padding to data so its length becomes a multiple of
// blockSize. If data's length is already a multiple of blockSize, a full
// extra block of padding is added — PKCS#7 always adds between 1 and
// blockSize bytes, never zero, so that decryption can always tell padding
// from data.
func Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+pad)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(pad)
	}
	return padded
}

// Unpad strips and validates PKCS#7 padding from data, which must be a
// multiple of blockSize. It returns an error if the padding is malformed:
// the trailing byte doesn't encode a value in [1, blockSize], or fewer than
// that many trailing bytes actually carry it.
func Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("popad: data length %d is not a multiple of block size %d", len(data), blockSize)
	}

	padVal := int(data[len(data)-1])
	if padVal < 1 || padVal > blockSize || padVal > len(data) {
		return nil, fmt.Errorf("popad: invalid padding value %d", padVal)
	}

	for i := len(data) - padVal; i < len(data); i++ {
		if int(data[i]) != padVal {
			return nil, fmt.Errorf("popad: inconsistent padding byte at position %d", i)
		}
	}

	return data[:len(data)-padVal], nil
}

// Valid reports whether data ends in well-formed PKCS#7 padding for the
// given blockSize, without returning the unpadded plaintext. This is the
// shape of check a CBC decryption service runs before rejecting malformed
// ciphertext with a padding error — used by the reference oracle in tests
// to decide whether to report Correct or Incorrect padding.
func Valid(data []byte, blockSize int) bool {
	_, err := Unpad(data, blockSize)
	return err == nil
}
