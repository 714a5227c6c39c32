// Package pobytes collects the small byte-slice helpers the attack engine
// needs to split a ciphertext into blocks and combine recovered intermediate
// states back into plaintext.
package pobytes

import (
	"crypto/rand"
	"fmt"
)

// XOR returns a new slice holding the byte-wise XOR of b1 and b2.
// It does not modify either input, and panics if the slices differ in
// length: the engine only ever XORs same-size blocks, so a mismatch here
// is a programming error, not a runtime condition to recover from.
func XOR(b1, b2 []byte) []byte {
	if len(b1) != len(b2) {
		panic(fmt.Sprintf("pobytes: XOR of mismatched lengths %d and %d", len(b1), len(b2)))
	}

	out := make([]byte, len(b1))
	for i := range out {
		out[i] = b1[i] ^ b2[i]
	}
	return out
}

// Chunks splits data into consecutive chunkSize-byte slices. It returns an
// error if data isn't an exact multiple of chunkSize — callers validate the
// ciphertext length invariant before calling this, so a mismatch here means
// that validation was skipped.
func Chunks(data []byte, chunkSize int) ([][]byte, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("pobytes: chunk size must be positive, got %d", chunkSize)
	}
	if len(data)%chunkSize != 0 {
		return nil, fmt.Errorf(
			"pobytes: data length %d is not a multiple of chunk size %d", len(data), chunkSize,
		)
	}

	n := len(data) / chunkSize
	chunks := make([][]byte, n)
	for i := range chunks {
		start := i * chunkSize
		chunks[i] = data[start : start+chunkSize]
	}
	return chunks, nil
}

// Copy returns a fresh copy of slice, safe to mutate independently of the
// original. Every worker goroutine that tampers with a shared ciphertext
// block must start from a Copy of it.
func Copy(slice []byte) []byte {
	out := make([]byte, len(slice))
	copy(out, slice)
	return out
}

// Random returns n cryptographically random bytes, used for the key and IV
// of the toy XOR oracle in the engine's tests.
func Random(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("pobytes: generating random bytes: %w", err)
	}
	return buf, nil
}
