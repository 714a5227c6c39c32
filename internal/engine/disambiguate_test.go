package engine

import (
	"context"
	"testing"

	"github.com/nullbyte-labs/padoracle/internal/cache"
	"github.com/nullbyte-labs/padoracle/internal/pobytes"
)

// TestDisambiguatesP1FalsePositive builds a block whose true intermediate
// state happens to validate as both a correct 1-byte pad (the real
// candidate) and a correct 2-byte pad (a spurious coincidence) at the very
// first byte position, per spec.md §4.4's disambiguation rule and §8
// scenario 5. Two candidates must reach the oracle query at p=1; the engine
// must flip a bit at position B-2 and re-query to keep the true one.
func TestDisambiguatesP1FalsePositive(t *testing.T) {
	const B = 8

	// intermediate[6] = 2 makes the last two bytes coincidentally look like
	// a valid "0x02 0x02" pad whenever the forged last byte also decrypts
	// to 2, even though the real byte the engine is after produces a valid
	// "0x01" pad instead.
	intermediate := []byte{0, 0, 0, 0, 0, 0, 2, 5}
	key := []byte{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}
	target := pobytes.XOR(intermediate, key) // Ask derives intermediate back out as target xor key

	trueByte := intermediate[7] ^ 1     // forged last byte making plaintext end in 0x01
	spuriousByte := intermediate[7] ^ 2 // forged last byte making plaintext end in 0x02, paired with intermediate[6]==2
	if trueByte == spuriousByte {
		t.Fatal("test fixture: true and spurious candidate bytes must differ")
	}

	predecessor := make([]byte, B) // all zero, so plaintext == intermediate exactly
	ciphertext := append(append([]byte(nil), predecessor...), target...)

	o := &xorOracle{key: key}

	e, err := New(NewConfig(B, true), o, cache.NewNoop(), nil)
	if err != nil {
		t.Fatalf("New: %s", err)
	}

	result, err := e.Decrypt(context.Background(), ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %s", err)
	}

	got := result.Blocks[1].Intermediate
	if string(got) != string(intermediate) {
		t.Fatalf("recovered intermediate %x, want %x (disambiguation likely kept the spurious 0x02-pad candidate)", got, intermediate)
	}
	if string(result.Plaintext) != string(intermediate) {
		t.Fatalf("recovered plaintext %x, want %x", result.Plaintext, intermediate)
	}
}

// TestDisambiguateDirectlyPicksTruePositive exercises disambiguate in
// isolation against the same two-candidate setup, independent of the full
// block recovery loop.
func TestDisambiguateDirectlyPicksTruePositive(t *testing.T) {
	const B = 8

	intermediate := []byte{0, 0, 0, 0, 0, 0, 2, 5}
	key := []byte{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}
	target := pobytes.XOR(intermediate, key)

	trueByte := intermediate[7] ^ 1
	spuriousByte := intermediate[7] ^ 2

	o := &xorOracle{key: key}
	e, err := New(NewConfig(B, true), o, cache.NewNoop(), nil)
	if err != nil {
		t.Fatalf("New: %s", err)
	}

	Q := make([]byte, B) // all zero, matching recoverBlock's state entering p=1
	chosen, err := e.disambiguate(context.Background(), Q, target, B-1, []byte{trueByte, spuriousByte})
	if err != nil {
		t.Fatalf("disambiguate: %s", err)
	}
	if chosen != trueByte {
		t.Fatalf("disambiguate chose %#x, want the true candidate %#x", chosen, trueByte)
	}
}
