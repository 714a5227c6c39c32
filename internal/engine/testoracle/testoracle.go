// Package testoracle implements an in-process AES-CBC-PKCS7 padding oracle,
// grounded in manelmontilla-goracler/crypto/crypto.go's CBCEncrypt/
// CBCDecrypt and alesforz-cryptopals/cpaes/cbc.go's block-chaining loop.
// It exists purely so internal/engine's tests can drive the attack against
// a real cipher instead of a hand-rolled verdict stub.
package testoracle

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/nullbyte-labs/padoracle/internal/oracle"
	"github.com/nullbyte-labs/padoracle/internal/popad"
)

// Oracle is a reference AES-CBC-PKCS7 encryption/decryption service that
// implements internal/oracle.Oracle by reporting whether a forged
// ciphertext (IV||block, or predecessor||block) decrypts to validly-padded
// plaintext — the exact capability spec.md §1 assumes an attacker is
// exploiting.
type Oracle struct {
	key       []byte
	blockSize int
	asks      int // question count, for cache-hit/idempotence assertions in tests
}

// New generates a random AES key sized to blockSize (16 for AES-128; this
// repo only attacks B in {8, 16}, and 8-byte block ciphers aren't part of
// the AES family, so tests that want B=8 must supply their own oracle).
func New(blockSize int) (*Oracle, error) {
	key := make([]byte, blockSize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("testoracle: generating key: %w", err)
	}
	return &Oracle{key: key, blockSize: blockSize}, nil
}

// Identity implements oracle.Oracle. Each *Oracle instance is its own
// identity namespace — tests construct a fresh one whenever cache isolation
// matters.
func (o *Oracle) Identity() string {
	return fmt.Sprintf("testoracle-%p", o)
}

// Asks returns how many times Ask has been called, so cache-hit tests can
// assert a repeat run issued zero oracle questions (spec.md §8).
func (o *Oracle) Asks() int { return o.asks }

// Ask implements oracle.Oracle: forged is IV||block (or predecessor||
// block); it decrypts and reports whether PKCS#7 padding is valid.
func (o *Oracle) Ask(_ context.Context, forged []byte) (oracle.Verdict, error) {
	o.asks++

	B := o.blockSize
	if len(forged) != 2*B {
		return oracle.Incorrect, nil
	}

	block, err := aes.NewCipher(o.key)
	if err != nil {
		return oracle.Transient, fmt.Errorf("testoracle: %w", err)
	}
	mode := cipher.NewCBCDecrypter(block, forged[:B])
	plaintext := make([]byte, B)
	mode.CryptBlocks(plaintext, forged[B:])

	if popad.Valid(plaintext, B) {
		return oracle.Correct, nil
	}
	return oracle.Incorrect, nil
}

// Encrypt produces a ciphertext (IV prepended) whose plaintext is data,
// PKCS#7-padded. It's the ground truth tests compare recovered plaintext
// against.
func (o *Oracle) Encrypt(data []byte) ([]byte, error) {
	B := o.blockSize
	iv := make([]byte, B)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("testoracle: generating IV: %w", err)
	}

	padded := popad.Pad(data, B)

	block, err := aes.NewCipher(o.key)
	if err != nil {
		return nil, fmt.Errorf("testoracle: %w", err)
	}
	mode := cipher.NewCBCEncrypter(block, iv)
	ciphertext := make([]byte, len(padded))
	mode.CryptBlocks(ciphertext, padded)

	return append(append([]byte(nil), iv...), ciphertext...), nil
}

// DecryptNoPadCheck decrypts ciphertext (IV-prefixed) without validating or
// stripping padding, for tests that want to check and strip the padding
// themselves.
func (o *Oracle) DecryptNoPadCheck(ciphertext []byte) ([]byte, error) {
	B := o.blockSize
	block, err := aes.NewCipher(o.key)
	if err != nil {
		return nil, fmt.Errorf("testoracle: %w", err)
	}
	mode := cipher.NewCBCDecrypter(block, ciphertext[:B])
	out := make([]byte, len(ciphertext)-B)
	mode.CryptBlocks(out, ciphertext[B:])
	return out, nil
}
