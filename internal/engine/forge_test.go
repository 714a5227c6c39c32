package engine

import (
	"context"
	"testing"

	"github.com/nullbyte-labs/padoracle/internal/cache"
	"github.com/nullbyte-labs/padoracle/internal/engine/testoracle"
	"github.com/nullbyte-labs/padoracle/internal/popad"
)

func TestForgeRoundTrip(t *testing.T) {
	o, err := testoracle.New(16)
	if err != nil {
		t.Fatalf("testoracle.New: %s", err)
	}

	// A captured session ciphertext to borrow a terminating block from.
	captured, err := o.Encrypt([]byte("session=abc123"))
	if err != nil {
		t.Fatalf("Encrypt: %s", err)
	}
	cLast := captured[len(captured)-16:]

	e, err := New(NewConfig(16, true), o, cache.NewNoop(), nil)
	if err != nil {
		t.Fatalf("New: %s", err)
	}

	result, err := e.Forge(context.Background(), []byte("admin=true"), cLast)
	if err != nil {
		t.Fatalf("Forge: %s", err)
	}

	if len(result.Ciphertext) != 32 {
		t.Fatalf("expected a 32-byte forged ciphertext (2 blocks), got %d", len(result.Ciphertext))
	}

	decrypted, err := o.DecryptNoPadCheck(result.Ciphertext)
	if err != nil {
		t.Fatalf("DecryptNoPadCheck: %s", err)
	}
	unpadded, err := popad.Unpad(decrypted, 16)
	if err != nil {
		t.Fatalf("Unpad: %s", err)
	}
	if string(unpadded) != "admin=true" {
		t.Fatalf("got %q, want %q", unpadded, "admin=true")
	}
}

func TestForgeNoIVModeOmitsSyntheticIVBlock(t *testing.T) {
	o, err := testoracle.New(16)
	if err != nil {
		t.Fatalf("testoracle.New: %s", err)
	}
	captured, err := o.Encrypt([]byte("reference"))
	if err != nil {
		t.Fatalf("Encrypt: %s", err)
	}
	cLast := captured[len(captured)-16:]

	e, err := New(NewConfig(16, false), o, cache.NewNoop(), nil)
	if err != nil {
		t.Fatalf("New: %s", err)
	}

	result, err := e.Forge(context.Background(), []byte("x"), cLast)
	if err != nil {
		t.Fatalf("Forge: %s", err)
	}

	// "x" padded to one block, plus the reused terminator: 2 blocks total,
	// same as IV-mode — Forge's behavior doesn't depend on HasIV at all
	// (spec.md §9 Open Question (b)); only a subsequent Decrypt's ability
	// to recover block 0 differs.
	if len(result.Ciphertext) != 32 {
		t.Fatalf("expected a 32-byte forged ciphertext, got %d", len(result.Ciphertext))
	}
}
