package engine

import (
	"context"
	"testing"

	"github.com/nullbyte-labs/padoracle/internal/cache"
	"github.com/nullbyte-labs/padoracle/internal/engine/testoracle"
	"github.com/nullbyte-labs/padoracle/internal/oracle"
)

// alwaysCorrectOracle reports every ciphertext, of any length, as validly
// padded. It exists only to exercise SelfTest's no-IV single-block guard,
// where no real oracle's Ask convention (predecessor||target) applies.
type alwaysCorrectOracle struct{}

func (alwaysCorrectOracle) Identity() string { return "always-correct-test-oracle" }

func (alwaysCorrectOracle) Ask(context.Context, []byte) (oracle.Verdict, error) {
	return oracle.Correct, nil
}

func TestSelfTestPassesAgainstConformingOracle(t *testing.T) {
	o, err := testoracle.New(16)
	if err != nil {
		t.Fatalf("testoracle.New: %s", err)
	}
	ciphertext, err := o.Encrypt([]byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt: %s", err)
	}

	e, err := New(NewConfig(16, true), o, cache.NewNoop(), nil)
	if err != nil {
		t.Fatalf("New: %s", err)
	}

	if err := e.SelfTest(context.Background(), ciphertext); err != nil {
		t.Fatalf("SelfTest: %s", err)
	}
}

func TestSelfTestRejectsAlreadyInvalidCiphertext(t *testing.T) {
	o, err := testoracle.New(16)
	if err != nil {
		t.Fatalf("testoracle.New: %s", err)
	}
	ciphertext, err := o.Encrypt([]byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt: %s", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xFF // corrupt the final padding byte

	e, err := New(NewConfig(16, true), o, cache.NewNoop(), nil)
	if err != nil {
		t.Fatalf("New: %s", err)
	}

	if err := e.SelfTest(context.Background(), ciphertext); err == nil {
		t.Fatal("expected SelfTest to reject a ciphertext that's already invalidly padded")
	}
}

// TestSelfTestNoIVSingleBlockSkipsTamperStep covers the minimum-length no-IV
// case (spec.md §3: len(ciphertext) >= B without an IV), where there is no
// predecessor block to tamper. SelfTest must not index before the start of
// the ciphertext trying to find one.
func TestSelfTestNoIVSingleBlockSkipsTamperStep(t *testing.T) {
	const B = 16
	ciphertext := make([]byte, B) // exactly one block, no IV

	e, err := New(NewConfig(B, false), alwaysCorrectOracle{}, cache.NewNoop(), nil)
	if err != nil {
		t.Fatalf("New: %s", err)
	}

	if err := e.SelfTest(context.Background(), ciphertext); err != nil {
		t.Fatalf("SelfTest: %s", err)
	}
}
