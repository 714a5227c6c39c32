package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nullbyte-labs/padoracle/internal/oracle"
)

// SelfTest is the pre-flight check described in SPEC_FULL.md's "Oracle
// self-test before a run" supplement, grounded in glebarez-GoPaddy's
// confirmOracle: before spending any real attack traffic, confirm the
// untampered ciphertext reports valid padding, and that tampering it
// reports invalid padding. The tamper step tries up to three replacement
// values for the last byte of the predecessor block and passes as soon as
// one is reported invalid, so a replacement that happens to still yield
// valid padding doesn't fail the check on its own.
func (e *Engine) SelfTest(ctx context.Context, ciphertext []byte) error {
	if err := e.validateCiphertext(ciphertext); err != nil {
		return err
	}

	verdict, err := e.askWithRetry(ctx, ciphertext)
	if err != nil {
		return fmt.Errorf("engine: self-test: querying untampered ciphertext: %w", err)
	}
	if verdict != oracle.Correct {
		return fmt.Errorf("engine: self-test: untampered ciphertext was reported as invalidly padded; this oracle does not look like a conforming padding oracle")
	}

	B := e.cfg.BlockSize
	tamperPos := len(ciphertext) - B - 1
	if tamperPos < 0 {
		// No-IV, single-block ciphertext: there is no predecessor byte
		// to tamper, since block 0 has no block before it to forge
		// against. The untampered check above is all confirmation this
		// input can offer.
		e.logger.Debug("self-test: no-IV single-block ciphertext has no tamperable predecessor byte, skipping tamper confirmation", zap.Int("length", len(ciphertext)), zap.Int("block_size", B))
		return nil
	}
	original := ciphertext[tamperPos]

	confirmed := false
	for _, candidate := range []byte{0x00, 0x01, 0x02, 0x03} {
		if candidate == original {
			continue
		}
		tampered := append([]byte(nil), ciphertext...)
		tampered[tamperPos] = candidate

		verdict, err := e.askWithRetry(ctx, tampered)
		if err != nil {
			return fmt.Errorf("engine: self-test: querying tampered ciphertext: %w", err)
		}
		if verdict == oracle.Incorrect {
			confirmed = true
			break
		}
	}
	if !confirmed {
		return fmt.Errorf("engine: self-test: tampering a byte never produced invalid padding; oracle behavior not confirmed")
	}

	return nil
}
