package engine

import (
	"context"
	"fmt"

	"github.com/nullbyte-labs/padoracle/internal/pobytes"
	"github.com/nullbyte-labs/padoracle/internal/popad"
)

// ForgeResult is the terminal output of a Forge run.
type ForgeResult struct {
	Ciphertext    []byte
	Intermediates [][]byte // one per chosen-plaintext block, indexed in plaintext (left-to-right) order
}

// Forge implements spec.md §4.5: given chosen plaintext and a reference
// ciphertext's final block, it produces a ciphertext the oracle decrypts to
// plaintext (PKCS#7-padded) followed by that reused final block.
//
// Per spec.md §9 Open Question (b), no-IV mode is fully supported here: the
// forger never needs block 0's real plaintext, only cLast as a terminator,
// and no synthetic IV block is prepended: the result is the forged blocks
// followed by cLast in both modes, the same length either way. Whether the
// caller is running in IV or no-IV mode only changes what a subsequent
// Decrypt of the forgery can recover about block 0; it never changes how
// Forge itself behaves.
func (e *Engine) Forge(ctx context.Context, plaintext, cLast []byte) (ForgeResult, error) {
	B := e.cfg.BlockSize
	if len(cLast) != B {
		return ForgeResult{}, fmt.Errorf("engine: reference final block must be %d bytes, got %d", B, len(cLast))
	}

	padded := popad.Pad(plaintext, B)
	blocks, err := pobytes.Chunks(padded, B)
	if err != nil {
		return ForgeResult{}, fmt.Errorf("engine: %w", err)
	}

	rightBlock := cLast
	forgedBlocks := make([][]byte, len(blocks))
	intermediates := make([][]byte, len(blocks))

	for k := len(blocks) - 1; k >= 0; k-- {
		if e.progress.Cancelled() {
			return ForgeResult{}, fmt.Errorf("engine: forge cancelled")
		}

		// recoverBlock needs a "ciphertext index" purely for cache keying
		// and progress reporting; forging has no natural block index, so
		// we use the position in the forged sequence.
		res, err := e.recoverBlock(ctx, k, rightBlock, make([]byte, B))
		if err != nil {
			return ForgeResult{}, fmt.Errorf("engine: recovering intermediate state for forged block %d: %w", k, err)
		}

		Qk := pobytes.XOR(blocks[k], res.Intermediate)
		forgedBlocks[k] = Qk
		intermediates[k] = res.Intermediate
		rightBlock = Qk
	}

	var ciphertext []byte
	for _, b := range forgedBlocks {
		ciphertext = append(ciphertext, b...)
	}
	ciphertext = append(ciphertext, cLast...)

	return ForgeResult{Ciphertext: ciphertext, Intermediates: intermediates}, nil
}
