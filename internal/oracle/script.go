package oracle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/nullbyte-labs/padoracle/internal/poenc"
)

// Script is the subprocess realization of the Oracle capability (spec.md
// §4.1): each question spawns a fresh child with the encoded forged
// ciphertext as argv[1]. Exit 0 means Correct-Padding, any other exit means
// Incorrect-Padding; only a failure to spawn the process at all is
// Transient.
type Script struct {
	path     string
	encoding poenc.Encoding
	delay    time.Duration
	identity string
}

// NewScript builds a Script oracle targeting the executable at path.
// blockSize is folded into the cache identity so B=8 and B=16 runs against
// the same script never share cache entries (spec.md §9).
func NewScript(path string, encoding poenc.Encoding, delay time.Duration, blockSize int) (*Script, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("oracle: resolving script path: %w", err)
	}
	identity := IdentityHash(fmt.Sprintf("%s|%d", abs, blockSize))
	return &Script{path: abs, encoding: encoding, delay: delay, identity: identity}, nil
}

// Identity implements Oracle.
func (s *Script) Identity() string { return s.identity }

// Ask implements Oracle. Stdout and stderr are discarded per spec.md §4.1.
func (s *Script) Ask(ctx context.Context, forged []byte) (Verdict, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Transient, ctx.Err()
		}
	}

	encoded := s.encoding.Encode(forged)
	cmd := exec.CommandContext(ctx, s.path, encoded)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	err := cmd.Run()
	if err == nil {
		return Correct, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// A non-zero exit is a definitive verdict, never transient.
		return Incorrect, nil
	}

	return Transient, fmt.Errorf("oracle: spawning script: %w", err)
}
