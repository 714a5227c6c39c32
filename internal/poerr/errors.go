// Package poerr defines the typed error taxonomy shared by the oracle,
// calibrator, cache and engine packages, so that the CLI layer can map a
// failure onto an exit code without string-matching error messages.
package poerr

import "fmt"

// InvalidCiphertext is returned when a ciphertext fails the length
// invariants before it ever reaches the engine.
type InvalidCiphertext struct {
	Reason string
}

func (e *InvalidCiphertext) Error() string {
	return fmt.Sprintf("invalid ciphertext: %s", e.Reason)
}

// CalibrationAmbiguous is returned when the calibration sample produces
// either two equally-sized classes or three or more classes.
type CalibrationAmbiguous struct {
	ClassSizes []int
}

func (e *CalibrationAmbiguous) Error() string {
	return fmt.Sprintf(
		"calibration ambiguous: response classes of sizes %v; try enabling consider-body",
		e.ClassSizes,
	)
}

// OracleAlwaysRespondsSame is returned when every calibration sample landed
// in a single response class.
type OracleAlwaysRespondsSame struct {
	SampleSize int
}

func (e *OracleAlwaysRespondsSame) Error() string {
	return fmt.Sprintf(
		"oracle always responds the same across all %d calibration samples; try enabling consider-body",
		e.SampleSize,
	)
}

// NoValidByte is returned when zero candidates out of 256 (after retries)
// produced a Correct-Padding verdict for a given block and padding position.
type NoValidByte struct {
	Block    int
	PadValue int
}

func (e *NoValidByte) Error() string {
	return fmt.Sprintf(
		"no valid byte found for block %d at padding value %d: oracle behavior changed, clock skew, or rate limiting",
		e.Block, e.PadValue,
	)
}

// OracleTransient wraps an I/O failure (connection reset, timeout, DNS
// failure, spawn failure) that the caller already retried the configured
// number of times.
type OracleTransient struct {
	Err     error
	Retries int
}

func (e *OracleTransient) Error() string {
	return fmt.Sprintf("oracle transient failure after %d retries: %s", e.Retries, e.Err)
}

func (e *OracleTransient) Unwrap() error { return e.Err }

// CacheCorruption is returned when the cache already holds a different
// intermediate state for a cipher block than the one being inserted.
type CacheCorruption struct {
	CipherBlockHex string
}

func (e *CacheCorruption) Error() string {
	return fmt.Sprintf(
		"cache corruption: conflicting intermediate state for cipher block %s", e.CipherBlockHex,
	)
}

// KeywordMissing is returned at Web oracle config validation time when the
// substitution keyword is not present in the request template.
type KeywordMissing struct {
	Keyword string
}

func (e *KeywordMissing) Error() string {
	return fmt.Sprintf("keyword %q not found in URL, headers, or body", e.Keyword)
}

// Cancelled is returned when the run was stopped by a user-initiated
// cancellation. It is not itself a failure: the cache is flushed and any
// partial plaintext recovered so far is still returned to the caller.
type Cancelled struct{}

func (e *Cancelled) Error() string { return "cancelled" }
