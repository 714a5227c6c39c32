// Package cache implements the block-level cache described in spec.md
// §4.3: a persistent, per-oracle mapping from ciphertext block to recovered
// intermediate state, so repeated runs against the same ciphertext and
// oracle cost zero oracle traffic for blocks already solved.
package cache

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nullbyte-labs/padoracle/internal/poerr"
)

// entry is one cached block inside the in-memory index. blockSize is carried
// per entry rather than derived, since a single cache file covers every
// oracle and block size the user has ever attacked with (spec.md §6).
type entry struct {
	oracleID    string
	blockSize   int
	cipherHex   string
	intermedHex string
}

func (e entry) key() string {
	return fmt.Sprintf("%s|%d|%s", e.oracleID, e.blockSize, e.cipherHex)
}

// Cache is the in-memory index backing §4.3's lookup/insert/flush contract.
// The zero value is not usable; construct with Open or NewNoop.
type Cache struct {
	path    string
	noop    bool
	mu      sync.RWMutex
	entries map[string]entry
	pending []entry // inserted since the last successful flush
	file    *os.File
}

// Open loads path into memory (one line per cached entry: "oracle_id
// block_size cipher_block_hex intermediate_hex", whitespace-separated).
// A missing file is not an error — it's created on first Flush. Lines that
// don't parse as those four fields (a decimal block size and two hex
// fields) are rejected as a format mismatch, since
// the cache must self-describe enough to reject a foreign file (§6 "(c)").
func Open(path string) (*Cache, error) {
	c := &Cache{path: path, entries: map[string]entry{}}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := splitFields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("cache: %s:%d: expected 4 fields, got %d", path, lineNo, len(fields))
		}
		blockSize, cipherHex, intermedHex := 0, fields[2], fields[3]
		if _, err := fmt.Sscanf(fields[1], "%d", &blockSize); err != nil {
			return nil, fmt.Errorf("cache: %s:%d: malformed block size: %w", path, lineNo, err)
		}
		if _, err := hex.DecodeString(cipherHex); err != nil {
			return nil, fmt.Errorf("cache: %s:%d: malformed cipher block hex: %w", path, lineNo, err)
		}
		if _, err := hex.DecodeString(intermedHex); err != nil {
			return nil, fmt.Errorf("cache: %s:%d: malformed intermediate hex: %w", path, lineNo, err)
		}
		e := entry{oracleID: fields[0], blockSize: blockSize, cipherHex: cipherHex, intermedHex: intermedHex}
		c.entries[e.key()] = e
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cache: reading %s: %w", path, err)
	}
	return c, nil
}

// NewNoop returns a Cache for the "no-cache" CLI flag: every Lookup misses,
// every Insert is a no-op, Flush does nothing (spec.md §4.3).
func NewNoop() *Cache {
	return &Cache{noop: true}
}

// Lookup returns the cached intermediate state for cipherBlock under
// oracleID/blockSize, and whether it was present. It never performs I/O —
// the backing file was read once at Open.
func (c *Cache) Lookup(oracleID string, blockSize int, cipherBlock []byte) ([]byte, bool) {
	if c.noop {
		return nil, false
	}

	key := entry{oracleID: oracleID, blockSize: blockSize, cipherHex: hex.EncodeToString(cipherBlock)}.key()

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	intermed, err := hex.DecodeString(e.intermedHex)
	if err != nil {
		// Entries are validated at load time; this would mean in-memory
		// corruption, which we treat the same as a miss rather than panic.
		return nil, false
	}
	return intermed, true
}

// Insert records intermediate as the recovered state for cipherBlock under
// oracleID/blockSize. Re-inserting an identical pair is a no-op. Inserting a
// different intermediate for an already-known cipherBlock is a fatal
// poerr.CacheCorruption — it means the oracle's behavior changed mid-run or
// two unrelated oracles collided on identity (spec.md §4.3).
func (c *Cache) Insert(oracleID string, blockSize int, cipherBlock, intermediate []byte) error {
	if c.noop {
		return nil
	}

	e := entry{
		oracleID:    oracleID,
		blockSize:   blockSize,
		cipherHex:   hex.EncodeToString(cipherBlock),
		intermedHex: hex.EncodeToString(intermediate),
	}
	key := e.key()

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		if existing.intermedHex == e.intermedHex {
			return nil
		}
		return &poerr.CacheCorruption{CipherBlockHex: e.cipherHex}
	}

	c.entries[key] = e
	c.pending = append(c.pending, e)
	return nil
}

// Flush durably appends every pending insert to the cache file. It's
// idempotent: a Flush with no pending inserts touches nothing on disk.
// Called at engine shutdown, and again after cancellation to persist
// whatever partial progress was made (spec.md §4.6, §5).
func (c *Cache) Flush() error {
	if c.noop {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("cache: creating cache directory: %w", err)
	}

	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("cache: opening %s for append: %w", c.path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range c.pending {
		if _, err := fmt.Fprintf(w, "%s %d %s %s\n", e.oracleID, e.blockSize, e.cipherHex, e.intermedHex); err != nil {
			return fmt.Errorf("cache: writing entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("cache: flushing writer: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("cache: syncing %s: %w", c.path, err)
	}

	c.pending = c.pending[:0]
	return nil
}

// DefaultPath returns the stable per-user cache location: one file covers
// every oracle this user has ever attacked (spec.md §6).
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cache: resolving user cache dir: %w", err)
	}
	return filepath.Join(dir, "padoracle", "blocks.cache"), nil
}

func splitFields(line string) []string {
	var fields []string
	start := -1
	for i, r := range line {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				fields = append(fields, line[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, line[start:])
	}
	return fields
}
