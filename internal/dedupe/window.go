// Package dedupe suppresses repeats of the same event within a short window.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Window remembers keys for a fixed TTL. A nil *Window never reports a duplicate.
type Window struct {
	mu  sync.Mutex
	ttl time.Duration
	c   *ristretto.Cache[string, struct{}]
}

// New creates a window holding keys for ttl, bounded by maxCostBytes of key
// material. A zero ttl disables suppression and returns nil.
func New(ttl time.Duration, maxCostBytes int64) (*Window, error) {
	if ttl <= 0 {
		return nil, nil
	}
	if maxCostBytes <= 0 {
		maxCostBytes = 1 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters: maxCostBytes / 64 * 10, // ~10x expected keys
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("dedupe cache: %w", err)
	}
	return &Window{ttl: ttl, c: c}, nil
}

// Seen records key and reports whether it was already recorded within the window.
func (w *Window) Seen(key string) bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, found := w.c.Get(key); found {
		return true
	}
	w.c.SetWithTTL(key, struct{}{}, int64(len(key)), w.ttl)
	w.c.Wait()
	return false
}

// Close releases the cache.
func (w *Window) Close() {
	if w == nil {
		return
	}
	w.c.Close()
}

// Key derives a fixed-size key from the parts identifying an event and its target.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		_, _ = fmt.Fprintf(h, "%d:", len(p))
		_, _ = h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
