package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rshade/greenledger/internal/activity"
	"github.com/rshade/greenledger/internal/footprint"
)

// keyPrefix versions the key derivation itself.
const keyPrefix = "footprint/v1"

// Key derives the cache key for an input computed with a factor version.
func Key(factorVersion string, n activity.Normalized) string {
	h := sha256.New()
	h.Write([]byte(keyPrefix))
	h.Write([]byte{0})
	h.Write([]byte(factorVersion))
	h.Write([]byte{0})
	h.Write([]byte(n.Canonical()))
	return hex.EncodeToString(h.Sum(nil))
}

// Results caches footprint results in a FileStore.
type Results struct {
	store *FileStore
}

// NewResults wraps store. A nil store behaves as disabled.
func NewResults(store *FileStore) *Results {
	return &Results{store: store}
}

// Lookup returns the cached result for key. Misses, expiry and a disabled
// store all report ok=false with a nil error; only I/O and decoding
// problems return an error.
func (r *Results) Lookup(key string) (footprint.Result, bool, error) {
	if r == nil || r.store == nil || !r.store.Enabled() {
		return footprint.Result{}, false, nil
	}
	e, err := r.store.Get(key)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrExpired):
		return footprint.Result{}, false, nil
	case err != nil:
		return footprint.Result{}, false, err
	}

	var res footprint.Result
	if err := json.Unmarshal(e.Data, &res); err != nil {
		return footprint.Result{}, false, fmt.Errorf("decoding cached footprint: %w", err)
	}
	return res, true, nil
}

// Store saves res under key. A disabled store is a no-op.
func (r *Results) Store(key string, res footprint.Result) error {
	if r == nil || r.store == nil || !r.store.Enabled() {
		return nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding footprint: %w", err)
	}
	return r.store.Set(key, data)
}
