package cache

import (
	"encoding/json"
	"time"
)

// Entry is one cached payload with its expiry.
type Entry struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// newEntry stamps data with a TTL starting at now.
func newEntry(key string, data json.RawMessage, now time.Time, ttl time.Duration) Entry {
	return Entry{
		Key:       key,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// ExpiredAt reports whether the entry is past its expiry at t.
func (e Entry) ExpiredAt(t time.Time) bool {
	return t.After(e.ExpiresAt)
}

// RemainingAt returns the time left at t, or 0.
func (e Entry) RemainingAt(t time.Time) time.Duration {
	return max(e.ExpiresAt.Sub(t), 0)
}
