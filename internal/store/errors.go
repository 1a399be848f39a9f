package store

type constError string

func (e constError) Error() string { return string(e) }

const (
	// ErrStateConflict indicates the record changed since it was read.
	ErrStateConflict = constError("state changed concurrently")

	// ErrStoreCorrupted indicates the state file exists but cannot be decoded.
	// Callers should abort unless the user explicitly resets the store.
	ErrStoreCorrupted = constError("state file corrupted")

	// ErrNotFound indicates a missing goal.
	ErrNotFound = constError("not found")
)
