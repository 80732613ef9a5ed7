// Package storage provides the pluggable raw key/value backends that the
// state store persists through.
//
// An Adapter is a flat string→string map with enumerable keys and a
// capacity-exceeded failure signal. Adapters are intentionally dumb: entry
// encoding, versioning, TTL, and migration all live one layer up in
// internal/state. Three implementations are provided:
//
//   - Memory: mutex-guarded map, optional byte capacity (tests, defaults)
//   - SQLite: durable single-file store with WAL mode
//   - Redis: shared remote backend behind a key prefix
//
// All adapters must treat Put as atomic per key: a failed Put leaves the
// previous value intact.
package storage

import "errors"

// ErrCapacityExceeded is returned by Put when the backend refuses a write
// because it would exceed its configured capacity. Callers may free space
// and retry.
var ErrCapacityExceeded = errors.New("storage: capacity exceeded")

// Adapter is the minimal backend contract required by the state store.
//
// Implementations must be safe for concurrent use.
type Adapter interface {
	// Put stores value under key, overwriting any previous value.
	// Returns ErrCapacityExceeded if the write would exceed capacity.
	Put(key, value string) error

	// Get returns the value for key. The boolean reports presence;
	// an absent key is not an error.
	Get(key string) (string, bool, error)

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key string) error

	// Keys enumerates all stored keys in unspecified order.
	Keys() ([]string, error)

	// Close releases backend resources.
	Close() error
}
