package ports

import "context"

// KVStore is the persisted key-value store backing device-local state:
// favorite ID snapshots, saved search filters, user preferences.
//
// Values are JSON-serializable and durable until explicitly overwritten or
// removed; there is no TTL. Concurrent writes to the same key are
// last-write-wins. Keys are namespaced per concern and, for
// principal-specific values, additionally by principal ID so switching
// accounts on one device never leaks another account's cached state.
type KVStore interface {
	// Get unmarshals the stored value into dest and reports whether the key
	// was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}
