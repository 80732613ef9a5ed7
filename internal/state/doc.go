// Package state implements the persistent key/value core that application
// features (todos, reminders, recurring tasks, widgets) build on.
//
// The store is versioned and schema-validated:
//   - Schemas: Per-key contract with version, validate predicate,
//     default value, and lazy migration
//   - TTL: Entries expire in place; reads treat them as absent before the
//     sweeper physically removes them
//   - Backups: Full point-in-time snapshots with UUIDv7 ids, pruned after
//     a retention window
//   - Subscriptions: Per-key change callbacks, invoked synchronously in
//     registration order, outside the store lock
//
// # Failure Discipline
//
// Every failure is recovered locally and surfaced as a *StoreError with a
// category code (SCHEMA_INVALID, VALIDATION_FAILED, STORAGE_FAILED,
// MIGRATION_FAILED). A rejected write never disturbs prior state; a
// failed migration fails closed to the key's default rather than
// propagating a half-migrated value.
//
// # Capacity Handling
//
// When the adapter refuses a write for capacity, the store runs one
// cleanup pass (expired entries, stale backups) and retries exactly once
// before reporting STORAGE_FAILED.
//
// Keys are NFC-normalized so logically identical Unicode spellings
// address the same entry.
package state
