package state

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/taskweave/taskweave/internal/storage"
)

// SubscribeFunc observes changes to a single key. It receives the new
// value (nil on removal) and the key it was registered under.
type SubscribeFunc func(value any, key string)

// Store is a versioned, schema-validated key/value store with TTL expiry,
// lazy migration, backup/restore, and per-key change subscription.
//
// All state is persisted through a storage.Adapter; the store itself holds
// only schema registrations and live subscriptions.
//
// Thread-safety model:
//   - All mutation of the schema/subscription registries and all adapter
//     access is serialized by an internal mutex.
//   - Subscriber callbacks are invoked OUTSIDE the lock, so a callback may
//     itself call Set/Get/Subscribe without deadlocking.
//
// INVARIANTS:
//   - A rejected or failed Set leaves the prior entry untouched.
//   - Migration fires at most once per version transition; a migrated
//     value is persisted back under the current version immediately.
//   - Expired entries read as absent even before the sweeper removes them.
type Store struct {
	mu      sync.Mutex
	adapter storage.Adapter
	clock   Clock
	logger  *slog.Logger

	schemas map[string]Schema
	subs    map[string][]*subscription

	backupRetention time.Duration
	sweepInterval   time.Duration
}

type subscription struct {
	key string
	fn  SubscribeFunc
}

// DefaultBackupRetention is how long backup snapshots are kept before the
// sweeper prunes them.
const DefaultBackupRetention = 7 * 24 * time.Hour

// DefaultSweepInterval is how often the background sweeper runs.
const DefaultSweepInterval = time.Minute

// Option configures a Store at construction time.
type Option func(*Store)

// WithClock injects a clock. Tests use testutil.ManualClock for
// deterministic TTL and retention behavior.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger injects a structured logger for warnings and recovered
// subscriber failures. A nil logger silently discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithBackupRetention overrides the 7-day backup retention window.
func WithBackupRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.backupRetention = d
		}
	}
}

// WithSweepInterval overrides the background sweep interval.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// New creates a Store persisting through the given adapter.
func New(adapter storage.Adapter, opts ...Option) *Store {
	s := &Store{
		adapter:         adapter,
		clock:           SystemClock{},
		logger:          slog.Default(),
		schemas:         make(map[string]Schema),
		subs:            make(map[string][]*subscription),
		backupRetention: DefaultBackupRetention,
		sweepInterval:   DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// RegisterSchema binds a versioned schema to a key.
//
// Registering the same version again never triggers migration. Registering
// a higher version defers migration: the stored entry is upgraded lazily
// by the next Get (via Migrate) or overwritten by the next Set.
func (s *Store) RegisterSchema(key string, schema Schema) error {
	key = canonicalKey(key)
	if err := schema.validate(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[key] = schema
	return nil
}

// SetOption configures a single Set call.
type SetOption func(*setConfig)

type setConfig struct {
	ttl      time.Duration
	notify   bool
	validate bool
}

// WithTTL expires the entry ttl after the write. Subsequent reads treat
// the entry as absent once the deadline passes.
func WithTTL(ttl time.Duration) SetOption {
	return func(c *setConfig) {
		c.ttl = ttl
	}
}

// WithoutNotify suppresses subscriber notification for this write.
func WithoutNotify() SetOption {
	return func(c *setConfig) {
		c.notify = false
	}
}

// WithoutValidation skips the schema validate predicate for this write.
func WithoutValidation() SetOption {
	return func(c *setConfig) {
		c.validate = false
	}
}

// Set persists value under key.
//
// When validation is enabled (default) and the key's schema rejects the
// value, the write is refused with a VALIDATION_FAILED error and prior
// state is unchanged. An adapter capacity failure triggers one cleanup
// pass (expired entries and stale backups) and exactly one retry before
// surfacing STORAGE_FAILED.
func (s *Store) Set(key string, value any, opts ...SetOption) error {
	key = canonicalKey(key)
	cfg := setConfig{notify: true, validate: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	s.mu.Lock()
	schema, hasSchema := s.schemas[key]
	if cfg.validate && hasSchema && !schema.accepts(value) {
		s.mu.Unlock()
		return NewValidationError(key)
	}

	now := s.clock.Now()
	entry := Entry{
		Value:         value,
		SchemaVersion: schema.Version, // zero when no schema registered
		UpdatedAt:     now,
	}
	if cfg.ttl > 0 {
		deadline := now.Add(cfg.ttl)
		entry.ExpiresAt = &deadline
	}

	if err := s.writeEntryLocked(key, entry); err != nil {
		s.mu.Unlock()
		return err
	}

	var targets []*subscription
	if cfg.notify {
		targets = s.snapshotSubsLocked(key)
	}
	s.mu.Unlock()

	s.notify(targets, value, key)
	return nil
}

// writeEntryLocked marshals and puts an entry, running the cleanup-and-
// retry pass on capacity failure. Caller holds s.mu.
func (s *Store) writeEntryLocked(key string, entry Entry) error {
	data, err := marshalEntry(entry)
	if err != nil {
		return NewStorageError(key, err)
	}

	putErr := s.adapter.Put(entryKey(key), data)
	if putErr == storage.ErrCapacityExceeded {
		s.logger.Warn("adapter capacity exceeded, sweeping and retrying", "key", key)
		s.sweepLocked(s.clock.Now())
		putErr = s.adapter.Put(entryKey(key), data)
	}
	if putErr != nil {
		return NewStorageError(key, putErr)
	}
	return nil
}

// Get returns the current value for key.
//
// Absent, unparseable, and expired entries all resolve to the fallback:
// the explicit defaultValue if given, else the schema's Default, else nil.
// A stale entry whose schema registers a Migrate function is upgraded in
// place: migrated once, persisted under the current version, and returned.
// A failing migration is logged and fails closed to the fallback.
func (s *Store) Get(key string, defaultValue ...any) any {
	key = canonicalKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	schema := s.schemas[key]
	fallback := func() any {
		if len(defaultValue) > 0 {
			return defaultValue[0]
		}
		return schema.Default
	}

	raw, ok, err := s.adapter.Get(entryKey(key))
	if err != nil {
		s.logger.Warn("adapter read failed", "key", key, "error", err)
		return fallback()
	}
	if !ok {
		return fallback()
	}

	entry, err := unmarshalEntry(raw)
	if err != nil {
		s.logger.Warn("stored entry failed to parse", "key", key, "error", err)
		return fallback()
	}
	if entry.expired(s.clock.Now()) {
		// Physical removal happens on the sweep; reads just treat it absent.
		return fallback()
	}

	if schema.Migrate != nil && entry.SchemaVersion < schema.Version {
		migrated, err := schema.Migrate(entry.Value, entry.SchemaVersion)
		if err != nil {
			merr := NewMigrationError(key, entry.SchemaVersion, schema.Version, err)
			s.logger.Error("migration failed, falling back to default", "key", key, "error", merr)
			return fallback()
		}

		entry.Value = migrated
		entry.SchemaVersion = schema.Version
		entry.UpdatedAt = s.clock.Now()
		if err := s.writeEntryLocked(key, entry); err != nil {
			s.logger.Warn("failed to persist migrated entry", "key", key, "error", err)
		}
		return migrated
	}

	return entry.Value
}

// Has reports whether a non-expired entry exists for key.
func (s *Store) Has(key string) bool {
	key = canonicalKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.adapter.Get(entryKey(key))
	if err != nil || !ok {
		return false
	}
	entry, err := unmarshalEntry(raw)
	if err != nil {
		return false
	}
	return !entry.expired(s.clock.Now())
}

// Remove deletes the entry for key and notifies its subscribers with a
// nil value.
func (s *Store) Remove(key string) error {
	key = canonicalKey(key)

	s.mu.Lock()
	if err := s.adapter.Delete(entryKey(key)); err != nil {
		s.mu.Unlock()
		return NewStorageError(key, err)
	}
	targets := s.snapshotSubsLocked(key)
	s.mu.Unlock()

	s.notify(targets, nil, key)
	return nil
}

// ClearOption configures a Clear call.
type ClearOption func(*clearConfig)

type clearConfig struct {
	dropSchemas bool
}

// DropSchemas makes Clear discard schema registrations along with the
// entries. By default schemas survive.
func DropSchemas() ClearOption {
	return func(c *clearConfig) {
		c.dropSchemas = true
	}
}

// Clear deletes all entries. Backup snapshots are untouched; schema
// registrations are preserved unless DropSchemas is given.
func (s *Store) Clear(opts ...ClearOption) error {
	cfg := clearConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearEntriesLocked(); err != nil {
		return err
	}
	if cfg.dropSchemas {
		s.schemas = make(map[string]Schema)
	}
	return nil
}

// clearEntriesLocked deletes every entry-prefixed adapter key.
func (s *Store) clearEntriesLocked() error {
	keys, err := s.adapter.Keys()
	if err != nil {
		return NewStorageError("", err)
	}
	for _, k := range keys {
		if len(k) > len(entryPrefix) && k[:len(entryPrefix)] == entryPrefix {
			if err := s.adapter.Delete(k); err != nil {
				return NewStorageError(k, err)
			}
		}
	}
	return nil
}

// Subscribe registers fn to observe changes to key. The returned function
// removes the subscription; calling it more than once is a no-op.
func (s *Store) Subscribe(key string, fn SubscribeFunc) func() {
	key = canonicalKey(key)
	sub := &subscription{key: key, fn: fn}

	s.mu.Lock()
	s.subs[key] = append(s.subs[key], sub)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.subs[key]
		for i, candidate := range list {
			if candidate == sub {
				s.subs[key] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

// snapshotSubsLocked copies the subscriber list for key so callbacks run
// against a stable view. Caller holds s.mu.
func (s *Store) snapshotSubsLocked(key string) []*subscription {
	list := s.subs[key]
	if len(list) == 0 {
		return nil
	}
	out := make([]*subscription, len(list))
	copy(out, list)
	return out
}

// notify invokes subscriber callbacks in registration order, outside the
// store lock. A panicking subscriber is recovered and logged; remaining
// subscribers still run.
func (s *Store) notify(targets []*subscription, value any, key string) {
	for _, sub := range targets {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("subscriber panicked", "key", key, "panic", r)
				}
			}()
			sub.fn(value, key)
		}()
	}
}

// ExportState returns a copy of every live (non-expired) entry keyed by
// its logical key.
func (s *Store) ExportState() (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportLocked(s.clock.Now())
}

// exportLocked gathers live entries. Caller holds s.mu.
func (s *Store) exportLocked(now time.Time) (map[string]Entry, error) {
	keys, err := s.adapter.Keys()
	if err != nil {
		return nil, NewStorageError("", err)
	}

	out := make(map[string]Entry)
	for _, k := range keys {
		if len(k) <= len(entryPrefix) || k[:len(entryPrefix)] != entryPrefix {
			continue
		}
		raw, ok, err := s.adapter.Get(k)
		if err != nil || !ok {
			continue
		}
		entry, err := unmarshalEntry(raw)
		if err != nil {
			s.logger.Warn("skipping unparseable entry during export", "key", k, "error", err)
			continue
		}
		if entry.expired(now) {
			continue
		}
		out[k[len(entryPrefix):]] = entry
	}
	return out, nil
}

// ImportState destructively replaces all entries with the given snapshot.
// Schema registrations and backups are untouched. Subscribers are not
// notified; import is a bulk restore, not a series of writes.
func (s *Store) ImportState(entries map[string]Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.importLocked(entries)
}

// importLocked clears and rewrites all entries. Caller holds s.mu.
func (s *Store) importLocked(entries map[string]Entry) error {
	if err := s.clearEntriesLocked(); err != nil {
		return err
	}
	for key, entry := range entries {
		if err := s.writeEntryLocked(canonicalKey(key), entry); err != nil {
			return err
		}
	}
	return nil
}
