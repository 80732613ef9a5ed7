package state

// ValidateFunc reports whether a value is acceptable for a key.
// A nil ValidateFunc accepts every value.
type ValidateFunc func(value any) bool

// MigrateFunc transforms a stored value from an older schema version to
// the currently registered version. It is called with the stored value and
// the version it was written under, and must return the value in its
// current-version shape.
//
// Migration is a single direct jump: the store never chains migrations
// through intermediate versions.
type MigrateFunc func(oldValue any, oldVersion int) (any, error)

// Schema is the versioned contract bound to a key.
//
// Version is mandatory and must be positive. The remaining fields are
// optional: a nil Validate accepts everything, Default is returned by Get
// when the key is absent, and Migrate upgrades stale entries lazily on the
// next read.
type Schema struct {
	Version  int
	Validate ValidateFunc
	Default  any
	Migrate  MigrateFunc
}

// validate checks the schema at registration time.
func (s Schema) validate(key string) error {
	if s.Version < 1 {
		return NewSchemaError(key, "schema version must be a positive integer")
	}
	return nil
}

// accepts applies the validate predicate, treating nil as always-valid.
func (s Schema) accepts(value any) bool {
	if s.Validate == nil {
		return true
	}
	return s.Validate(value)
}
