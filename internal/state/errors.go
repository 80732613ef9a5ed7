package state

import (
	"errors"
	"fmt"
)

// StoreError represents a failure detected by the state store.
//
// Store errors include:
//   - Schema errors: Invalid schema registration (missing/non-positive version)
//   - Validation errors: Write rejected by the key's validate predicate
//   - Storage errors: Adapter failure that survived the cleanup-and-retry pass
//   - Migration errors: Migrate function failed; the read fails closed
//
// StoreError includes structured fields for diagnostics and recovery.
type StoreError struct {
	// Code identifies the error category.
	Code StoreErrorCode

	// Key identifies the affected entry, if any.
	Key string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause (optional).
	Err error
}

// StoreErrorCode categorizes store errors.
type StoreErrorCode string

const (
	// ErrCodeSchemaInvalid indicates a bad schema registration.
	ErrCodeSchemaInvalid StoreErrorCode = "SCHEMA_INVALID"

	// ErrCodeValidationFailed indicates the write was rejected by the
	// key's validate predicate. Prior state is unchanged.
	ErrCodeValidationFailed StoreErrorCode = "VALIDATION_FAILED"

	// ErrCodeStorageFailed indicates an adapter failure that survived
	// one cleanup pass and retry. Prior state is unchanged.
	ErrCodeStorageFailed StoreErrorCode = "STORAGE_FAILED"

	// ErrCodeMigrationFailed indicates the migrate function failed.
	// The read fails closed to the default value.
	ErrCodeMigrationFailed StoreErrorCode = "MIGRATION_FAILED"
)

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key=%s)", e.Code, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsSchemaError returns true if the error is a schema registration error.
// Uses errors.As to handle wrapped errors.
func IsSchemaError(err error) bool {
	return hasCode(err, ErrCodeSchemaInvalid)
}

// IsValidationError returns true if the error is a validation rejection.
func IsValidationError(err error) bool {
	return hasCode(err, ErrCodeValidationFailed)
}

// IsStorageError returns true if the error is an adapter failure that
// survived the retry.
func IsStorageError(err error) bool {
	return hasCode(err, ErrCodeStorageFailed)
}

// IsMigrationError returns true if the error is a migration failure.
func IsMigrationError(err error) bool {
	return hasCode(err, ErrCodeMigrationFailed)
}

func hasCode(err error, code StoreErrorCode) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// NewSchemaError creates a StoreError for an invalid registration.
func NewSchemaError(key, message string) *StoreError {
	return &StoreError{Code: ErrCodeSchemaInvalid, Key: key, Message: message}
}

// NewValidationError creates a StoreError for a rejected write.
func NewValidationError(key string) *StoreError {
	return &StoreError{
		Code:    ErrCodeValidationFailed,
		Key:     key,
		Message: "value rejected by schema validate predicate",
	}
}

// NewStorageError creates a StoreError wrapping an adapter failure.
func NewStorageError(key string, err error) *StoreError {
	return &StoreError{
		Code:    ErrCodeStorageFailed,
		Key:     key,
		Message: "adapter write failed after cleanup and retry",
		Err:     err,
	}
}

// NewMigrationError creates a StoreError for a failed migration.
func NewMigrationError(key string, fromVersion, toVersion int, err error) *StoreError {
	return &StoreError{
		Code:    ErrCodeMigrationFailed,
		Key:     key,
		Message: fmt.Sprintf("migrate v%d -> v%d failed", fromVersion, toVersion),
		Err:     err,
	}
}
