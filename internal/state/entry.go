package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Entry is the persisted representation of one key's value.
// ExpiresAt nil means the entry never expires.
type Entry struct {
	Value         any        `json:"value"`
	SchemaVersion int        `json:"schema_version"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

// expired reports whether the entry's TTL has elapsed at now.
func (e Entry) expired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// Raw key prefixes. Entries and backup snapshots share one adapter
// keyspace; the prefix keeps them enumerable separately.
const (
	entryPrefix  = "entry:"
	backupPrefix = "backup:"
)

// canonicalKey normalizes a user key to NFC so logically identical
// Unicode spellings address the same entry.
func canonicalKey(key string) string {
	return norm.NFC.String(key)
}

func entryKey(key string) string {
	return entryPrefix + key
}

// marshalEntry serializes an entry to JSON TEXT for the adapter.
// HTML escaping is disabled so stored text matches what callers wrote.
func marshalEntry(e Entry) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return "", fmt.Errorf("marshal entry: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalEntry parses JSON TEXT from the adapter into an Entry.
func unmarshalEntry(data string) (Entry, error) {
	var e Entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return Entry{}, fmt.Errorf("unmarshal entry: %w", err)
	}
	return e, nil
}
