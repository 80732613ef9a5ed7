package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BackupInfo describes one stored snapshot.
type BackupInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Entries   int       `json:"entries"`
}

// backupSnapshot is the persisted form of a full point-in-time copy.
type backupSnapshot struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Entries   map[string]Entry `json:"entries"`
}

// Backup writes a full snapshot of all live entries and returns its id.
//
// Snapshot ids are UUIDv7: the embedded timestamp makes ids sortable by
// creation time, so "most recent" is simply the lexicographic maximum.
// Snapshots older than the retention window are pruned by the sweeper.
func (s *Store) Backup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	entries, err := s.exportLocked(now)
	if err != nil {
		return "", err
	}

	snap := backupSnapshot{
		ID:        uuid.Must(uuid.NewV7()).String(),
		CreatedAt: now,
		Entries:   entries,
	}

	data, err := marshalSnapshot(snap)
	if err != nil {
		return "", NewStorageError(snap.ID, err)
	}
	if err := s.adapter.Put(backupPrefix+snap.ID, data); err != nil {
		return "", NewStorageError(snap.ID, err)
	}
	return snap.ID, nil
}

// RestoreFromBackup destructively replaces all entries with the snapshot
// identified by id, or the most recent snapshot when id is omitted.
// Fails if no matching snapshot exists.
func (s *Store) RestoreFromBackup(id ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rawKey string
	if len(id) > 0 && id[0] != "" {
		rawKey = backupPrefix + id[0]
	} else {
		latest, err := s.latestBackupKeyLocked()
		if err != nil {
			return err
		}
		rawKey = latest
	}

	raw, ok, err := s.adapter.Get(rawKey)
	if err != nil {
		return NewStorageError(rawKey, err)
	}
	if !ok {
		return NewStorageError(rawKey, fmt.Errorf("no such backup snapshot"))
	}

	snap, err := unmarshalSnapshot(raw)
	if err != nil {
		return NewStorageError(rawKey, err)
	}
	return s.importLocked(snap.Entries)
}

// Backups lists stored snapshots, oldest first.
func (s *Store) Backups() ([]BackupInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.backupKeysLocked()
	if err != nil {
		return nil, err
	}

	infos := make([]BackupInfo, 0, len(keys))
	for _, k := range keys {
		raw, ok, err := s.adapter.Get(k)
		if err != nil || !ok {
			continue
		}
		snap, err := unmarshalSnapshot(raw)
		if err != nil {
			s.logger.Warn("skipping unparseable backup", "key", k, "error", err)
			continue
		}
		infos = append(infos, BackupInfo{
			ID:        snap.ID,
			CreatedAt: snap.CreatedAt,
			Entries:   len(snap.Entries),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos, nil
}

// backupKeysLocked enumerates raw backup keys. Caller holds s.mu.
func (s *Store) backupKeysLocked() ([]string, error) {
	keys, err := s.adapter.Keys()
	if err != nil {
		return nil, NewStorageError("", err)
	}
	out := keys[:0:0]
	for _, k := range keys {
		if strings.HasPrefix(k, backupPrefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// latestBackupKeyLocked finds the newest snapshot by id ordering.
// UUIDv7 ids sort by creation time. Caller holds s.mu.
func (s *Store) latestBackupKeyLocked() (string, error) {
	keys, err := s.backupKeysLocked()
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", NewStorageError("", fmt.Errorf("no backup snapshots exist"))
	}
	latest := keys[0]
	for _, k := range keys[1:] {
		if k > latest {
			latest = k
		}
	}
	return latest, nil
}

func marshalSnapshot(snap backupSnapshot) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalSnapshot(data string) (backupSnapshot, error) {
	var snap backupSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return backupSnapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}
