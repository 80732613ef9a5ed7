package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackup_RestoreRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Set("k", "a"))

	id, err := s.Backup()
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, s.Set("k", "b"))
	assert.Equal(t, "b", s.Get("k"))

	require.NoError(t, s.RestoreFromBackup(id))
	assert.Equal(t, "a", s.Get("k"))
}

func TestBackup_RestoreLatestByDefault(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Set("k", "first"))
	_, err := s.Backup()
	require.NoError(t, err)

	require.NoError(t, s.Set("k", "second"))
	_, err = s.Backup()
	require.NoError(t, err)

	require.NoError(t, s.Set("k", "dirty"))

	require.NoError(t, s.RestoreFromBackup())
	assert.Equal(t, "second", s.Get("k"))
}

func TestBackup_RestoreByExplicitID(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Set("k", "first"))
	first, err := s.Backup()
	require.NoError(t, err)

	require.NoError(t, s.Set("k", "second"))
	_, err = s.Backup()
	require.NoError(t, err)

	require.NoError(t, s.RestoreFromBackup(first))
	assert.Equal(t, "first", s.Get("k"))
}

func TestRestore_NoBackupsFails(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.RestoreFromBackup()
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
}

func TestRestore_UnknownIDFails(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Set("k", "v"))
	_, err := s.Backup()
	require.NoError(t, err)

	err = s.RestoreFromBackup("no-such-id")
	require.Error(t, err)
	assert.True(t, IsStorageError(err))

	// A failed restore leaves current state alone.
	assert.Equal(t, "v", s.Get("k"))
}

func TestRestore_RemovesEntriesAbsentFromSnapshot(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Set("kept", "v"))
	id, err := s.Backup()
	require.NoError(t, err)

	require.NoError(t, s.Set("added-later", "w"))

	require.NoError(t, s.RestoreFromBackup(id))
	assert.Equal(t, "v", s.Get("kept"))
	assert.Nil(t, s.Get("added-later"))
}

func TestBackup_ExcludesExpiredEntries(t *testing.T) {
	s, clock := newTestStore(t)

	require.NoError(t, s.Set("live", "1"))
	require.NoError(t, s.Set("dying", "2", WithTTL(time.Minute)))

	clock.Advance(2 * time.Minute)

	_, err := s.Backup()
	require.NoError(t, err)

	infos, err := s.Backups()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].Entries)
}

func TestBackups_ListsOldestFirst(t *testing.T) {
	s, clock := newTestStore(t)

	require.NoError(t, s.Set("k", "v"))
	firstID, err := s.Backup()
	require.NoError(t, err)

	clock.Advance(time.Hour)
	require.NoError(t, s.Set("k2", "w"))
	secondID, err := s.Backup()
	require.NoError(t, err)

	infos, err := s.Backups()
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, firstID, infos[0].ID)
	assert.Equal(t, secondID, infos[1].ID)
	assert.Equal(t, testEpoch, infos[0].CreatedAt)
	assert.Equal(t, 1, infos[0].Entries)
	assert.Equal(t, 2, infos[1].Entries)
}

func TestSweep_PrunesBackupsPastRetention(t *testing.T) {
	s, clock := newTestStore(t)

	require.NoError(t, s.Set("k", "v"))
	oldID, err := s.Backup()
	require.NoError(t, err)

	// Default retention is 7 days; 8 days later the snapshot is stale.
	clock.Advance(8 * 24 * time.Hour)
	freshID, err := s.Backup()
	require.NoError(t, err)

	result := s.Sweep()
	assert.Equal(t, 1, result.PrunedBackups)

	infos, err := s.Backups()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, freshID, infos[0].ID)

	err = s.RestoreFromBackup(oldID)
	assert.True(t, IsStorageError(err))
}

func TestSweep_CustomRetention(t *testing.T) {
	s, clock := newTestStore(t, WithBackupRetention(time.Hour))

	require.NoError(t, s.Set("k", "v"))
	_, err := s.Backup()
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	assert.Equal(t, 0, s.Sweep().PrunedBackups)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, s.Sweep().PrunedBackups)
}
