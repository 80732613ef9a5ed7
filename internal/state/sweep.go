package state

import (
	"context"
	"strings"
	"time"
)

// SweepResult reports what a sweep pass removed.
type SweepResult struct {
	ExpiredEntries int
	PrunedBackups  int
}

// Sweep removes TTL-expired entries and backup snapshots older than the
// retention window. Callers normally rely on RunSweeper; Sweep exists for
// the CLI and for the capacity-retry path.
func (s *Store) Sweep() SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.clock.Now())
}

// sweepLocked performs one cleanup pass. Caller holds s.mu.
func (s *Store) sweepLocked(now time.Time) SweepResult {
	var result SweepResult

	keys, err := s.adapter.Keys()
	if err != nil {
		s.logger.Warn("sweep: listing keys failed", "error", err)
		return result
	}

	cutoff := now.Add(-s.backupRetention)
	for _, k := range keys {
		switch {
		case strings.HasPrefix(k, entryPrefix):
			raw, ok, err := s.adapter.Get(k)
			if err != nil || !ok {
				continue
			}
			entry, err := unmarshalEntry(raw)
			if err != nil || !entry.expired(now) {
				continue
			}
			if err := s.adapter.Delete(k); err != nil {
				s.logger.Warn("sweep: delete expired entry failed", "key", k, "error", err)
				continue
			}
			result.ExpiredEntries++

		case strings.HasPrefix(k, backupPrefix):
			raw, ok, err := s.adapter.Get(k)
			if err != nil || !ok {
				continue
			}
			snap, err := unmarshalSnapshot(raw)
			if err != nil || !snap.CreatedAt.Before(cutoff) {
				continue
			}
			if err := s.adapter.Delete(k); err != nil {
				s.logger.Warn("sweep: prune backup failed", "key", k, "error", err)
				continue
			}
			result.PrunedBackups++
		}
	}

	if result.ExpiredEntries > 0 || result.PrunedBackups > 0 {
		s.logger.Info("sweep completed",
			"expired_entries", result.ExpiredEntries,
			"pruned_backups", result.PrunedBackups)
	}
	return result
}

// RunSweeper runs periodic sweeps until ctx is cancelled. Call it from a
// dedicated goroutine:
//
//	go store.RunSweeper(ctx)
func (s *Store) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
