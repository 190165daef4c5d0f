package storage

import (
	"fmt"
	"time"

	"github.com/user/wifipilot/internal/decision"
	"github.com/user/wifipilot/internal/model"
)

// ProbationStorage persists probation entries so they survive restarts and
// can be edited from another process.
type ProbationStorage struct {
	db *DB
}

// NewProbationStorage creates a new probation storage handler.
func NewProbationStorage(db *DB) *ProbationStorage {
	return &ProbationStorage{db: db}
}

// Upsert inserts or replaces the entry for bssid.
func (s *ProbationStorage) Upsert(bssid string, expiry time.Time, reason string) error {
	return s.db.WithLock(func() error {
		_, err := s.db.Exec(
			`INSERT INTO probation (bssid_key, bssid, expiry, reason) VALUES (?, ?, ?, ?)
			 ON CONFLICT(bssid_key) DO UPDATE SET bssid = excluded.bssid,
			 	expiry = excluded.expiry, reason = excluded.reason`,
			decision.NormalizeBSSID(bssid), bssid, expiry.UTC(), reason)
		if err != nil {
			return fmt.Errorf("failed to upsert probation: %w", err)
		}
		return nil
	})
}

// Delete removes the entry for bssid. It reports whether a row was removed.
func (s *ProbationStorage) Delete(bssid string) (bool, error) {
	var removed bool
	err := s.db.WithLock(func() error {
		result, err := s.db.Exec("DELETE FROM probation WHERE bssid_key = ?", decision.NormalizeBSSID(bssid))
		if err != nil {
			return fmt.Errorf("failed to delete probation: %w", err)
		}
		n, _ := result.RowsAffected()
		removed = n > 0
		return nil
	})
	return removed, err
}

// GetActive returns entries that have not expired at now.
func (s *ProbationStorage) GetActive(now time.Time) ([]model.ProbationEntry, error) {
	var entries []model.ProbationEntry
	err := s.db.WithRLock(func() error {
		rows, err := s.db.Query(
			"SELECT bssid, expiry FROM probation WHERE expiry > ? ORDER BY expiry ASC", now.UTC())
		if err != nil {
			return fmt.Errorf("failed to query probation: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var e model.ProbationEntry
			if err := rows.Scan(&e.BSSID, &e.Expiry); err != nil {
				return fmt.Errorf("failed to scan probation: %w", err)
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	return entries, err
}

// Purge deletes entries that expired at or before now.
func (s *ProbationStorage) Purge(now time.Time) (int64, error) {
	var n int64
	err := s.db.WithLock(func() error {
		result, err := s.db.Exec("DELETE FROM probation WHERE expiry <= ?", now.UTC())
		if err != nil {
			return fmt.Errorf("failed to purge probation: %w", err)
		}
		n, _ = result.RowsAffected()
		return nil
	})
	return n, err
}
