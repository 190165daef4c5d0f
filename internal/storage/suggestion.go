package storage

import (
	"fmt"

	"github.com/user/wifipilot/internal/model"
)

// SuggestionStorage holds the last submitted suggestion batch.
type SuggestionStorage struct {
	db *DB
}

// NewSuggestionStorage creates a new suggestion storage handler.
func NewSuggestionStorage(db *DB) *SuggestionStorage {
	return &SuggestionStorage{db: db}
}

// SaveSuggestions replaces the stored batch.
func (s *SuggestionStorage) SaveSuggestions(batch []model.Suggestion) error {
	return s.db.WithLock(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec("DELETE FROM suggestions"); err != nil {
			return fmt.Errorf("failed to clear suggestions: %w", err)
		}

		stmt, err := tx.Prepare(
			`INSERT INTO suggestions (ssid, bssid, signal_level, frequency, priority, submitted_at)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare suggestion statement: %w", err)
		}
		defer stmt.Close()

		for _, sg := range batch {
			if _, err := stmt.Exec(sg.SSID, sg.BSSID, sg.SignalLevel, sg.Frequency, sg.Priority, sg.SubmittedAt.UTC()); err != nil {
				return fmt.Errorf("failed to insert suggestion %s: %w", sg.BSSID, err)
			}
		}
		return tx.Commit()
	})
}

// GetCurrent returns the stored batch ordered by priority.
func (s *SuggestionStorage) GetCurrent() ([]model.Suggestion, error) {
	var batch []model.Suggestion
	err := s.db.WithRLock(func() error {
		rows, err := s.db.Query(
			`SELECT ssid, bssid, signal_level, frequency, priority, submitted_at
			 FROM suggestions ORDER BY priority DESC, id ASC`)
		if err != nil {
			return fmt.Errorf("failed to query suggestions: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var sg model.Suggestion
			if err := rows.Scan(&sg.SSID, &sg.BSSID, &sg.SignalLevel, &sg.Frequency, &sg.Priority, &sg.SubmittedAt); err != nil {
				return fmt.Errorf("failed to scan suggestion: %w", err)
			}
			batch = append(batch, sg)
		}
		return rows.Err()
	})
	return batch, err
}
