package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/user/wifipilot/internal/model"
)

// DecisionStorage is the journal of decision cycles.
type DecisionStorage struct {
	db *DB
}

// NewDecisionStorage creates a new decision storage handler.
func NewDecisionStorage(db *DB) *DecisionStorage {
	return &DecisionStorage{db: db}
}

const decisionColumns = `id, cycle_id, timestamp, current_bssid, current_ssid, current_rssi,
	current_freq, has_internet, candidate_bssid, candidate_ssid, candidate_signal,
	candidate_freq, reason, batch_size, skipped, badge_warning`

// Save stores a decision record and sets its ID.
func (s *DecisionStorage) Save(rec *model.DecisionRecord) error {
	return s.db.WithLock(func() error {
		result, err := s.db.Exec(
			`INSERT INTO decisions (cycle_id, timestamp, current_bssid, current_ssid, current_rssi,
				current_freq, has_internet, candidate_bssid, candidate_ssid, candidate_signal,
				candidate_freq, reason, batch_size, skipped, badge_warning)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.CycleID, rec.Timestamp.UTC(), rec.CurrentBSSID, rec.CurrentSSID, rec.CurrentRSSI,
			rec.CurrentFreqMHz, boolToInt(rec.HasInternet), rec.CandidateBSSID, rec.CandidateSSID,
			rec.CandidateSignal, rec.CandidateFreq, rec.Reason, rec.BatchSize,
			boolToInt(rec.Skipped), boolToInt(rec.BadgeWarning))
		if err != nil {
			return fmt.Errorf("failed to insert decision: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get decision ID: %w", err)
		}
		rec.ID = id
		return nil
	})
}

// GetLatest returns the most recent decision, or nil when there is none.
func (s *DecisionStorage) GetLatest() (*model.DecisionRecord, error) {
	var rec *model.DecisionRecord
	err := s.db.WithRLock(func() error {
		row := s.db.QueryRow(`SELECT ` + decisionColumns + ` FROM decisions ORDER BY id DESC LIMIT 1`)
		r, err := scanDecision(row)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to query latest decision: %w", err)
		}
		rec = r
		return nil
	})
	return rec, err
}

// GetRecent returns up to limit decisions, newest first.
func (s *DecisionStorage) GetRecent(limit int) ([]model.DecisionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.query(`SELECT `+decisionColumns+` FROM decisions ORDER BY id DESC LIMIT ?`, limit)
}

// GetRange returns decisions in [since, until], oldest first.
func (s *DecisionStorage) GetRange(since, until time.Time) ([]model.DecisionRecord, error) {
	return s.query(`SELECT `+decisionColumns+` FROM decisions
		WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC`, since.UTC(), until.UTC())
}

// Cleanup removes decisions older than the given duration.
func (s *DecisionStorage) Cleanup(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	var n int64
	err := s.db.WithLock(func() error {
		result, err := s.db.Exec("DELETE FROM decisions WHERE timestamp < ?", cutoff)
		if err != nil {
			return fmt.Errorf("failed to cleanup decisions: %w", err)
		}
		n, _ = result.RowsAffected()
		return nil
	})
	return n, err
}

func (s *DecisionStorage) query(q string, args ...interface{}) ([]model.DecisionRecord, error) {
	var records []model.DecisionRecord
	err := s.db.WithRLock(func() error {
		rows, err := s.db.Query(q, args...)
		if err != nil {
			return fmt.Errorf("failed to query decisions: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanDecision(rows)
			if err != nil {
				return fmt.Errorf("failed to scan decision: %w", err)
			}
			records = append(records, *rec)
		}
		return rows.Err()
	})
	return records, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDecision(row rowScanner) (*model.DecisionRecord, error) {
	var rec model.DecisionRecord
	var curBSSID, curSSID, candBSSID, candSSID, reason sql.NullString
	var curRSSI, curFreq, candSignal, candFreq sql.NullInt64
	var hasInternet, skipped, badge int

	err := row.Scan(&rec.ID, &rec.CycleID, &rec.Timestamp, &curBSSID, &curSSID, &curRSSI,
		&curFreq, &hasInternet, &candBSSID, &candSSID, &candSignal, &candFreq, &reason,
		&rec.BatchSize, &skipped, &badge)
	if err != nil {
		return nil, err
	}

	rec.CurrentBSSID = curBSSID.String
	rec.CurrentSSID = curSSID.String
	rec.CurrentRSSI = int(curRSSI.Int64)
	rec.CurrentFreqMHz = int(curFreq.Int64)
	rec.HasInternet = hasInternet == 1
	rec.CandidateBSSID = candBSSID.String
	rec.CandidateSSID = candSSID.String
	rec.CandidateSignal = int(candSignal.Int64)
	rec.CandidateFreq = int(candFreq.Int64)
	rec.Reason = reason.String
	rec.Skipped = skipped == 1
	rec.BadgeWarning = badge == 1
	return &rec, nil
}
