package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Counter is a monotonically increasing occurrence count keyed by a category
// and a sub id, e.g. ("event", "doo") or ("stop", "1234567/stop").
type Counter struct {
	Category string `json:"type"`
	SubID    string `json:"id"`
	Count    int64  `json:"count"`
}

// IncrementCounter adds one to the counter, creating it at 1 when absent.
// The upsert is a single statement, concurrent callers never observe a
// read-then-write race.
func (s *Store) IncrementCounter(category string, subID string) error {
	_, err := s.db.Exec(`
INSERT INTO stats (type, id, count) VALUES (?, ?, 1)
ON CONFLICT (type, id) DO UPDATE SET count = count + 1`,
		category, subID)
	if err != nil {
		return fmt.Errorf("incrementing counter: %w", err)
	}

	return nil
}

// CounterValue returns the current count, zero when the counter does not
// exist yet.
func (s *Store) CounterValue(category string, subID string) (int64, error) {
	var count int64
	err := s.db.QueryRow(`SELECT count FROM stats WHERE type = ? AND id = ?`, category, subID).Scan(&count)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading counter: %w", err)
	}

	return count, nil
}

func (s *Store) Counters() ([]*Counter, error) {
	rows, err := s.db.Query(`SELECT type, id, count FROM stats ORDER BY type, id`)
	if err != nil {
		return nil, fmt.Errorf("listing counters: %w", err)
	}
	defer rows.Close()

	var counters []*Counter
	for rows.Next() {
		var counter Counter
		if err := rows.Scan(&counter.Category, &counter.SubID, &counter.Count); err != nil {
			return nil, fmt.Errorf("scanning counter: %w", err)
		}
		counters = append(counters, &counter)
	}

	return counters, rows.Err()
}
