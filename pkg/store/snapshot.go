package store

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoSnapshot is returned by Restore when no snapshot file exists. A fresh
// deployment starts empty, any other restore failure is for the caller to
// treat as fatal.
var ErrNoSnapshot = errors.New("no snapshot file")

var snapshotTables = []string{
	"trips",
	"trip_events",
	"door_events",
	"traffic_light_priorities",
	"stats",
}

// Snapshot copies the full live store to path, replacing any previous
// snapshot. VACUUM INTO reads a consistent view, so ingestion keeps writing
// while the copy runs, and the rename keeps the old snapshot intact if the
// copy dies halfway.
func (s *Store) Snapshot(path string) error {
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing previous snapshot temp file: %w", err)
	}

	// VACUUM does not take bound parameters, quote the filename instead.
	quoted := strings.ReplaceAll(tmp, "'", "''")
	if _, err := s.db.Exec(fmt.Sprintf(`VACUUM INTO '%s'`, quoted)); err != nil {
		return fmt.Errorf("copying store to %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	return nil
}

// Restore loads a snapshot file into the live store. It is only meant to run
// against an empty store before ingestion starts.
func (s *Store) Restore(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ErrNoSnapshot
	} else if err != nil {
		return fmt.Errorf("checking snapshot: %w", err)
	}

	if _, err := s.db.Exec(`ATTACH DATABASE ? AS snapshot`, path); err != nil {
		return fmt.Errorf("attaching snapshot %s: %w", path, err)
	}

	for _, table := range snapshotTables {
		query := fmt.Sprintf(`INSERT INTO main.%s SELECT * FROM snapshot.%s`, table, table)
		if _, err := s.db.Exec(query); err != nil {
			s.db.Exec(`DETACH DATABASE snapshot`)
			return fmt.Errorf("restoring %s: %w", table, err)
		}
	}

	if _, err := s.db.Exec(`DETACH DATABASE snapshot`); err != nil {
		return fmt.Errorf("detaching snapshot: %w", err)
	}

	return nil
}
