package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/hfplog/hfplog/pkg/hfp"
)

// Trip is one row of the append-only trip registry. Rows are never updated
// or deleted once created.
type Trip struct {
	ID           int64  `json:"id"`
	GTFSID       string `json:"gtfsId"`
	RouteID      string `json:"routeId"`
	VehicleID    string `json:"vehicleId"`
	OperatorID   string `json:"operatorId"`
	OperatorName string `json:"operatorName"`
	StartTime    string `json:"startTime"`
	Day          string `json:"day"`
	Direction    int    `json:"direction"`
}

// TripIDByKey returns the canonical GTFS id registered for the key, or the
// empty string when the key has never been resolved.
func (s *Store) TripIDByKey(key hfp.TripKey) (string, error) {
	var gtfsID string
	err := s.db.QueryRow(`
SELECT gtfs_id FROM trips WHERE route_id = ? AND direction = ? AND start_time = ? AND day = ?`,
		key.RouteID, key.Direction, key.StartTime, key.OperatingDay).Scan(&gtfsID)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up trip: %w", err)
	}

	return gtfsID, nil
}

// InsertTrip registers a trip. The natural key is unique, a concurrent
// insert of the same key keeps the first row and silently discards this one.
func (s *Store) InsertTrip(trip *Trip) error {
	_, err := s.db.Exec(`
INSERT OR IGNORE INTO trips (gtfs_id, route_id, vehicle_id, operator_id, operator_name, start_time, day, direction)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		trip.GTFSID, trip.RouteID, trip.VehicleID, trip.OperatorID, trip.OperatorName,
		trip.StartTime, trip.Day, trip.Direction)
	if err != nil {
		return fmt.Errorf("inserting trip: %w", err)
	}

	return nil
}

// Trips lists the whole registry, oldest first.
func (s *Store) Trips() ([]*Trip, error) {
	rows, err := s.db.Query(`
SELECT id, gtfs_id, route_id, vehicle_id, operator_id, operator_name, start_time, day, direction
FROM trips ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	defer rows.Close()

	var trips []*Trip
	for rows.Next() {
		var trip Trip
		err := rows.Scan(
			&trip.ID,
			&trip.GTFSID,
			&trip.RouteID,
			&trip.VehicleID,
			&trip.OperatorID,
			&trip.OperatorName,
			&trip.StartTime,
			&trip.Day,
			&trip.Direction,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		trips = append(trips, &trip)
	}

	return trips, rows.Err()
}
