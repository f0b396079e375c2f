package store

import (
	"fmt"
)

// StopEvent is a point-in-time vehicle observation tied to a trip. It covers
// both the stop arrival/passing events and the generic non-positional ones
// (driver sign-in, journey sign-on and so forth), distinguished by Type.
type StopEvent struct {
	ID        int64    `json:"id"`
	TripID    string   `json:"tripId"`
	Time      *int64   `json:"time"`
	Type      string   `json:"type"`
	Speed     *float64 `json:"speed"`
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"long"`
	Delay     *int     `json:"delay"`
	Stop      *int64   `json:"stop"`
	Occupancy *int     `json:"occupancy"`
}

// DoorEvent is a door open/close transition.
type DoorEvent struct {
	ID     int64  `json:"id"`
	TripID string `json:"tripId"`
	Opened bool   `json:"doorOpened"`
	Stop   *int64 `json:"stop"`
	Time   *int64 `json:"time"`
}

// PriorityEvent is a traffic light priority request or its reply.
type PriorityEvent struct {
	ID           int64  `json:"id"`
	TripID       string `json:"tripId"`
	Time         *int64 `json:"time"`
	Request      bool   `json:"request"`
	JunctionID   *int64 `json:"junctionId"`
	Acknowledged bool   `json:"responseAcknowledged"`
}

// The trip_id columns reference the registry only advisorily: a write with
// an unknown trip id is kept rather than rejected, so a registry hiccup
// never costs event rows.

func (s *Store) InsertStopEvent(event *StopEvent) error {
	_, err := s.db.Exec(`
INSERT INTO trip_events (trip_id, time, type, speed, lat, long, delay, stop, occupancy)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.TripID, event.Time, event.Type, event.Speed, event.Latitude, event.Longitude,
		event.Delay, event.Stop, event.Occupancy)
	if err != nil {
		return fmt.Errorf("inserting trip event: %w", err)
	}

	return nil
}

func (s *Store) InsertDoorEvent(event *DoorEvent) error {
	_, err := s.db.Exec(`
INSERT INTO door_events (trip_id, door_opened, stop, time)
VALUES (?, ?, ?, ?)`,
		event.TripID, event.Opened, event.Stop, event.Time)
	if err != nil {
		return fmt.Errorf("inserting door event: %w", err)
	}

	return nil
}

func (s *Store) InsertPriorityEvent(event *PriorityEvent) error {
	_, err := s.db.Exec(`
INSERT INTO traffic_light_priorities (trip_id, time, request, junction_id, response_acknowledged)
VALUES (?, ?, ?, ?, ?)`,
		event.TripID, event.Time, event.Request, event.JunctionID, event.Acknowledged)
	if err != nil {
		return fmt.Errorf("inserting traffic light priority: %w", err)
	}

	return nil
}

// StopEvents lists the trip events that happened at a known stop.
func (s *Store) StopEvents() ([]*StopEvent, error) {
	return s.queryStopEvents(`
SELECT id, trip_id, time, type, speed, lat, long, delay, stop, occupancy
FROM trip_events WHERE stop IS NOT NULL ORDER BY id`)
}

// TripEvents lists every row of the trip_events table.
func (s *Store) TripEvents() ([]*StopEvent, error) {
	return s.queryStopEvents(`
SELECT id, trip_id, time, type, speed, lat, long, delay, stop, occupancy
FROM trip_events ORDER BY id`)
}

func (s *Store) queryStopEvents(query string) ([]*StopEvent, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("listing trip events: %w", err)
	}
	defer rows.Close()

	var events []*StopEvent
	for rows.Next() {
		var event StopEvent
		err := rows.Scan(
			&event.ID,
			&event.TripID,
			&event.Time,
			&event.Type,
			&event.Speed,
			&event.Latitude,
			&event.Longitude,
			&event.Delay,
			&event.Stop,
			&event.Occupancy,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning trip event: %w", err)
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}

func (s *Store) DoorEvents() ([]*DoorEvent, error) {
	rows, err := s.db.Query(`
SELECT id, trip_id, door_opened, stop, time FROM door_events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing door events: %w", err)
	}
	defer rows.Close()

	var events []*DoorEvent
	for rows.Next() {
		var event DoorEvent
		err := rows.Scan(&event.ID, &event.TripID, &event.Opened, &event.Stop, &event.Time)
		if err != nil {
			return nil, fmt.Errorf("scanning door event: %w", err)
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}

func (s *Store) PriorityEvents() ([]*PriorityEvent, error) {
	rows, err := s.db.Query(`
SELECT id, trip_id, time, request, junction_id, response_acknowledged
FROM traffic_light_priorities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing traffic light priorities: %w", err)
	}
	defer rows.Close()

	var events []*PriorityEvent
	for rows.Next() {
		var event PriorityEvent
		err := rows.Scan(&event.ID, &event.TripID, &event.Time, &event.Request, &event.JunctionID, &event.Acknowledged)
		if err != nil {
			return nil, fmt.Errorf("scanning traffic light priority: %w", err)
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}
