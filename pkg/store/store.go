// Package store is the durable side of the collector: an in-memory SQLite
// database holding the trip registry, the per-category event tables and the
// occurrence counters, with whole-store snapshot and restore.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

func Open() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// An in-memory database exists per connection, so the pool must never
	// grow beyond one. Writes serialise on this connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
PRAGMA synchronous = NORMAL;
PRAGMA temp_store = MEMORY;

CREATE TABLE IF NOT EXISTS trips (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    gtfs_id TEXT NOT NULL,
    route_id TEXT NOT NULL,
    vehicle_id TEXT,
    operator_id TEXT,
    operator_name TEXT,
    start_time TEXT NOT NULL,
    day TEXT NOT NULL,
    direction INTEGER NOT NULL,
UNIQUE (route_id, direction, start_time, day)
);

CREATE TABLE IF NOT EXISTS trip_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    trip_id TEXT NOT NULL,
    time INTEGER,
    type TEXT NOT NULL,
    speed REAL,
    lat REAL,
    long REAL,
    delay INTEGER,
    stop INTEGER,
    occupancy INTEGER
);

CREATE TABLE IF NOT EXISTS door_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    trip_id TEXT NOT NULL,
    door_opened INTEGER NOT NULL,
    stop INTEGER,
    time INTEGER
);

CREATE TABLE IF NOT EXISTS traffic_light_priorities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    trip_id TEXT NOT NULL,
    time INTEGER,
    request INTEGER NOT NULL,
    junction_id INTEGER,
    response_acknowledged INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stats (
    type TEXT NOT NULL,
    id TEXT NOT NULL,
    count INTEGER NOT NULL,
UNIQUE (type, id)
);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
