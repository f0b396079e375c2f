package store

import (
	"path/filepath"
	"testing"

	"github.com/hfplog/hfplog/pkg/hfp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() hfp.TripKey {
	return hfp.TripKey{
		RouteID:      "HSL:1234",
		Direction:    0,
		OperatingDay: "2024-01-01",
		StartTime:    "07:30",
	}
}

func testTrip(gtfsID string) *Trip {
	return &Trip{
		GTFSID:       gtfsID,
		RouteID:      "HSL:1234",
		VehicleID:    "00854",
		OperatorID:   "0022",
		OperatorName: "Nobina Finland Oy",
		StartTime:    "07:30",
		Day:          "2024-01-01",
		Direction:    0,
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestTripRegistry(t *testing.T) {
	s, err := Open()
	require.NoError(t, err)
	defer s.Close()

	gtfsID, err := s.TripIDByKey(testKey())
	require.NoError(t, err)
	assert.Empty(t, gtfsID)

	require.NoError(t, s.InsertTrip(testTrip("HSL:1234_20240101_Ma_1_0730")))

	gtfsID, err = s.TripIDByKey(testKey())
	require.NoError(t, err)
	assert.Equal(t, "HSL:1234_20240101_Ma_1_0730", gtfsID)
}

func TestTripRegistryFirstWriterWins(t *testing.T) {
	s, err := Open()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.InsertTrip(testTrip("HSL:first")))
	// Duplicate natural key is silently discarded
	require.NoError(t, s.InsertTrip(testTrip("HSL:second")))

	trips, err := s.Trips()
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "HSL:first", trips[0].GTFSID)

	// A different start time is a different trip
	other := testTrip("HSL:third")
	other.StartTime = "08:30"
	require.NoError(t, s.InsertTrip(other))

	trips, err = s.Trips()
	require.NoError(t, err)
	assert.Len(t, trips, 2)
}

func TestCounters(t *testing.T) {
	s, err := Open()
	require.NoError(t, err)
	defer s.Close()

	count, err := s.CounterValue("event", "doo")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.IncrementCounter("event", "doo"))
	}
	require.NoError(t, s.IncrementCounter("stop", "1234567/stop"))

	count, err = s.CounterValue("event", "doo")
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	counters, err := s.Counters()
	require.NoError(t, err)
	require.Len(t, counters, 2)
	assert.Equal(t, "event", counters[0].Category)
	assert.Equal(t, "doo", counters[0].SubID)
	assert.Equal(t, int64(5), counters[0].Count)
}

func TestStopEventsListsOnlyRowsWithStops(t *testing.T) {
	s, err := Open()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.InsertStopEvent(&StopEvent{
		TripID: "HSL:trip",
		Type:   "ars",
		Time:   int64Ptr(1704087002),
		Stop:   int64Ptr(1361109),
	}))
	require.NoError(t, s.InsertStopEvent(&StopEvent{
		TripID: "HSL:trip",
		Type:   "vja",
		Time:   int64Ptr(1704087000),
	}))

	withStops, err := s.StopEvents()
	require.NoError(t, err)
	require.Len(t, withStops, 1)
	assert.Equal(t, "ars", withStops[0].Type)
	require.NotNil(t, withStops[0].Stop)
	assert.Equal(t, int64(1361109), *withStops[0].Stop)

	all, err := s.TripEvents()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDoorAndPriorityEvents(t *testing.T) {
	s, err := Open()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.InsertDoorEvent(&DoorEvent{
		TripID: "HSL:trip",
		Opened: true,
		Stop:   int64Ptr(1361109),
		Time:   int64Ptr(1704087002),
	}))

	require.NoError(t, s.InsertPriorityEvent(&PriorityEvent{
		TripID:       "HSL:trip",
		Time:         int64Ptr(1704087010),
		Request:      true,
		JunctionID:   int64Ptr(501),
		Acknowledged: false,
	}))
	require.NoError(t, s.InsertPriorityEvent(&PriorityEvent{
		TripID:       "HSL:trip",
		Time:         int64Ptr(1704087012),
		Request:      false,
		JunctionID:   int64Ptr(501),
		Acknowledged: true,
	}))

	doors, err := s.DoorEvents()
	require.NoError(t, err)
	require.Len(t, doors, 1)
	assert.True(t, doors[0].Opened)

	priorities, err := s.PriorityEvents()
	require.NoError(t, err)
	require.Len(t, priorities, 2)
	assert.True(t, priorities[0].Request)
	assert.False(t, priorities[0].Acknowledged)
	assert.False(t, priorities[1].Request)
	assert.True(t, priorities[1].Acknowledged)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.db")

	s, err := Open()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.InsertTrip(testTrip("HSL:1234_20240101_Ma_1_0730")))
	require.NoError(t, s.InsertStopEvent(&StopEvent{TripID: "HSL:trip", Type: "ars", Stop: int64Ptr(1361109)}))
	require.NoError(t, s.InsertDoorEvent(&DoorEvent{TripID: "HSL:trip", Opened: true}))
	require.NoError(t, s.InsertPriorityEvent(&PriorityEvent{TripID: "HSL:trip", Request: true}))
	require.NoError(t, s.IncrementCounter("event", "doo"))
	require.NoError(t, s.IncrementCounter("event", "doo"))

	require.NoError(t, s.Snapshot(path))

	restored, err := Open()
	require.NoError(t, err)
	defer restored.Close()

	require.NoError(t, restored.Restore(path))

	trips, err := restored.Trips()
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "HSL:1234_20240101_Ma_1_0730", trips[0].GTFSID)
	assert.Equal(t, "Nobina Finland Oy", trips[0].OperatorName)

	events, err := restored.TripEvents()
	require.NoError(t, err)
	assert.Len(t, events, 1)

	doors, err := restored.DoorEvents()
	require.NoError(t, err)
	assert.Len(t, doors, 1)

	priorities, err := restored.PriorityEvents()
	require.NoError(t, err)
	assert.Len(t, priorities, 1)

	count, err := restored.CounterValue("event", "doo")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSnapshotOverwritesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.db")

	s, err := Open()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.IncrementCounter("event", "vp"))
	require.NoError(t, s.Snapshot(path))

	require.NoError(t, s.IncrementCounter("event", "vp"))
	require.NoError(t, s.Snapshot(path))

	restored, err := Open()
	require.NoError(t, err)
	defer restored.Close()

	require.NoError(t, restored.Restore(path))

	count, err := restored.CounterValue("event", "vp")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRestoreWithoutSnapshot(t *testing.T) {
	s, err := Open()
	require.NoError(t, err)
	defer s.Close()

	err = s.Restore(filepath.Join(t.TempDir(), "missing.db"))
	require.ErrorIs(t, err, ErrNoSnapshot)
}
