package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hfplog/hfplog/pkg/config"
	"github.com/hfplog/hfplog/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func testApp(t *testing.T, rateLimit int) (*fiber.App, *store.Store) {
	t.Helper()

	s, err := store.Open()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	cfg := &config.Config{
		RateLimitMax:    rateLimit,
		RateLimitPeriod: time.Minute,
	}

	return SetupServer(s, cfg), s
}

func get(t *testing.T, app *fiber.App, path string) (*http.Response, []byte) {
	t.Helper()

	response, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	response.Body.Close()

	return response, body
}

func TestListStopEvents(t *testing.T) {
	app, s := testApp(t, 100)

	require.NoError(t, s.InsertStopEvent(&store.StopEvent{
		TripID: "HSL:trip", Type: "ars", Stop: int64Ptr(1361109), Time: int64Ptr(1704087002),
	}))
	// No stop id: excluded from the stop listing
	require.NoError(t, s.InsertStopEvent(&store.StopEvent{
		TripID: "HSL:trip", Type: "vja", Time: int64Ptr(1704087000),
	}))

	response, body := get(t, app, "/stats/")
	require.Equal(t, http.StatusOK, response.StatusCode)

	var events []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "ars", events[0]["type"])
	assert.Equal(t, "HSL:trip", events[0]["tripId"])
}

func TestListTrips(t *testing.T) {
	app, s := testApp(t, 100)

	require.NoError(t, s.InsertTrip(&store.Trip{
		GTFSID: "HSL:1234_20240101_Ma_1_0730", RouteID: "HSL:1234",
		StartTime: "07:30", Day: "2024-01-01",
	}))

	response, body := get(t, app, "/trips/")
	require.Equal(t, http.StatusOK, response.StatusCode)

	var trips []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &trips))
	require.Len(t, trips, 1)
	assert.Equal(t, "HSL:1234_20240101_Ma_1_0730", trips[0]["gtfsId"])
}

func TestListTripEventsIncludesStoplessRows(t *testing.T) {
	app, s := testApp(t, 100)

	require.NoError(t, s.InsertStopEvent(&store.StopEvent{
		TripID: "HSL:trip", Type: "vja", Time: int64Ptr(1704087000),
	}))

	response, body := get(t, app, "/trip_events/")
	require.Equal(t, http.StatusOK, response.StatusCode)

	var events []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &events))
	require.Len(t, events, 1)
	assert.Equal(t, "vja", events[0]["type"])
	assert.Nil(t, events[0]["stop"])
}

func TestListPriorityEvents(t *testing.T) {
	app, s := testApp(t, 100)

	require.NoError(t, s.InsertPriorityEvent(&store.PriorityEvent{
		TripID: "HSL:trip", Request: true, JunctionID: int64Ptr(501), Time: int64Ptr(1704087010),
	}))

	response, body := get(t, app, "/tl_events/")
	require.Equal(t, http.StatusOK, response.StatusCode)

	var events []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &events))
	require.Len(t, events, 1)
	assert.Equal(t, true, events[0]["request"])
	assert.Equal(t, false, events[0]["responseAcknowledged"])
}

func TestListDoorEvents(t *testing.T) {
	app, s := testApp(t, 100)

	require.NoError(t, s.InsertDoorEvent(&store.DoorEvent{
		TripID: "HSL:trip", Opened: true, Stop: int64Ptr(1361109),
	}))

	response, body := get(t, app, "/door_events/")
	require.Equal(t, http.StatusOK, response.StatusCode)

	var events []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &events))
	require.Len(t, events, 1)
	assert.Equal(t, true, events[0]["doorOpened"])
}

func TestListCounters(t *testing.T) {
	app, s := testApp(t, 100)

	require.NoError(t, s.IncrementCounter("event", "doo"))
	require.NoError(t, s.IncrementCounter("event", "doo"))

	response, body := get(t, app, "/counters/")
	require.Equal(t, http.StatusOK, response.StatusCode)

	var counters []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &counters))
	require.Len(t, counters, 1)
	assert.Equal(t, "doo", counters[0]["id"])
	assert.Equal(t, float64(2), counters[0]["count"])
}

func TestDescribeServiceLocalized(t *testing.T) {
	app, _ := testApp(t, 100)

	response, body := get(t, app, "/?lang=fi")
	require.Equal(t, http.StatusOK, response.StatusCode)

	var decoded struct {
		Data map[string]map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))

	description := decoded.Data["description"]
	require.Len(t, description, 1)
	assert.Contains(t, description["fi"], "HSL")
}

func TestDescribeServiceUnsupportedLanguage(t *testing.T) {
	app, _ := testApp(t, 100)

	response, body := get(t, app, "/?lang=sv")
	require.Equal(t, http.StatusOK, response.StatusCode)

	var decoded struct {
		Data   map[string]map[string]string `json:"data"`
		Errors []map[string]string          `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))

	require.Len(t, decoded.Errors, 1)
	// Falls back to every translation of the description
	assert.Len(t, decoded.Data["description"], 2)
}

func TestRateLimit(t *testing.T) {
	app, _ := testApp(t, 2)

	for i := 0; i < 2; i++ {
		response, _ := get(t, app, "/version")
		require.Equal(t, http.StatusOK, response.StatusCode)
	}

	response, body := get(t, app, "/version")
	require.Equal(t, http.StatusTooManyRequests, response.StatusCode)

	var decoded struct {
		Errors []map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Len(t, decoded.Errors, 1)
}

func TestVersion(t *testing.T) {
	app, _ := testApp(t, 100)

	response, body := get(t, app, "/version")
	require.Equal(t, http.StatusOK, response.StatusCode)
	assert.JSONEq(t, `{"version":"v0.1"}`, string(body))
}
