package hfp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Event type codes carried in the topic. The topic value is authoritative,
// the payload wrapper key merely repeats it.
const (
	EventVehiclePosition = "vp"
	EventArrivedAtStop   = "ars"
	EventPassedStop      = "pas"
	EventReadyToDepart   = "pde"
	EventDriverSignIn    = "da"
	EventDriverSignOut   = "dout"
	EventBlockAssigned   = "ba"
	EventBlockSignedOut  = "bout"
	EventJourneySignOn   = "vja"
	EventJourneySignOff  = "vjout"
	EventDoorsOpened     = "doo"
	EventDoorsClosed     = "doc"
	EventPriorityRequest = "tlr"
	EventPriorityReply   = "tla"
	EventArrivingSoon    = "due"
	EventWaitingAtStop   = "wait"
	EventEnteredStopArea = "arr"
	EventLeftStopArea    = "dep"
)

// Category decides which table an event type is persisted into. Each type
// maps to exactly one category.
type Category int

const (
	CategoryUnknown Category = iota
	// Position updates are too high frequency to persist individually,
	// only their occurrence counter is kept.
	CategoryPosition
	CategoryStop
	CategoryGeneric
	CategoryDoor
	CategoryPriority
)

func Categorize(eventType string) Category {
	switch eventType {
	case EventVehiclePosition:
		return CategoryPosition
	case EventArrivedAtStop, EventPassedStop:
		return CategoryStop
	case EventDoorsOpened, EventDoorsClosed:
		return CategoryDoor
	case EventPriorityRequest, EventPriorityReply:
		return CategoryPriority
	case EventReadyToDepart, EventDriverSignIn, EventDriverSignOut,
		EventBlockAssigned, EventBlockSignedOut, EventJourneySignOn,
		EventJourneySignOff, EventArrivingSoon, EventWaitingAtStop,
		EventEnteredStopArea, EventLeftStopArea:
		return CategoryGeneric
	default:
		return CategoryUnknown
	}
}

// Event is a fully decoded feed message.
type Event struct {
	Type    string
	Topic   Topic
	Payload Payload
}

// Decode parses a raw (topic, payload) pair from the feed. It never panics;
// anything that does not match the schema comes back as an error for the
// caller to drop.
func Decode(topic string, payload []byte) (*Event, error) {
	parsedTopic, err := ParseTopic(topic)
	if err != nil {
		return nil, err
	}

	parsedPayload, err := ParsePayload(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		Type:    parsedTopic.EventType,
		Topic:   parsedTopic,
		Payload: *parsedPayload,
	}, nil
}

// TripKey is the natural identifier of a scheduled trip before its canonical
// GTFS id is known.
type TripKey struct {
	RouteID      string
	Direction    int
	OperatingDay string
	StartTime    string
}

var ErrIncompleteTripKey = errors.New("event does not carry a full trip key")

// TripKey builds the key from the payload fields. The GTFS route id gets the
// HSL feed prefix and the 1-based HFP direction becomes 0-based.
func (e *Event) TripKey() (TripKey, error) {
	if e.Payload.Route == "" || e.Payload.StartTime == "" || e.Payload.OperatingDay == "" {
		return TripKey{}, ErrIncompleteTripKey
	}

	direction, err := strconv.Atoi(e.Payload.Direction)
	if err != nil {
		return TripKey{}, errors.Wrap(ErrIncompleteTripKey, err.Error())
	}

	return TripKey{
		RouteID:      fmt.Sprintf("HSL:%s", e.Payload.Route),
		Direction:    direction - 1,
		OperatingDay: e.Payload.OperatingDay,
		StartTime:    e.Payload.StartTime,
	}, nil
}

func (k TripKey) String() string {
	return fmt.Sprintf("%s/%d/%s/%s", k.RouteID, k.Direction, k.OperatingDay, k.StartTime)
}

// DepartureSeconds converts the HH:MM(:SS) scheduled start into seconds
// since midnight of the operating day. Hours above 23 are valid for trips
// scheduled past midnight and must not wrap.
func (k TripKey) DepartureSeconds() (int, error) {
	parts := strings.Split(k.StartTime, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("malformed start time %q", k.StartTime)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed start time %q: %w", k.StartTime, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed start time %q: %w", k.StartTime, err)
	}

	return hours*3600 + minutes*60, nil
}
