package hfp

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Payload carries the event body fields of an HFP message. Optional fields
// are pointers so that null and absent values survive the round trip into
// the store unchanged.
type Payload struct {
	Designation   string   `json:"desi"`
	Direction     string   `json:"dir"`
	Operator      int      `json:"oper"`
	Vehicle       int      `json:"veh"`
	Timestamp     string   `json:"tst"`
	UnixTime      int64    `json:"tsi"`
	Speed         *float64 `json:"spd"`
	Heading       *int     `json:"hdg"`
	Latitude      *float64 `json:"lat"`
	Longitude     *float64 `json:"long"`
	Accuracy      *float64 `json:"acc"`
	Delay         *int     `json:"dl"`
	Odometer      *float64 `json:"odo"`
	DoorStatus    *int     `json:"drst"`
	OperatingDay  string   `json:"oday"`
	JourneyID     *int     `json:"jrn"`
	Line          *int     `json:"line"`
	StartTime     string   `json:"start"`
	LocationsFrom string   `json:"loc"`
	Stop          *int64   `json:"stop"`
	Route         string   `json:"route"`
	Occupancy     *int     `json:"occu"`
	JunctionID    *int64   `json:"sid"`
	SignalGroupID *int64   `json:"signal-groupid"`
	TLPDecision   string   `json:"tlp-decision"`
}

var ErrMalformedPayload = errors.New("malformed hfp payload")

// ParsePayload unwraps the single top-level object an HFP message carries
// (e.g. {"VP": {...}}) and decodes the body inside it.
func ParsePayload(data []byte) (*Payload, error) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, errors.Wrap(ErrMalformedPayload, err.Error())
	}

	if len(wrapper) != 1 {
		return nil, errors.Wrapf(ErrMalformedPayload, "expected a single top-level object, got %d", len(wrapper))
	}

	var payload Payload
	for _, body := range wrapper {
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, errors.Wrap(ErrMalformedPayload, err.Error())
		}
	}

	return &payload, nil
}
