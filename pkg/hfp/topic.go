package hfp

import (
	"strings"

	"github.com/pkg/errors"
)

// Topic is the parsed form of an HFP v2 MQTT topic, for example
// /hfp/v2/journey/ongoing/vp/bus/0022/00854/2550/2/Matinkylä (M)/06:16/2323253/4/60;24/16/58/09
type Topic struct {
	Prefix        string
	Version       string
	JourneyType   string
	TemporalType  string
	EventType     string
	TransportMode string
	OperatorID    string
	VehicleNumber string
	RouteID       string
	DirectionID   string
	Headsign      string
	StartTime     string
	NextStop      string
	GeohashLevel  string
	Geohash       string
}

// The topic always starts with a slash, so splitting yields an empty
// leading segment followed by the fifteen fields of the schema.
const topicSegments = 16

var ErrMalformedTopic = errors.New("malformed hfp topic")

func ParseTopic(topic string) (Topic, error) {
	parts := strings.Split(topic, "/")

	if len(parts) < topicSegments || parts[0] != "" {
		return Topic{}, errors.Wrap(ErrMalformedTopic, topic)
	}

	return Topic{
		Prefix:        parts[1],
		Version:       parts[2],
		JourneyType:   parts[3],
		TemporalType:  parts[4],
		EventType:     parts[5],
		TransportMode: parts[6],
		OperatorID:    parts[7],
		VehicleNumber: parts[8],
		RouteID:       parts[9],
		DirectionID:   parts[10],
		Headsign:      parts[11],
		StartTime:     parts[12],
		NextStop:      parts[13],
		GeohashLevel:  parts[14],
		// The geohash itself is split across the remaining levels
		Geohash: strings.Join(parts[15:], "/"),
	}, nil
}
