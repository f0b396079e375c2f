package collector

import (
	"context"
	"fmt"

	"github.com/hfplog/hfplog/pkg/hfp"
	"github.com/hfplog/hfplog/pkg/metrics"
	"github.com/hfplog/hfplog/pkg/resolver"
	"github.com/hfplog/hfplog/pkg/store"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

// Pipeline runs every feed message through decode, trip resolution and the
// routed store write. Messages process concurrently on a bounded pool; a
// failure at any stage drops that message and nothing else.
type Pipeline struct {
	store    *store.Store
	resolver *resolver.Resolver
	metrics  *metrics.Collector
	pool     *pool.Pool
}

func NewPipeline(s *store.Store, r *resolver.Resolver, m *metrics.Collector, workers int) *Pipeline {
	return &Pipeline{
		store:    s,
		resolver: r,
		metrics:  m,
		pool:     pool.New().WithMaxGoroutines(workers),
	}
}

// Handle enqueues one raw feed message. It is the feed subscription's
// message callback and must not block on the externals, so the work happens
// on the pool.
func (p *Pipeline) Handle(topic string, payload []byte) {
	p.pool.Go(func() {
		p.process(topic, payload)
	})
}

// Wait blocks until every enqueued message has been processed. Call after
// the feed has been closed.
func (p *Pipeline) Wait() {
	p.pool.Wait()
}

func (p *Pipeline) process(topic string, payload []byte) {
	p.metrics.MessagesReceived.Inc()

	event, err := hfp.Decode(topic, payload)
	if err != nil {
		p.metrics.DecodeFailures.Inc()
		log.Debug().Err(err).Str("topic", topic).Msg("Dropping undecodable message")
		return
	}

	p.count("event", event.Type)

	category := hfp.Categorize(event.Type)

	if category == hfp.CategoryStop && event.Payload.Stop != nil {
		visit := "stop"
		if event.Type == hfp.EventPassedStop {
			visit = "pass"
		}
		p.count("stop", fmt.Sprintf("%d/%s", *event.Payload.Stop, visit))
	}

	// Position updates and unrecognised codes only feed the counters
	if category == hfp.CategoryPosition || category == hfp.CategoryUnknown {
		return
	}

	tripID, err := p.resolver.Resolve(context.Background(), event)
	if err != nil {
		p.metrics.ResolutionFailures.Inc()
		log.Warn().Err(err).
			Str("type", event.Type).
			Str("route", event.Payload.Route).
			Str("vehicle", event.Topic.VehicleNumber).
			Msg("Dropping unresolvable event")
		return
	}

	p.persist(tripID, event, category)
}

// persist routes the event to exactly one table.
func (p *Pipeline) persist(tripID string, event *hfp.Event, category hfp.Category) {
	var table string
	var err error

	switch category {
	case hfp.CategoryDoor:
		table = "door_events"
		err = p.store.InsertDoorEvent(&store.DoorEvent{
			TripID: tripID,
			Opened: event.Type == hfp.EventDoorsOpened,
			Stop:   event.Payload.Stop,
			Time:   &event.Payload.UnixTime,
		})

	case hfp.CategoryPriority:
		table = "traffic_light_priorities"
		err = p.store.InsertPriorityEvent(&store.PriorityEvent{
			TripID:       tripID,
			Time:         &event.Payload.UnixTime,
			Request:      event.Type == hfp.EventPriorityRequest,
			JunctionID:   event.Payload.JunctionID,
			Acknowledged: event.Payload.TLPDecision == "ACK",
		})

	case hfp.CategoryStop, hfp.CategoryGeneric:
		table = "trip_events"
		err = p.store.InsertStopEvent(&store.StopEvent{
			TripID:    tripID,
			Time:      &event.Payload.UnixTime,
			Type:      event.Type,
			Speed:     event.Payload.Speed,
			Latitude:  event.Payload.Latitude,
			Longitude: event.Payload.Longitude,
			Delay:     event.Payload.Delay,
			Stop:      event.Payload.Stop,
			Occupancy: event.Payload.Occupancy,
		})

	default:
		return
	}

	if err != nil {
		p.metrics.StoreErrors.Inc()
		log.Error().Err(err).Str("trip", tripID).Str("type", event.Type).Msg("Failed to store event")
		return
	}

	p.metrics.EventsStored.WithLabelValues(table).Inc()
}

func (p *Pipeline) count(category string, subID string) {
	if err := p.store.IncrementCounter(category, subID); err != nil {
		p.metrics.StoreErrors.Inc()
		log.Error().Err(err).Str("category", category).Str("id", subID).Msg("Failed to increment counter")
	}
}
