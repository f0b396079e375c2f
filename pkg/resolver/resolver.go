// Package resolver maps trip keys observed on the feed to canonical GTFS
// trip ids, backed by the registry in the store with an external fuzzy
// match as fallback.
package resolver

import (
	"context"
	"time"

	"github.com/hfplog/hfplog/pkg/hfp"
	"github.com/hfplog/hfplog/pkg/operators"
	"github.com/hfplog/hfplog/pkg/store"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Matcher is the external fuzzy trip lookup. Implementations return
// ErrNoMatch when the service answers but knows no such trip.
type Matcher interface {
	FuzzyTrip(ctx context.Context, routeID string, direction int, date string, seconds int) (string, error)
}

var ErrNoMatch = errors.New("no matching trip")

// ErrResolutionFailed is the only failure a resolve reports: no canonical
// trip could be determined this time. The key is retried on its next event.
var ErrResolutionFailed = errors.New("trip resolution failed")

const DefaultLookupTimeout = 10 * time.Second

type Resolver struct {
	store   *store.Store
	matcher Matcher
	timeout time.Duration

	// Collapses concurrent first-sight events of the same key onto a
	// single in-flight lookup, every waiter shares its outcome.
	group singleflight.Group
}

func New(s *store.Store, matcher Matcher, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}

	return &Resolver{
		store:   s,
		matcher: matcher,
		timeout: timeout,
	}
}

// Resolve returns the canonical GTFS trip id for the event, registering the
// trip on first sight. Any failure collapses to ErrResolutionFailed and
// leaves no registry placeholder behind.
func (r *Resolver) Resolve(ctx context.Context, event *hfp.Event) (string, error) {
	key, err := event.TripKey()
	if err != nil {
		return "", errors.Wrap(ErrResolutionFailed, err.Error())
	}

	tripID, err := r.store.TripIDByKey(key)
	if err != nil {
		return "", errors.Wrap(ErrResolutionFailed, err.Error())
	}
	if tripID != "" {
		return tripID, nil
	}

	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(ErrResolutionFailed, err.Error())
	}

	result, err, _ := r.group.Do(key.String(), func() (interface{}, error) {
		return r.lookup(key, event)
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

func (r *Resolver) lookup(key hfp.TripKey, event *hfp.Event) (string, error) {
	// Another event for this key may have won an earlier flight while we
	// were queueing, so check the registry once more.
	tripID, err := r.store.TripIDByKey(key)
	if err != nil {
		return "", errors.Wrap(ErrResolutionFailed, err.Error())
	}
	if tripID != "" {
		return tripID, nil
	}

	seconds, err := key.DepartureSeconds()
	if err != nil {
		return "", errors.Wrap(ErrResolutionFailed, err.Error())
	}

	// The lookup is shared by every waiter, so its lifetime must not be
	// tied to whichever caller happened to start it.
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	tripID, err = r.matcher.FuzzyTrip(ctx, key.RouteID, key.Direction, key.OperatingDay, seconds)
	if err != nil {
		log.Warn().Err(err).
			Str("route", key.RouteID).
			Int("direction", key.Direction).
			Str("day", key.OperatingDay).
			Str("start", key.StartTime).
			Msg("External trip lookup failed")
		return "", errors.Wrap(ErrResolutionFailed, err.Error())
	}

	trip := &store.Trip{
		GTFSID:       tripID,
		RouteID:      key.RouteID,
		VehicleID:    event.Topic.VehicleNumber,
		OperatorID:   event.Topic.OperatorID,
		OperatorName: operators.Name(event.Payload.Operator),
		StartTime:    key.StartTime,
		Day:          key.OperatingDay,
		Direction:    key.Direction,
	}

	// First writer wins on the registry's natural key. A duplicate insert
	// from a racing flight is discarded silently, never surfaced.
	if err := r.store.InsertTrip(trip); err != nil {
		log.Error().Err(err).Str("trip", tripID).Msg("Failed to register trip")
	}

	log.Debug().
		Str("trip", tripID).
		Str("route", key.RouteID).
		Str("start", key.StartTime).
		Msg("Registered new trip")

	return tripID, nil
}
