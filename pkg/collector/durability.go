package collector

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/hfplog/hfplog/pkg/metrics"
	"github.com/hfplog/hfplog/pkg/store"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Durability restores the store from the snapshot file at startup, rewrites
// the snapshot on a fixed interval while the collector runs, and writes one
// final snapshot on shutdown.
type Durability struct {
	store    *store.Store
	path     string
	interval time.Duration
	metrics  *metrics.Collector
}

const shutdownSnapshotGrace = 30 * time.Second

func NewDurability(s *store.Store, path string, interval time.Duration, m *metrics.Collector) *Durability {
	return &Durability{
		store:    s,
		path:     path,
		interval: interval,
		metrics:  m,
	}
}

// Restore loads the previous snapshot before ingestion starts. A missing
// snapshot means a fresh start; any other failure is returned and should
// abort startup, silently running on an empty store would lose the history.
func (d *Durability) Restore() error {
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return errors.Wrap(err, "creating snapshot directory")
	}

	err := d.store.Restore(d.path)
	if errors.Is(err, store.ErrNoSnapshot) {
		log.Warn().Str("path", d.path).Msg("No snapshot found, starting with an empty store")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "restoring snapshot")
	}

	log.Info().Str("path", d.path).Msg("Restored store from snapshot")
	return nil
}

// Run rewrites the snapshot every interval until the context is cancelled.
// A failed cycle is logged and retried on the next tick.
func (d *Durability) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.snapshot(); err != nil {
				log.Error().Err(err).Str("path", d.path).Msg("Snapshot failed")
			}
		}
	}
}

// Final writes the shutdown snapshot, giving up after a bounded grace
// period so shutdown always completes.
func (d *Durability) Final() {
	done := make(chan error, 1)
	go func() {
		done <- d.snapshot()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Str("path", d.path).Msg("Shutdown snapshot failed")
		} else {
			log.Info().Str("path", d.path).Msg("Wrote shutdown snapshot")
		}
	case <-time.After(shutdownSnapshotGrace):
		log.Error().Str("path", d.path).Msg("Shutdown snapshot timed out")
	}
}

func (d *Durability) snapshot() error {
	started := time.Now()
	err := d.store.Snapshot(d.path)
	d.metrics.ObserveSnapshot(time.Since(started), err)

	if err == nil {
		log.Debug().Str("path", d.path).Str("took", time.Since(started).String()).Msg("Snapshot written")
	}

	return err
}
