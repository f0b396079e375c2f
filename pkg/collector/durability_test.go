package collector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hfplog/hfplog/pkg/metrics"
	"github.com/hfplog/hfplog/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurabilityFreshStart(t *testing.T) {
	s, err := store.Open()
	require.NoError(t, err)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "data", "main.db")
	d := NewDurability(s, path, time.Minute, metrics.NewCollector())

	// No snapshot yet: start empty, but the snapshot directory gets created
	require.NoError(t, d.Restore())

	_, err = os.Stat(filepath.Dir(path))
	require.NoError(t, err)
}

func TestDurabilityFinalSnapshotRoundTrip(t *testing.T) {
	s, err := store.Open()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.IncrementCounter("event", "vp"))

	path := filepath.Join(t.TempDir(), "main.db")
	d := NewDurability(s, path, time.Minute, metrics.NewCollector())

	d.Final()

	restored, err := store.Open()
	require.NoError(t, err)
	defer restored.Close()

	d2 := NewDurability(restored, path, time.Minute, metrics.NewCollector())
	require.NoError(t, d2.Restore())

	count, err := restored.CounterValue("event", "vp")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDurabilityPeriodicSnapshots(t *testing.T) {
	s, err := store.Open()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.IncrementCounter("event", "vp"))

	path := filepath.Join(t.TempDir(), "main.db")
	d := NewDurability(s, path, 20*time.Millisecond, metrics.NewCollector())

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	cancel()
}
