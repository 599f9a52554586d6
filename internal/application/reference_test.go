package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cone-steer/internal/infrastructure/storage"
)

func TestReferenceTracker_CachesLatest(t *testing.T) {
	tr := NewReferenceTracker(storage.NewMemoryReferenceStore(), nil)
	_, ok := tr.Latest()
	require.False(t, ok)

	now := time.Now()
	tr.HandleRequest(0, 0.1, now)
	tr.HandleRequest(0, -0.2, now)

	ref, ok := tr.Latest()
	require.True(t, ok)
	require.Equal(t, -0.2, ref.Value)
}

func TestAccuracyTracker(t *testing.T) {
	store := storage.NewMemoryReferenceStore()
	m := &recordingMetrics{}
	refs := NewReferenceTracker(store, nil)
	acc := NewAccuracyTracker(store, 0.25, m)

	require.False(t, acc.Observe(0.1), "no reference yet")

	refs.HandleRequest(0, 0, time.Time{})
	require.False(t, acc.Observe(0.1), "zero reference is skipped")

	refs.HandleRequest(0, 0.2, time.Time{})
	require.True(t, acc.Observe(0.22))
	require.True(t, acc.Observe(0.3))

	refs.HandleRequest(0, -0.2, time.Time{})
	require.True(t, acc.Observe(-0.17))

	r := acc.Report()
	require.Equal(t, 3, r.Comparisons)
	require.Equal(t, 2, r.Successful)
	require.InDelta(t, 66.666, r.Percent, 0.01)
	require.Len(t, m.accuracy, 3)
}

func TestAccuracyTracker_EmptyReport(t *testing.T) {
	acc := NewAccuracyTracker(storage.NewMemoryReferenceStore(), 0.25, nil)
	require.Equal(t, AccuracyReport{}, acc.Report())
}
