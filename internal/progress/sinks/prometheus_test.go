package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/minewiki/itemscraper/internal/progress"
)

// TestPrometheusSinkRecordsMetrics ensures counters and histograms are incremented from events.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := uuid.NewString()
	events := []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunStart},
		{
			RunID:       runID,
			TS:          time.Now().Add(time.Second),
			Stage:       progress.StageItemDone,
			Item:        "Stick",
			URL:         "https://minecraft.wiki/w/Stick",
			StatusClass: progress.Status2xx,
			Stack:       64,
			Items:       1,
			Dur:         200 * time.Millisecond,
		},
		{
			RunID:       runID,
			TS:          time.Now().Add(2 * time.Second),
			Stage:       progress.StageItemDone,
			Item:        "Ghost Item",
			URL:         "https://minecraft.wiki/w/Ghost_Item",
			StatusClass: progress.StatusOther,
			Stack:       1,
			Items:       2,
			Dur:         50 * time.Millisecond,
			Note:        "fetch failed",
		},
		{
			RunID:  runID,
			TS:     time.Now().Add(3 * time.Second),
			Stage:  progress.StageRunDone,
			Items:  2,
			Dur:    3 * time.Second,
			Result: progress.ResultCompleted,
		},
	}
	for _, evt := range events {
		require.NoError(t, sink.Consume(context.Background(), evt))
	}

	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues(progress.ResultCompleted)))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues(progress.ResultInterrupted)))

	require.InDelta(
		t,
		1.0,
		testutil.ToFloat64(sink.itemsProcessed.WithLabelValues(string(progress.Status2xx))),
		1e-9,
	)
	require.InDelta(
		t,
		1.0,
		testutil.ToFloat64(sink.itemsProcessed.WithLabelValues(string(progress.StatusOther))),
		1e-9,
	)
	require.Equal(t, 2.0, testutil.ToFloat64(sink.itemsCompleted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.itemFailures))
	require.Equal(t, 2, testutil.CollectAndCount(sink.itemDuration, "scraper_item_duration_seconds"))
	require.Equal(t, 1, testutil.CollectAndCount(sink.runDuration, "scraper_run_duration_seconds"))
}

// TestPrometheusSinkDuplicateRegistration verifies a second sink on the same registry fails.
func TestPrometheusSinkDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}
