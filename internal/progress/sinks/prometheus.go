package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/minewiki/itemscraper/internal/progress"
)

// PrometheusSink exports scrape progress via Prometheus. It owns the run and
// per-item collectors.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	itemsProcessed *prometheus.CounterVec
	itemsCompleted prometheus.Gauge
	itemDuration   *prometheus.HistogramVec
	itemFailures   prometheus.Counter
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scraper_runs_started_total",
			Help: "Total scrape runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_runs_completed_total",
			Help: "Total scrape runs finished, partitioned by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scraper_run_duration_seconds",
			Help:    "Wall time per finished run.",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1800, 3600},
		}, []string{"result"}),
		itemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_items_total",
			Help: "Item completions partitioned by fetch status class.",
		}, []string{"status_class"}),
		itemsCompleted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scraper_items_completed",
			Help: "Items completed so far in the current run.",
		}),
		itemDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scraper_item_duration_seconds",
			Help:    "Detail fetch duration partitioned by status class.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"status_class"}),
		itemFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scraper_item_failures_total",
			Help: "Items that fell back to the default stack size after a fetch failure.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runDuration,
		s.itemsProcessed,
		s.itemsCompleted,
		s.itemDuration,
		s.itemFailures,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the event. Safe for repeated calls.
func (s *PrometheusSink) Consume(_ context.Context, evt progress.Event) error {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
		s.itemsCompleted.Set(0)
	case progress.StageItemDone:
		class := string(evt.StatusClass)
		if class == "" {
			class = string(progress.StatusOther)
		}
		s.itemsProcessed.WithLabelValues(class).Inc()
		s.itemsCompleted.Set(float64(evt.Items))
		if evt.Dur > 0 {
			s.itemDuration.WithLabelValues(class).Observe(evt.Dur.Seconds())
		}
		if evt.Note != "" {
			s.itemFailures.Inc()
		}
	case progress.StageRunDone:
		s.runsCompleted.WithLabelValues(evt.Result).Inc()
		if evt.Dur > 0 {
			s.runDuration.WithLabelValues(evt.Result).Observe(evt.Dur.Seconds())
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
