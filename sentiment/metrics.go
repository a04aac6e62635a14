package sentiment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	postsClassified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postvibe_classified_posts_total",
		Help: "The total number of posts classified by the sentiment workers",
	})

	classificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postvibe_classification_failures_total",
		Help: "The total number of hard classification API failures",
	})

	classifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "postvibe_classification_duration_seconds",
		Help:    "Duration of single classification API calls",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // Start at 10ms, double each bucket, 10 buckets
	})

	workersBusy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postvibe_workers_busy",
		Help: "The number of sentiment workers currently waiting on the classification API",
	})

	batchesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postvibe_batches_total",
		Help: "Classification batches by outcome",
	}, []string{"outcome"})
)
