package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	//coinCount prometheus metric.
	coinCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Number of coins deposited so far",
			Name:      "coin_count",
			Namespace: "plasma",
		},
	)
	//blockIndex prometheus metric.
	blockIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Current child block pointer",
			Name:      "current_block_index",
			Namespace: "plasma",
		},
	)
	//outstandingExits prometheus metric.
	outstandingExits = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Number of exits currently pending",
			Name:      "outstanding_exits",
			Namespace: "plasma",
		},
	)
	//exitsStarted prometheus metric.
	exitsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of exits started",
			Name:      "exits_started_total",
			Namespace: "plasma",
		},
	)
	//exitsFinalized prometheus metric.
	exitsFinalized = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of exits settled successfully",
			Name:      "exits_finalized_total",
			Namespace: "plasma",
		},
	)
	//exitsInvalidated prometheus metric.
	exitsInvalidated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of exits thrown out",
			Name:      "exits_invalidated_total",
			Namespace: "plasma",
		},
	)
	//challenges prometheus metric.
	challenges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of challenges accepted",
			Name:      "challenges_total",
			Namespace: "plasma",
		},
	)
)

func init() {
	prometheus.MustRegister(
		coinCount,
		blockIndex,
		outstandingExits,
		exitsStarted,
		exitsFinalized,
		exitsInvalidated,
		challenges,
	)
}

func updateCoinCountMetric(count uint64) {
	coinCount.Set(float64(count))
}

func updateBlockIndexMetric(index uint64) {
	blockIndex.Set(float64(index))
}

func updateOutstandingExitsMetric(count int) {
	outstandingExits.Set(float64(count))
}
