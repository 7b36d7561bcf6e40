package service

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce     sync.Once
	selectionsTotal *prometheus.CounterVec
	selectionMisses prometheus.Counter
)

func initMetrics() {
	metricsOnce.Do(func() {
		selectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lorewiki",
			Subsystem: "randomimage",
			Name:      "selections_total",
			Help:      "Successful image selections by source",
		}, []string{"source"})

		selectionMisses = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "lorewiki",
			Subsystem: "randomimage",
			Name:      "selection_misses_total",
			Help:      "Tag expansions that found no image to show",
		})
	})
}
