package core

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	treeMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warehouse_tree_mutations_total",
		Help: "Structural mutations of the warehouse tree by operation and result.",
	}, []string{"operation", "result"})

	cyclicHierarchyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warehouse_tree_cyclic_hierarchy_total",
		Help: "Operations rejected because a parent chain would loop or already loops.",
	})

	stockValueDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "warehouse_stock_value_seconds",
		Help:    "Time spent computing warehouse-wise stock value.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
)

// observeMutation records the result of a tree mutation. Cyclic rejections
// from move and rebuild also count towards cyclicHierarchyTotal.
func observeMutation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	treeMutationsTotal.WithLabelValues(operation, result).Inc()
	if errors.Is(err, ErrCyclicHierarchy) {
		cyclicHierarchyTotal.Inc()
	}
}
