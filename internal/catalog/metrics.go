package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics.
var (
	productsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Number of products currently in the catalog",
		},
	)

	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_mutations_total",
			Help: "Total number of committed catalog mutations",
		},
		[]string{"event"},
	)

	discountsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_discounts_applied_total",
			Help: "Total number of reads served with a discount code",
		},
		[]string{"code"},
	)
)
