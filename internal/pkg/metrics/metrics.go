package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Conversions counts accept/reject pipeline outcomes.
	Conversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversions_total",
			Help: "Total number of inquiry conversion attempts.",
		},
		[]string{"action", "outcome"},
	)

	// InventoryReductions counts ledger deductions by outcome (full, partial, none).
	InventoryReductions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_reductions_total",
			Help: "Total number of inventory ledger reductions.",
		},
		[]string{"outcome"},
	)

	// SequenceConflicts counts invoice-number allocation collisions that were retried.
	SequenceConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sequence_allocation_conflicts_total",
			Help: "Count of invoice sequence allocation conflicts.",
		},
	)

	// PaymentSyncs counts payment status propagation by direction and outcome.
	PaymentSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_sync_total",
			Help: "Total number of payment status sync operations.",
		},
		[]string{"direction", "outcome"},
	)

	// CacheInvalidations counts catalog cache invalidation events applied.
	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_cache_invalidations_total",
			Help: "Count of catalog cache invalidations triggered by stock changes.",
		},
	)
)
