package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IdentifiersIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kadro_identifiers_issued_total",
		Help: "Identifiers issued per allocation category kind.",
	}, []string{"kind"})

	RecordsAssigned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kadro_allocation_records_assigned_total",
		Help: "Allocation records moved to the in-use state.",
	})

	RecordsRetired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kadro_allocation_records_retired_total",
		Help: "Allocation records retired (terminal state).",
	})

	AddressesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kadro_addresses_issued_total",
		Help: "IPv4 addresses issued from managed ranges.",
	})

	AllocationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kadro_allocation_conflicts_total",
		Help: "Sequence or address allocation attempts retried due to contention.",
	})
)
