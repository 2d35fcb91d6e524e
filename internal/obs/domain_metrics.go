package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartOpsTotal counts cart mutation outcomes by operation.
	CartOpsTotal *prometheus.CounterVec
	// CartSnapshotSaveFailures counts best-effort snapshot writes that failed.
	CartSnapshotSaveFailures prometheus.Counter
	// OrdersPlacedTotal counts placed orders by order type.
	OrdersPlacedTotal *prometheus.CounterVec
	// OrderValue records grand totals of placed orders in minor currency units.
	OrderValue prometheus.Histogram
	// DomainEventsTotal counts events emitted on the bus by topic.
	DomainEventsTotal *prometheus.CounterVec
	// KitchenTicketsTotal counts kitchen ticket dispatch outcomes.
	KitchenTicketsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "Count of cart mutation outcomes by operation.",
		}, []string{"op", "result"})
		CartSnapshotSaveFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_snapshot_save_failures_total",
			Help:      "Number of cart snapshot writes that failed.",
		})
		OrdersPlacedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Count of placed orders by order type.",
		}, []string{"order_type"})
		OrderValue = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value_minor_units",
			Help:      "Grand total of placed orders in minor currency units.",
			Buckets:   []float64{1000, 5000, 10000, 25000, 50000, 100000, 250000},
		})
		DomainEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_total",
			Help:      "Count of domain events emitted on the bus by topic.",
		}, []string{"topic"})
		KitchenTicketsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kitchen_tickets_total",
			Help:      "Count of kitchen ticket dispatch outcomes.",
		}, []string{"result"})

		registerDomainCollector(reg, CartOpsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartOpsTotal = v
			}
		})
		registerDomainCollector(reg, CartSnapshotSaveFailures, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CartSnapshotSaveFailures = v
			}
		})
		registerDomainCollector(reg, OrdersPlacedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersPlacedTotal = v
			}
		})
		registerDomainCollector(reg, OrderValue, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				OrderValue = v
			}
		})
		registerDomainCollector(reg, DomainEventsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DomainEventsTotal = v
			}
		})
		registerDomainCollector(reg, KitchenTicketsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				KitchenTicketsTotal = v
			}
		})
	})
}

func registerDomainCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
