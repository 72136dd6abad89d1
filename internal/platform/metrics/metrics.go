package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ledger node. Services accept a
// nil *Metrics; the recording helpers are nil-safe so unit tests don't have to
// register collectors.
type Metrics struct {
	ShipmentsCreated   prometheus.Counter
	TrackingEvents     *prometheus.CounterVec
	DeliveriesVerified prometheus.Counter
	EscrowsReleased    prometheus.Counter
	EscrowCentsMoved   prometheus.Counter
	ProductAuthChecks  *prometheus.CounterVec
}

// New creates and registers all metrics against the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers all metrics against the given registerer. Tests pass a
// private registry to avoid duplicate-registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ShipmentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "freightledger_shipments_created_total",
			Help: "Total number of shipments created.",
		}),
		TrackingEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "freightledger_tracking_events_total",
			Help: "Total tracking events applied, by event type.",
		}, []string{"event_type"}),
		DeliveriesVerified: factory.NewCounter(prometheus.CounterOpts{
			Name: "freightledger_deliveries_verified_total",
			Help: "Total delivery verifications recorded.",
		}),
		EscrowsReleased: factory.NewCounter(prometheus.CounterOpts{
			Name: "freightledger_escrows_released_total",
			Help: "Total escrows released to payees.",
		}),
		EscrowCentsMoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "freightledger_escrow_cents_moved_total",
			Help: "Total escrowed cents moved on release.",
		}),
		ProductAuthChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "freightledger_product_authentications_total",
			Help: "Total product authentications, by outcome.",
		}, []string{"outcome"}),
	}
}

// IncShipmentsCreated increments the shipment creation counter.
func (m *Metrics) IncShipmentsCreated() {
	if m != nil {
		m.ShipmentsCreated.Inc()
	}
}

// IncTrackingEvent increments the tracking event counter for an event type.
func (m *Metrics) IncTrackingEvent(eventType string) {
	if m != nil {
		m.TrackingEvents.WithLabelValues(eventType).Inc()
	}
}

// IncDeliveriesVerified increments the verified deliveries counter.
func (m *Metrics) IncDeliveriesVerified() {
	if m != nil {
		m.DeliveriesVerified.Inc()
	}
}

// ObserveEscrowRelease records a released escrow and the cents moved.
func (m *Metrics) ObserveEscrowRelease(amountCents int64) {
	if m != nil {
		m.EscrowsReleased.Inc()
		m.EscrowCentsMoved.Add(float64(amountCents))
	}
}

// IncProductAuthCheck records a product authentication outcome.
func (m *Metrics) IncProductAuthCheck(authentic bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if authentic {
		outcome = "authentic"
	}
	m.ProductAuthChecks.WithLabelValues(outcome).Inc()
}
