package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "smartfeast"

// Metrics holds the collectors for the order lifecycle and the notifier.
type Metrics struct {
	OrdersCreated      *prometheus.CounterVec
	StatusTransitions  *prometheus.CounterVec
	PaymentTransitions *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec
	EventsDropped      *prometheus.CounterVec
	Connections        prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		OrdersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Count of orders created, by order type",
		}, []string{"order_type"}),

		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "status_transitions_total",
			Help:      "Count of applied order status changes, by target status",
		}, []string{"status"}),

		PaymentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "payment_transitions_total",
			Help:      "Count of applied payment status changes, by target payment status",
		}, []string{"payment_status"}),

		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_delivered_total",
			Help:      "Count of event frames queued to sockets, by event name",
		}, []string{"event"}),

		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_dropped_total",
			Help:      "Count of event frames not queued because the socket buffer was full or the event was a duplicate",
		}, []string{"event", "reason"}),

		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "connections",
			Help:      "Number of open websocket connections",
		}),
	}
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.OrdersCreated,
		m.StatusTransitions,
		m.PaymentTransitions,
		m.EventsPublished,
		m.EventsDropped,
		m.Connections,
	}
}
