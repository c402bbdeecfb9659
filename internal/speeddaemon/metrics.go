package speeddaemon

import "github.com/prometheus/client_golang/prometheus"

// Collectors per SPEC_FULL.md §2.6.
var (
	SpeedTicketsIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "speeddaemon_tickets_issued_total",
		Help: "Tickets issued after day-dedup.",
	})

	SpeedTicketsBuffered = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "speeddaemon_tickets_buffered",
		Help: "Tickets currently queued awaiting a dispatcher, by road.",
	}, []string{"road"})

	SpeedSightingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "speeddaemon_sightings_total",
		Help: "Plate sightings processed, by reporting connection role.",
	}, []string{"role"})

	SpeedDispatcherDisconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "speeddaemon_dispatcher_disconnects_total",
		Help: "Dispatcher connections that disconnected.",
	})
)

func init() {
	prometheus.MustRegister(
		SpeedTicketsIssued,
		SpeedTicketsBuffered,
		SpeedSightingsTotal,
		SpeedDispatcherDisconnects,
	)
}
