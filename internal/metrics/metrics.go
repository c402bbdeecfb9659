// Package metrics exposes Prometheus collectors shared across servers,
// grounded on the teacher's root metrics.go. Each protocol package registers
// its own additional collectors (see speeddaemon, jobcenter, cipher) against
// the same default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "protohack_connections_total",
		Help: "Total connections accepted, by server.",
	}, []string{"server"})

	ConnectionsActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "protohack_connections_active",
		Help: "Currently open connections, by server.",
	}, []string{"server"})

	ConnectionsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "protohack_connections_rejected_total",
		Help: "Connections rejected before accept, by server and reason.",
	}, []string{"server", "reason"})

	// BytesRead is added to only by netsrv.UDPServer; the TCP acceptor
	// does not count bytes read.
	BytesRead = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "protohack_bytes_read_total",
		Help: "Bytes read from clients, by server.",
	}, []string{"server"})

	BytesWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "protohack_bytes_written_total",
		Help: "Bytes written to clients, by server.",
	}, []string{"server"})

	ProtocolErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "protohack_protocol_errors_total",
		Help: "Framing or protocol-state errors, by server.",
	}, []string{"server"})
)

func init() {
	prometheus.MustRegister(
		ConnectionsTotal,
		ConnectionsActive,
		ConnectionsRejected,
		BytesRead,
		BytesWritten,
		ProtocolErrors,
	)
}

// Serve starts a /metrics HTTP endpoint on addr. Intended to run in its own
// goroutine; returns the error from http.ListenAndServe (never nil on a
// normal return).
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
