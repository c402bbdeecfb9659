package cipher

import "github.com/prometheus/client_golang/prometheus"

// CipherNoopRejections counts connections rejected for negotiating a
// cipher spec that reduces to the identity transform (spec.md §2.8).
var CipherNoopRejections = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "cipher_noop_rejections_total",
	Help: "Connections rejected for negotiating a no-op cipher spec.",
})

func init() {
	prometheus.MustRegister(CipherNoopRejections)
}
