// Package metrics defines the prometheus collectors for the counter client
// and the dev node.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter tracks the transactions a counter run submits.
type Counter struct {
	TxsSent   prometheus.Counter
	TxsFailed prometheus.Counter
	Value     *prometheus.GaugeVec
}

func NewCounter(reg prometheus.Registerer) *Counter {
	f := promauto.With(reg)
	return &Counter{
		TxsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "counter_txs_sent_total",
			Help: "Total number of inc() transactions accepted by the RPC endpoint",
		}),
		TxsFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "counter_txs_failed_total",
			Help: "Total number of inc() transactions rejected by the RPC endpoint",
		}),
		Value: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "counter_value",
			Help: "Last observed Lock counter value",
		}, []string{"phase"}),
	}
}

// RPC tracks JSON-RPC calls served by the dev node.
type RPC struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewRPC(reg prometheus.Registerer) *RPC {
	f := promauto.With(reg)
	return &RPC{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "devnode_rpc_requests_total",
			Help: "Total number of JSON-RPC requests",
		}, []string{"method", "status"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "devnode_rpc_request_duration_seconds",
			Help:    "JSON-RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Observe records one served call.
func (m *RPC) Observe(method string, ok bool, started time.Time) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.Requests.WithLabelValues(method, status).Inc()
	m.Duration.WithLabelValues(method).Observe(time.Since(started).Seconds())
}

// Handler exposes the collectors registered on g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
