package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo por método",
	}, []string{"method"})
)

// RegisterHTTP registra las métricas HTTP.
func RegisterHTTP(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{HTTPRequestsTotal, HTTPRequestDuration, HTTPInflight} {
		if err := register(reg, c); err != nil {
			return err
		}
	}
	return nil
}

// Handler registra todo en reg y devuelve el handler de /metrics para gatherer.
func Handler(reg prometheus.Registerer, gatherer prometheus.Gatherer) (http.Handler, error) {
	if err := RegisterKeys(reg); err != nil {
		return nil, err
	}
	if err := RegisterHTTP(reg); err != nil {
		return nil, err
	}
	if gatherer == nil {
		return promhttp.Handler(), nil
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}), nil
}
