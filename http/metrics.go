package http

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RequestMetrics http请求的指标
type RequestMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	gatherer prometheus.Gatherer
}

// NewRequestMetrics 在registry中注册http请求的指标,已经注册过的指标会被复用
func NewRequestMetrics(namespace string, registry *prometheus.Registry) (*RequestMetrics, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Number of http requests by path and status code",
	}, []string{"path", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Time taken to handle the http request",
		Buckets:   prometheus.DefBuckets,
	}, []string{"path"})

	m := &RequestMetrics{gatherer: registry}
	if err := registry.Register(requests); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, fmt.Errorf("failed to register requests metric: %v", err)
		}
		requests = are.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := registry.Register(duration); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, fmt.Errorf("failed to register duration metric: %v", err)
		}
		duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	m.requests = requests
	m.duration = duration
	return m, nil
}

// Handler 输出指标的处理器
func (p *RequestMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}
