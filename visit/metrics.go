package visit

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// outcome label values
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics counts the visits by outcome
type Metrics struct {
	visits *prometheus.CounterVec
}

// NewMetrics registers the visit metrics into registerer
func NewMetrics(namespace string, registerer prometheus.Registerer) (*Metrics, error) {
	visits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "visits_total",
		Help:      "Number of visits by outcome of the counter increment",
	}, []string{"outcome"})

	if err := registerer.Register(visits); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, fmt.Errorf("failed to register visits metric: %v", err)
		}
		visits = are.ExistingCollector.(*prometheus.CounterVec)
	}
	return &Metrics{visits: visits}, nil
}

func (p *Metrics) observe(outcome string) {
	if p == nil {
		return
	}
	p.visits.WithLabelValues(outcome).Inc()
}
