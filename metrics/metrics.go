// Package metrics exports the events of a fluid tree to Prometheus.
package metrics

import (
	"github.com/gorgonia/fluxzero/fluid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fluxzero"

var _ fluid.Metrics = (*Prometheus)(nil)

// Prometheus implements fluid.Metrics with counters and histograms.
type Prometheus struct {
	nodesCreated     prometheus.Counter
	selectionDepth   prometheus.Histogram
	backpropDepth    prometheus.Histogram
	backpropFailures prometheus.Counter
	persistence      *prometheus.CounterVec
}

// New registers the tree metrics with reg. A nil reg registers with the
// default registry.
func New(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	depthBuckets := prometheus.ExponentialBuckets(1, 2, 10)
	return &Prometheus{
		nodesCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_created_total",
			Help:      "Total nodes appended to the node store",
		}),
		selectionDepth: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "selection_depth",
			Help:      "Depth of the leaves reached by SelectLeaf",
			Buckets:   depthBuckets,
		}),
		backpropDepth: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backprop_depth",
			Help:      "Depth of the leaves backpropagated from",
			Buckets:   depthBuckets,
		}),
		backpropFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backprop_failures_total",
			Help:      "Total failed backpropagations",
		}),
		persistence: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_ops_total",
			Help:      "Total tree saves and loads by outcome",
		}, []string{"op", "status"}),
	}
}

func (p *Prometheus) NodeCreated()             { p.nodesCreated.Inc() }
func (p *Prometheus) LeafSelected(depth int)   { p.selectionDepth.Observe(float64(depth)) }
func (p *Prometheus) Backpropagated(depth int) { p.backpropDepth.Observe(float64(depth)) }
func (p *Prometheus) BackpropFailed()          { p.backpropFailures.Inc() }

func (p *Prometheus) Persisted(op string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	p.persistence.WithLabelValues(op, status).Inc()
}
