package emit

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/flowgraph/runtime/flow"
)

// PromEmitter records run/node lifecycle events as Prometheus metrics.
// Adapted from the teacher's graph.PrometheusMetrics: same
// namespaced-counter/gauge shape, retargeted from generic step
// lifecycle onto the flow/emit Kind vocabulary (queued/running/
// completed/failed/skipped).
//
// Metrics, all namespaced "flow_":
//   - nodes_inflight (gauge): nodes currently RUNNING.
//   - node_events_total (counter, labels status,node_id): one increment per
//     lifecycle transition.
//   - runs_completed_total / runs_failed_total (counter): terminal run
//     outcomes.
type PromEmitter struct {
	nodesInflight prometheus.Gauge
	nodeEvents    *prometheus.CounterVec
	runsCompleted prometheus.Counter
	runsFailed    prometheus.Counter
}

// NewPromEmitter registers and returns a PromEmitter against registry (use
// prometheus.DefaultRegisterer for the global registry).
func NewPromEmitter(registry prometheus.Registerer) *PromEmitter {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PromEmitter{
		nodesInflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "flow",
			Name:      "nodes_inflight",
			Help:      "Current number of nodes in RUNNING status",
		}),
		nodeEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flow",
			Name:      "node_events_total",
			Help:      "Count of node lifecycle transitions by status",
		}, []string{"status", "node_id"}),
		runsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "flow",
			Name:      "runs_completed_total",
			Help:      "Count of runs that reached FLOW_ENDED",
		}),
		runsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "flow",
			Name:      "runs_failed_total",
			Help:      "Count of runs that reached FLOW_FAILED",
		}),
	}
}

func (p *PromEmitter) Emit(_ context.Context, event Event) {
	if event.EventType == KindNodeStatusChanged {
		p.nodeEvents.WithLabelValues(string(event.Status), event.NodeID).Inc()
		switch event.Status {
		case flow.StatusRunning:
			p.nodesInflight.Inc()
		case flow.StatusCompleted, flow.StatusFailed:
			p.nodesInflight.Dec()
		}
		return
	}

	switch event.EventType {
	case KindFlowEnded:
		p.runsCompleted.Inc()
	case KindFlowFailed:
		p.runsFailed.Inc()
	}
}
