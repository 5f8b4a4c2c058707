// Package metrics exposes live simulation counters via
// github.com/prometheus/client_golang. It implements engine.Observer
// so a long-running experiment can be watched on a /metrics endpoint
// (wired up by cmd/montecarlo -serve-metrics) without the engine
// package itself importing Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"stochastic-montecarlo/internal/consensus"
	"stochastic-montecarlo/internal/engine"
	"stochastic-montecarlo/internal/gossip"
)

// Collector records simulation progress as Prometheus metrics.
type Collector struct {
	injected           prometheus.Counter
	delivered          prometheus.Counter
	bandwidthDeferred  prometheus.Counter
	published          prometheus.Counter
	forcedPublishes    prometheus.Counter
	pending            prometheus.Gauge
	simulatedSeconds   prometheus.Gauge
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector registers a fresh set of metrics on reg. Pass
// prometheus.NewRegistry() for an isolated registry per experiment,
// or prometheus.DefaultRegisterer to expose it on the global
// /metrics handler.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		injected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "montecarlo_transactions_injected_total",
			Help: "Total transactions injected at seed peers.",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "montecarlo_delivery_attempts_delivered_total",
			Help: "Total delivery attempts that completed successfully.",
		}),
		bandwidthDeferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "montecarlo_delivery_attempts_bandwidth_deferred_total",
			Help: "Total delivery attempts deferred by sender bandwidth exhaustion.",
		}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "montecarlo_transactions_published_total",
			Help: "Total transactions published, normal or forced.",
		}),
		forcedPublishes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "montecarlo_forced_publishes_total",
			Help: "Total forced publications triggered by blocktime exhaustion.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "montecarlo_transactions_pending",
			Help: "Transactions injected but not yet published.",
		}),
		simulatedSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "montecarlo_simulated_seconds",
			Help: "Simulated wall-clock time elapsed, including forced-publish penalties.",
		}),
	}
	reg.MustRegister(
		c.injected, c.delivered, c.bandwidthDeferred,
		c.published, c.forcedPublishes, c.pending, c.simulatedSeconds,
	)
	return c
}

// OnInjected increments the injection counter.
func (c *Collector) OnInjected(count int) { c.injected.Add(float64(count)) }

// OnBroadcastStep increments delivery/deferral counters.
func (c *Collector) OnBroadcastStep(result gossip.StepResult) {
	c.delivered.Add(float64(result.Delivered))
	c.bandwidthDeferred.Add(float64(result.BandwidthDeferred))
}

// OnProposed is a no-op; block proposals aren't currently surfaced as
// metrics — there is no steady-state rate that a candidate block
// count would usefully summarize beyond what publish/forced already
// report.
func (c *Collector) OnProposed(consensus.ProposedBlock) {}

// OnPublishAttempt increments published/forced counters when a
// publish actually occurs.
func (c *Collector) OnPublishAttempt(result consensus.PublishAttemptResult) {
	if result.Published == 0 {
		return
	}
	c.published.Add(float64(result.Published))
	if result.Forced {
		c.forcedPublishes.Inc()
	}
}

// OnProgress updates the pending-count and simulated-time gauges.
func (c *Collector) OnProgress(snap engine.Snapshot) {
	c.pending.Set(float64(snap.PendingCount))
	c.simulatedSeconds.Set(float64(snap.SimulatedTimeMS) / 1000.0)
}
