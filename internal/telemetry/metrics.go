// Package telemetry holds the process-wide Prometheus metrics and the
// logging conventions shared by every subsystem, following the pattern in
// the teacher's backend/simulation/metrics.go and backend/server/server.go.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	SimEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatchsim_sim_events_total",
		Help: "Number of timed simulation events fired, labeled by kernel form.",
	}, []string{"kernel"})

	SimTickLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatchsim_sim_tick_latency_seconds",
		Help:    "Wall-clock time spent advancing the simulation clock by one Simulate call.",
		Buckets: prometheus.DefBuckets,
	})

	TruckEmptiesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatchsim_truck_empties_total",
		Help: "Cumulative count of completed crusher dump cycles across all runs in this process.",
	})

	GAGenerationBestFitness = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatchsim_ga_generation_best_fitness",
		Help: "Best-ever fitness observed by the rolling genetic algorithm in the current run.",
	})

	GAGenerationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatchsim_ga_generation_duration_seconds",
		Help:    "Wall-clock time spent evaluating one GA generation.",
		Buckets: prometheus.DefBuckets,
	})

	LPSolveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatchsim_lp_solve_duration_seconds",
		Help:    "Wall-clock time spent in the external MILP solver invocation, including retries.",
		Buckets: prometheus.DefBuckets,
	})

	LPSolveFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatchsim_lp_solve_failures_total",
		Help: "Count of LP solves that exhausted their retry budget and persisted a model dump.",
	})

	DispatchDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatchsim_dispatch_decisions_total",
		Help: "Count of dispatch decisions made, labeled by route index and direction.",
	}, []string{"route", "direction"})

	goroutineGauge = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "dispatchsim_goroutine_count",
		Help: "Number of goroutines running, sampled on each /metrics scrape.",
	}, goroutineCount)
)

func init() {
	prometheus.MustRegister(
		SimEventsTotal,
		SimTickLatency,
		TruckEmptiesTotal,
		GAGenerationBestFitness,
		GAGenerationDuration,
		LPSolveDuration,
		LPSolveFailuresTotal,
		DispatchDecisionsTotal,
		goroutineGauge,
	)
}
