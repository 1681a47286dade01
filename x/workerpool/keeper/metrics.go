package keeper

import (
	"math/big"
	"sync"

	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerPoolMetrics holds all Prometheus metrics for the worker pool module
type WorkerPoolMetrics struct {
	// Stake metrics
	StakeDeposited prometheus.Counter
	StakeWithdrawn prometheus.Counter
	SlashedAmount  prometheus.Counter
	RewardsPaid    prometheus.Counter
	Slashes        *prometheus.CounterVec

	// Registry metrics
	ActiveWorkers     prometheus.Gauge
	TotalWorkers      prometheus.Gauge
	WorkersRegistered prometheus.Counter
	WorkersRemoved    prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	ReputationScores  prometheus.Histogram

	// Allocation metrics
	Allocations       *prometheus.CounterVec
	AllocationLatency prometheus.Histogram

	// Security metrics
	ReentrancyRejections *prometheus.CounterVec
	PauseToggles         *prometheus.CounterVec
}

var (
	workerPoolMetricsOnce sync.Once
	workerPoolMetrics     *WorkerPoolMetrics
)

// NewWorkerPoolMetrics creates and registers worker pool metrics (singleton pattern)
func NewWorkerPoolMetrics() *WorkerPoolMetrics {
	workerPoolMetricsOnce.Do(func() {
		workerPoolMetrics = &WorkerPoolMetrics{
			StakeDeposited: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "stake_deposited_total",
					Help:      "Total base units deposited into the pool",
				},
			),
			StakeWithdrawn: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "stake_withdrawn_total",
					Help:      "Total base units paid out by finalized withdrawals",
				},
			),
			SlashedAmount: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "stake_slashed_total",
					Help:      "Total base units removed from stake by slashing",
				},
			),
			RewardsPaid: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "rewards_paid_total",
					Help:      "Total base units paid to workers as job rewards",
				},
			),
			Slashes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "slashes_total",
					Help:      "Slash events by reason",
				},
				[]string{"reason"},
			),

			ActiveWorkers: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "workers_active",
					Help:      "Number of workers in the Active state",
				},
			),
			TotalWorkers: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "workers_registered",
					Help:      "Number of registered workers",
				},
			),
			WorkersRegistered: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "worker_registrations_total",
					Help:      "Total worker registrations",
				},
			),
			WorkersRemoved: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "worker_removals_total",
					Help:      "Total workers removed from the registry",
				},
			),
			StatusTransitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "status_transitions_total",
					Help:      "Worker status transitions",
				},
				[]string{"from", "to"},
			),
			ReputationScores: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "reputation_score",
					Help:      "Distribution of reputation after each job outcome",
					Buckets:   []float64{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000},
				},
			),

			Allocations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "allocations_total",
					Help:      "Allocation requests by outcome",
				},
				[]string{"outcome"},
			),
			AllocationLatency: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "allocation_seconds",
					Help:      "Time spent selecting a worker",
					Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
				},
			),

			ReentrancyRejections: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "reentrancy_rejections_total",
					Help:      "Operations rejected because the pool lock was held",
				},
				[]string{"operation"},
			),
			PauseToggles: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "ciro",
					Subsystem: "workerpool",
					Name:      "pause_toggles_total",
					Help:      "Pause and unpause actions",
				},
				[]string{"action"},
			),
		}
	})
	return workerPoolMetrics
}

// intToFloat converts a token amount for metric reporting; precision loss is fine here.
func intToFloat(v math.Int) float64 {
	if v.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.BigInt()).Float64()
	return f
}
