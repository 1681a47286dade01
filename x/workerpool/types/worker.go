package types

import (
	"fmt"
	"math/bits"
	"time"

	"cosmossdk.io/math"
)

const (
	// MaxModelLength bounds the free-text hardware model fields.
	MaxModelLength = 128

	// MaxLocationLength bounds the opaque location tag.
	MaxLocationLength = 64

	// MaxPrincipalLength bounds principal identifiers.
	MaxPrincipalLength = 128
)

// Feature flags advertised in Capabilities.Features. Bits above these are
// free for operator-defined features.
const (
	FeatureCUDA uint64 = 1 << iota
	FeatureROCm
	FeatureTensorCores
	FeatureFP16
	FeatureINT8
	FeatureNVLink
	FeatureSGX
	FeatureSEV
)

// Capabilities describes the resources a worker offers.
type Capabilities struct {
	GPUMemoryMB   uint64 `json:"gpu_memory_mb"`
	CPUCores      uint32 `json:"cpu_cores"`
	RAMMB         uint64 `json:"ram_mb"`
	StorageGB     uint64 `json:"storage_gb,omitempty"`
	BandwidthMbps uint64 `json:"bandwidth_mbps,omitempty"`
	Features      uint64 `json:"features"`
	GPUModel      string `json:"gpu_model,omitempty"`
	CPUModel      string `json:"cpu_model,omitempty"`
}

// Validate checks that every required capability field is positive.
func (c Capabilities) Validate() error {
	if c.GPUMemoryMB == 0 {
		return ErrInvalidCapabilities.Wrap("gpu memory must be positive")
	}
	if c.CPUCores == 0 {
		return ErrInvalidCapabilities.Wrap("cpu cores must be positive")
	}
	if c.RAMMB == 0 {
		return ErrInvalidCapabilities.Wrap("ram must be positive")
	}
	if len(c.GPUModel) > MaxModelLength || len(c.CPUModel) > MaxModelLength {
		return ErrInvalidCapabilities.Wrapf("model names are limited to %d bytes", MaxModelLength)
	}
	return nil
}

// HasFeatures reports whether every bit in mask is set.
func (c Capabilities) HasFeatures(mask uint64) bool {
	return c.Features&mask == mask
}

// FeatureBits returns the indexes of the set feature bits in ascending order.
func FeatureBits(mask uint64) []uint8 {
	out := make([]uint8, 0, bits.OnesCount64(mask))
	for mask != 0 {
		bit := bits.TrailingZeros64(mask)
		out = append(out, uint8(bit))
		mask &^= 1 << uint(bit)
	}
	return out
}

// PerformanceMetrics is the snapshot a worker reports with each heartbeat.
type PerformanceMetrics struct {
	LatencyMs   uint64 `json:"latency_ms"`
	UptimeBps   uint32 `json:"uptime_bps"`
	LoadPercent uint32 `json:"load_percent"`
	JobsRunning uint32 `json:"jobs_running"`
}

// Validate checks the ranges of the reported metrics.
func (m PerformanceMetrics) Validate() error {
	if m.UptimeBps > 10_000 {
		return fmt.Errorf("uptime cannot exceed 10000 bps, got %d", m.UptimeBps)
	}
	if m.LoadPercent > 100 {
		return fmt.Errorf("load cannot exceed 100%%, got %d", m.LoadPercent)
	}
	return nil
}

// Worker is a registered compute provider.
type Worker struct {
	ID            uint64             `json:"id"`
	Owner         string             `json:"owner"`
	Capabilities  Capabilities       `json:"capabilities"`
	Status        WorkerStatus       `json:"status"`
	Tier          Tier               `json:"tier"`
	RegisteredAt  time.Time          `json:"registered_at"`
	LastHeartbeat time.Time          `json:"last_heartbeat"`
	StakeAmount   math.Int           `json:"stake_amount"`
	Reputation    uint32             `json:"reputation"`
	JobsCompleted uint64             `json:"jobs_completed"`
	JobsFailed    uint64             `json:"jobs_failed"`
	TotalEarnings math.Int           `json:"total_earnings"`
	Location      string             `json:"location,omitempty"`
	Performance   PerformanceMetrics `json:"performance"`
}

// IsStale reports whether the last heartbeat is older than timeout at now.
// A zero timeout disables staleness.
func (w Worker) IsStale(now time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return now.Sub(w.LastHeartbeat) > timeout
}

// WorkerExitRecord preserves a removed worker's history.
type WorkerExitRecord struct {
	WorkerID      uint64       `json:"worker_id"`
	Owner         string       `json:"owner"`
	FinalStatus   WorkerStatus `json:"final_status"`
	RegisteredAt  time.Time    `json:"registered_at"`
	ExitedAt      time.Time    `json:"exited_at"`
	Reputation    uint32       `json:"reputation"`
	JobsCompleted uint64       `json:"jobs_completed"`
	JobsFailed    uint64       `json:"jobs_failed"`
	TotalEarnings math.Int     `json:"total_earnings"`
}

// ValidatePrincipal rejects empty or oversized principal identifiers and the
// pool's own escrow account.
func ValidatePrincipal(principal string) error {
	if principal == "" {
		return ErrInvalidAddress.Wrap("principal cannot be empty")
	}
	if len(principal) > MaxPrincipalLength {
		return ErrInvalidAddress.Wrapf("principal exceeds %d bytes", MaxPrincipalLength)
	}
	if principal == PoolAccount {
		return ErrInvalidAddress.Wrapf("%s is reserved for the pool escrow", PoolAccount)
	}
	return nil
}

// WorkerCounters are the aggregate registry counts kept alongside every transition.
type WorkerCounters struct {
	Total  uint64 `json:"total"`
	Active uint64 `json:"active"`
}
