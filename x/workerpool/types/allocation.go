package types

import (
	"fmt"
	"time"
)

const (
	// MaxJobIDLength bounds job identifiers.
	MaxJobIDLength = 128

	// MaxCapabilityScore is the cap on the capability match score.
	MaxCapabilityScore = 100

	// CapabilityMatchPoints is awarded per satisfied requirement.
	CapabilityMatchPoints = 25
)

// Priority is the urgency a job contract attaches to an allocation.
type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("priority(%d)", uint8(p))
	}
}

// ParsePriority converts a priority name into a Priority.
func ParsePriority(s string) (Priority, error) {
	for _, p := range []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical} {
		if p.String() == s {
			return p, nil
		}
	}
	return PriorityNormal, fmt.Errorf("unknown priority %q", s)
}

// Reserves reports whether an allocation at this priority holds the worker.
func (p Priority) Reserves() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// JobRequirements are the hard and soft constraints of a job.
type JobRequirements struct {
	MinGPUMemoryMB    uint64        `json:"min_gpu_memory_mb"`
	MinCPUCores       uint32        `json:"min_cpu_cores"`
	MinRAMMB          uint64        `json:"min_ram_mb"`
	RequiredFeatures  uint64        `json:"required_features"`
	PreferredFeatures uint64        `json:"preferred_features"`
	ExpectedDuration  time.Duration `json:"expected_duration"`
}

// Validate checks that every hard minimum is positive.
func (r JobRequirements) Validate() error {
	if r.MinGPUMemoryMB == 0 || r.MinCPUCores == 0 || r.MinRAMMB == 0 {
		return ErrInvalidRequirements.Wrap("gpu memory, cpu cores and ram minimums must be positive")
	}
	if r.ExpectedDuration < 0 {
		return ErrInvalidRequirements.Wrap("expected duration cannot be negative")
	}
	return nil
}

// AllocationRequest is an inbound request from the job contract.
type AllocationRequest struct {
	JobID        string          `json:"job_id"`
	Requirements JobRequirements `json:"requirements"`
	Priority     Priority        `json:"priority"`
	// MaxLatency of zero means no latency bound.
	MaxLatency time.Duration `json:"max_latency"`
}

// ValidateBasic performs stateless checks.
func (r AllocationRequest) ValidateBasic() error {
	if err := ValidateJobID(r.JobID); err != nil {
		return err
	}
	if r.Priority > PriorityCritical {
		return ErrInvalidRequirements.Wrapf("unknown priority %d", uint8(r.Priority))
	}
	if r.MaxLatency < 0 {
		return ErrInvalidRequirements.Wrap("max latency cannot be negative")
	}
	// The reservation a reserving priority writes expires at the estimated
	// completion, so it needs a positive expected duration to hold at all.
	if r.Priority.Reserves() && r.Requirements.ExpectedDuration <= 0 {
		return ErrInvalidRequirements.Wrapf("%s priority requires a positive expected duration", r.Priority)
	}
	return r.Requirements.Validate()
}

// Allocation is the outcome of a successful allocation.
type Allocation struct {
	JobID               string    `json:"job_id"`
	WorkerID            uint64    `json:"worker_id"`
	Owner               string    `json:"owner"`
	Tier                Tier      `json:"tier"`
	CapabilityScore     uint32    `json:"capability_score"`
	FinalScore          uint64    `json:"final_score"`
	Confidence          uint32    `json:"confidence"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
	Reserved            bool      `json:"reserved"`
}

// Reservation is an advisory hold on a worker for one job.
type Reservation struct {
	WorkerID  uint64    `json:"worker_id"`
	JobID     string    `json:"job_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the hold has lapsed at now.
func (r Reservation) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// ValidateJobID rejects empty or oversized job ids.
func ValidateJobID(jobID string) error {
	if jobID == "" {
		return ErrInvalidRequirements.Wrap("job id cannot be empty")
	}
	if len(jobID) > MaxJobIDLength {
		return ErrInvalidRequirements.Wrapf("job id exceeds %d bytes", MaxJobIDLength)
	}
	return nil
}
