package api

import (
	"fmt"
	"time"

	"cosmossdk.io/math"

	pooltypes "github.com/ciro-network/ciro/x/workerpool/types"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ==================== Stake Types ====================

// DepositRequest stakes tokens already approved to the pool account.
type DepositRequest struct {
	Amount     math.Int `json:"amount"`
	LockPeriod string   `json:"lock_period,omitempty"`
}

// WithdrawalRequest asks to unstake Amount.
type WithdrawalRequest struct {
	Amount math.Int `json:"amount"`
}

// DelegateRequest moves stake to a worker.
type DelegateRequest struct {
	WorkerID uint64   `json:"worker_id" binding:"required"`
	Amount   math.Int `json:"amount"`
}

// StakeResponse is a principal's stake position.
type StakeResponse struct {
	Stake          pooltypes.StakeRecord     `json:"stake"`
	Withdrawable   math.Int                  `json:"withdrawable"`
	PendingUnstake *pooltypes.UnstakeRequest `json:"pending_unstake,omitempty"`
}

// ==================== Worker Types ====================

// RegisterWorkerRequest registers the caller's worker.
type RegisterWorkerRequest struct {
	Capabilities pooltypes.Capabilities `json:"capabilities"`
	Location     string                 `json:"location,omitempty"`
}

// ReasonRequest carries a free-text reason.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// WorkerListResponse is one page of workers.
type WorkerListResponse struct {
	Workers []pooltypes.Worker `json:"workers"`
	Total   int                `json:"total"`
}

// ==================== Job Types ====================

// RequirementsRequest mirrors JobRequirements with a readable duration.
type RequirementsRequest struct {
	MinGPUMemoryMB    uint64 `json:"min_gpu_memory_mb"`
	MinCPUCores       uint32 `json:"min_cpu_cores"`
	MinRAMMB          uint64 `json:"min_ram_mb"`
	RequiredFeatures  uint64 `json:"required_features"`
	PreferredFeatures uint64 `json:"preferred_features"`
	ExpectedDuration  string `json:"expected_duration,omitempty"`
}

// AllocateRequest asks for the best worker for a job.
type AllocateRequest struct {
	JobID        string              `json:"job_id" binding:"required"`
	Requirements RequirementsRequest `json:"requirements"`
	Priority     string              `json:"priority,omitempty"`
	MaxLatency   string              `json:"max_latency,omitempty"`
}

// ToAllocationRequest parses the textual fields.
func (r AllocateRequest) ToAllocationRequest() (pooltypes.AllocationRequest, error) {
	priority := pooltypes.PriorityNormal
	if r.Priority != "" {
		p, err := pooltypes.ParsePriority(r.Priority)
		if err != nil {
			return pooltypes.AllocationRequest{}, err
		}
		priority = p
	}
	expected, err := parseDuration(r.Requirements.ExpectedDuration)
	if err != nil {
		return pooltypes.AllocationRequest{}, fmt.Errorf("expected_duration: %w", err)
	}
	maxLatency, err := parseDuration(r.MaxLatency)
	if err != nil {
		return pooltypes.AllocationRequest{}, fmt.Errorf("max_latency: %w", err)
	}

	return pooltypes.AllocationRequest{
		JobID: r.JobID,
		Requirements: pooltypes.JobRequirements{
			MinGPUMemoryMB:    r.Requirements.MinGPUMemoryMB,
			MinCPUCores:       r.Requirements.MinCPUCores,
			MinRAMMB:          r.Requirements.MinRAMMB,
			RequiredFeatures:  r.Requirements.RequiredFeatures,
			PreferredFeatures: r.Requirements.PreferredFeatures,
			ExpectedDuration:  expected,
		},
		Priority:   priority,
		MaxLatency: maxLatency,
	}, nil
}

// ReserveRequest holds a worker for a job.
type ReserveRequest struct {
	JobID    string `json:"job_id" binding:"required"`
	Duration string `json:"duration" binding:"required"`
}

// ReputationUpdateRequest reports a job outcome.
type ReputationUpdateRequest struct {
	Performance uint32 `json:"performance"`
	Quality     uint32 `json:"quality"`
}

// ReputationOverrideRequest sets an absolute reputation.
type ReputationOverrideRequest struct {
	Reputation uint32 `json:"reputation"`
}

// RewardRequest pays a worker for a job.
type RewardRequest struct {
	Base             math.Int `json:"base"`
	PerformanceBonus math.Int `json:"performance_bonus"`
}

// ==================== Admin Types ====================

// SlashRequest penalizes a worker.
type SlashRequest struct {
	Reason   string   `json:"reason" binding:"required"`
	Evidence []string `json:"evidence,omitempty"`
}

// PriceRequest feeds a new token price in USD.
type PriceRequest struct {
	Price math.LegacyDec `json:"price"`
}

// ==================== Token Types ====================

// ApproveRequest sets the caller's allowance for spender.
type ApproveRequest struct {
	Spender string   `json:"spender" binding:"required"`
	Amount  math.Int `json:"amount"`
}

// TransferRequest moves tokens from the caller.
type TransferRequest struct {
	Recipient string   `json:"recipient" binding:"required"`
	Amount    math.Int `json:"amount"`
}

// MintRequest issues tokens to an account.
type MintRequest struct {
	Account string   `json:"account" binding:"required"`
	Amount  math.Int `json:"amount"`
}

// BalanceResponse is an account's token balance.
type BalanceResponse struct {
	Account string   `json:"account"`
	Balance math.Int `json:"balance"`
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}
	return d, nil
}
