package types

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
)

// Protocol constants that are not governance-tunable.
const (
	// UnstakeDelay is the network-wide wait between requesting and finalizing a withdrawal.
	UnstakeDelay = 7 * 24 * time.Hour

	// ReputationSmoothingOld is the weight kept from the previous reputation.
	ReputationSmoothingOld = 90

	// ReputationSmoothingNew is the weight given to the newest job outcome.
	ReputationSmoothingNew = 10
)

// Params defines the parameters for the workerpool module.
type Params struct {
	MinWorkerStake         math.Int         `json:"min_worker_stake"`
	MaxReputation          uint32           `json:"max_reputation"`
	InitialReputation      uint32           `json:"initial_reputation"`
	JobSuccessThreshold    uint32           `json:"job_success_threshold"`
	MajorSlashThreshold    uint32           `json:"major_slash_threshold"`
	SlashPercentages       SlashPercentages `json:"slash_percentages"`
	HeartbeatTimeout       time.Duration    `json:"heartbeat_timeout"`
	MaxReservationDuration time.Duration    `json:"max_reservation_duration"`
	MaxLockPeriod          time.Duration    `json:"max_lock_period"`
	MaxWorkers             uint64           `json:"max_workers"`
	Tiers                  TierTable        `json:"tiers"`

	// JobDispatchers may call the job-outcome operations in addition to the authority.
	JobDispatchers []string `json:"job_dispatchers"`
}

// DefaultParams returns default module parameters
func DefaultParams() Params {
	return Params{
		MinWorkerStake:         math.NewInt(1_000_000_000), // 1000 CIRO
		MaxReputation:          1000,
		InitialReputation:      500,
		JobSuccessThreshold:    50,
		MajorSlashThreshold:    30,
		SlashPercentages:       DefaultSlashPercentages(),
		HeartbeatTimeout:       10 * time.Minute,
		MaxReservationDuration: 24 * time.Hour,
		MaxLockPeriod:          365 * 24 * time.Hour,
		MaxWorkers:             100_000,
		Tiers:                  DefaultTierTable(),
		JobDispatchers:         []string{},
	}
}

// Validate validates the params
func (p Params) Validate() error {
	if p.MinWorkerStake.IsNil() || !p.MinWorkerStake.IsPositive() {
		return fmt.Errorf("min worker stake must be positive")
	}
	if p.MaxReputation == 0 {
		return fmt.Errorf("max reputation must be positive")
	}
	if p.InitialReputation > p.MaxReputation {
		return fmt.Errorf("initial reputation %d exceeds max reputation %d", p.InitialReputation, p.MaxReputation)
	}
	if p.JobSuccessThreshold > 100 {
		return fmt.Errorf("job success threshold must be at most 100, got %d", p.JobSuccessThreshold)
	}
	if p.MajorSlashThreshold == 0 || p.MajorSlashThreshold > 100 {
		return fmt.Errorf("major slash threshold must be between 1 and 100, got %d", p.MajorSlashThreshold)
	}
	if err := p.SlashPercentages.Validate(); err != nil {
		return err
	}
	if p.HeartbeatTimeout < 0 {
		return fmt.Errorf("heartbeat timeout cannot be negative")
	}
	if p.MaxReservationDuration <= 0 {
		return fmt.Errorf("max reservation duration must be positive")
	}
	if p.MaxLockPeriod < 0 {
		return fmt.Errorf("max lock period cannot be negative")
	}
	if p.MaxWorkers == 0 {
		return fmt.Errorf("max workers must be positive")
	}
	if err := p.Tiers.Validate(); err != nil {
		return fmt.Errorf("invalid tier table: %w", err)
	}
	seen := make(map[string]struct{}, len(p.JobDispatchers))
	for _, d := range p.JobDispatchers {
		if err := ValidatePrincipal(d); err != nil {
			return fmt.Errorf("invalid job dispatcher: %w", err)
		}
		if _, dup := seen[d]; dup {
			return fmt.Errorf("duplicate job dispatcher %s", d)
		}
		seen[d] = struct{}{}
	}
	for _, b := range p.Tiers {
		if b.MinReputation > p.MaxReputation {
			return fmt.Errorf("tier %s min reputation %d exceeds max reputation %d", b.Tier, b.MinReputation, p.MaxReputation)
		}
	}
	return nil
}

// IsJobDispatcher reports whether addr is a configured job dispatcher.
func (p Params) IsJobDispatcher(addr string) bool {
	for _, d := range p.JobDispatchers {
		if d == addr {
			return true
		}
	}
	return false
}

// IsMajorSlash reports whether pct meets the major threshold.
func (p Params) IsMajorSlash(pct uint32) bool {
	return pct >= p.MajorSlashThreshold
}
