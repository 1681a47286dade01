package types

import (
	"time"

	"cosmossdk.io/math"
)

// StakeRecord is the per-principal stake balance.
type StakeRecord struct {
	Principal    string         `json:"principal"`
	Amount       math.Int       `json:"amount"`
	USDValue     math.LegacyDec `json:"usd_value"`
	LockUntil    time.Time      `json:"lock_until"`
	LastAdjusted time.Time      `json:"last_adjusted"`
	DelegatedIn  math.Int       `json:"delegated_in"`
	DelegatedOut math.Int       `json:"delegated_out"`
}

// NewStakeRecord returns an empty record for principal.
func NewStakeRecord(principal string) StakeRecord {
	return StakeRecord{
		Principal:    principal,
		Amount:       math.ZeroInt(),
		USDValue:     math.LegacyZeroDec(),
		DelegatedIn:  math.ZeroInt(),
		DelegatedOut: math.ZeroInt(),
	}
}

// Withdrawable is the portion of stake not committed to delegations.
func (s StakeRecord) Withdrawable() math.Int {
	free := s.Amount.Sub(s.DelegatedOut)
	if free.IsNegative() {
		return math.ZeroInt()
	}
	return free
}

// IsLocked reports whether the lock period is still running at now.
func (s StakeRecord) IsLocked(now time.Time) bool {
	return now.Before(s.LockUntil)
}

// UnstakeRequest is a pending withdrawal. A principal has at most one.
type UnstakeRequest struct {
	Principal      string    `json:"principal"`
	Amount         math.Int  `json:"amount"`
	RequestedAt    time.Time `json:"requested_at"`
	UnlockTime     time.Time `json:"unlock_time"`
	IsCompleteExit bool      `json:"is_complete_exit"`
}

// IsReady reports whether the request may be finalized at now.
func (r UnstakeRequest) IsReady(now time.Time) bool {
	return !now.Before(r.UnlockTime)
}

// Delegation is stake a principal has pointed at a worker.
type Delegation struct {
	Delegator string   `json:"delegator"`
	WorkerID  uint64   `json:"worker_id"`
	Amount    math.Int `json:"amount"`
}

// PoolTotals accumulates every stake movement for conservation checks.
type PoolTotals struct {
	TotalDeposited math.Int `json:"total_deposited"`
	TotalWithdrawn math.Int `json:"total_withdrawn"`
	TotalSlashed   math.Int `json:"total_slashed"`
	TotalRewarded  math.Int `json:"total_rewarded"`
}

// NewPoolTotals returns zeroed totals.
func NewPoolTotals() PoolTotals {
	return PoolTotals{
		TotalDeposited: math.ZeroInt(),
		TotalWithdrawn: math.ZeroInt(),
		TotalSlashed:   math.ZeroInt(),
		TotalRewarded:  math.ZeroInt(),
	}
}

// ExpectedStake is the stake every record should sum to.
func (p PoolTotals) ExpectedStake() math.Int {
	return p.TotalDeposited.Sub(p.TotalWithdrawn).Sub(p.TotalSlashed)
}
