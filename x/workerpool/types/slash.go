package types

import (
	"time"

	"cosmossdk.io/math"
)

// SlashRecord is an append-only audit entry for one slash.
type SlashRecord struct {
	ID         uint64      `json:"id"`
	WorkerID   uint64      `json:"worker_id"`
	Principal  string      `json:"principal"`
	Reason     SlashReason `json:"reason"`
	Percentage uint32      `json:"percentage"`
	Amount     math.Int    `json:"amount"`
	Timestamp  time.Time   `json:"timestamp"`
	Evidence   string      `json:"evidence,omitempty"`
	Major      bool        `json:"major"`
}

// ComputeSlashAmount returns stake * pct / 100 rounded down and capped at stake.
func ComputeSlashAmount(stake math.Int, pct uint32) math.Int {
	if stake.IsNil() || !stake.IsPositive() || pct == 0 {
		return math.ZeroInt()
	}
	amount := stake.MulRaw(int64(pct)).QuoRaw(100)
	if amount.GT(stake) {
		return stake
	}
	return amount
}
