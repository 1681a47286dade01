package types

import (
	"cosmossdk.io/math"
)

// PoolStats is an aggregate snapshot of the pool.
type PoolStats struct {
	TotalWorkers    uint64            `json:"total_workers"`
	ActiveWorkers   uint64            `json:"active_workers"`
	WorkersByStatus map[string]uint64 `json:"workers_by_status"`
	WorkersByTier   map[string]uint64 `json:"workers_by_tier"`
	TotalStaked     math.Int          `json:"total_staked"`
	Totals          PoolTotals        `json:"totals"`
	PoolBalance     math.Int          `json:"pool_balance"`
	FreeBalance     math.Int          `json:"free_balance"`
	Price           math.LegacyDec    `json:"price"`
	Paused          bool              `json:"paused"`
}

// WorkerInfo joins a worker with its owner's stake position.
type WorkerInfo struct {
	Worker         Worker          `json:"worker"`
	CurrentTier    Tier            `json:"current_tier"`
	Stake          StakeRecord     `json:"stake"`
	PendingUnstake *UnstakeRequest `json:"pending_unstake,omitempty"`
	SlashCount     int             `json:"slash_count"`
}
