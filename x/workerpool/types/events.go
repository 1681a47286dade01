package types

// Event types for the workerpool module
// All event types use lowercase with underscore separator (module_action format)
const (
	// Stake events
	EventTypeStakeDeposited      = "workerpool_stake_deposited"
	EventTypeUnstakeRequested    = "workerpool_unstake_requested"
	EventTypeUnstakeCompleted    = "workerpool_unstake_completed"
	EventTypeStakeDelegated      = "workerpool_stake_delegated"
	EventTypeValuationsRefreshed = "workerpool_valuations_refreshed"

	// Worker events
	EventTypeWorkerRegistered    = "workerpool_worker_registered"
	EventTypeWorkerStatusChanged = "workerpool_worker_status_changed"
	EventTypeWorkerCapabilities  = "workerpool_worker_capabilities_updated"
	EventTypeWorkerHeartbeat     = "workerpool_worker_heartbeat"
	EventTypeWorkerRemoved       = "workerpool_worker_removed"
	EventTypeWorkerTierChanged   = "workerpool_worker_tier_changed"
	EventTypeReputationUpdated   = "workerpool_reputation_updated"
	EventTypeWorkerSlashed       = "workerpool_worker_slashed"
	EventTypeRewardDistributed   = "workerpool_reward_distributed"
	EventTypeStaleWorkersSwept   = "workerpool_stale_workers_swept"

	// Allocation events
	EventTypeWorkerAllocated    = "workerpool_worker_allocated"
	EventTypeWorkerReserved     = "workerpool_worker_reserved"
	EventTypeWorkerReleased     = "workerpool_worker_released"
	EventTypeReservationsPruned = "workerpool_reservations_pruned"

	// Admin events
	EventTypePriceUpdated  = "workerpool_price_updated"
	EventTypeParamsUpdated = "workerpool_params_updated"
	EventTypePoolPaused    = "workerpool_paused"
	EventTypePoolUnpaused  = "workerpool_unpaused"
)

// Event attribute keys for the workerpool module
const (
	AttributeKeyPrincipal    = "principal"
	AttributeKeyWorkerID     = "worker_id"
	AttributeKeyAmount       = "amount"
	AttributeKeyUSDValue     = "usd_value"
	AttributeKeyLockUntil    = "lock_until"
	AttributeKeyUnlockTime   = "unlock_time"
	AttributeKeyCompleteExit = "complete_exit"
	AttributeKeyOldStatus    = "old_status"
	AttributeKeyNewStatus    = "new_status"
	AttributeKeyOldTier      = "old_tier"
	AttributeKeyNewTier      = "new_tier"
	AttributeKeyReputation   = "reputation"
	AttributeKeyReason       = "reason"
	AttributeKeyPercentage   = "percentage"
	AttributeKeySlashID      = "slash_id"
	AttributeKeyJobID        = "job_id"
	AttributeKeyScore        = "score"
	AttributeKeyExpiresAt    = "expires_at"
	AttributeKeyPrice        = "price"
	AttributeKeyCount        = "count"
	AttributeKeyAuthority    = "authority"
	AttributeKeyDelegator    = "delegator"
	AttributeKeyPayout       = "payout"
)
