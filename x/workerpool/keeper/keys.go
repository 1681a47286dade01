package keeper

import (
	"encoding/binary"

	"github.com/cosmos/cosmos-sdk/types/address"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

var (
	// ParamsKey is the key for module parameters
	ParamsKey = []byte{0x01}

	// PriceKey is the key for the admin-fed unit price
	PriceKey = []byte{0x02}

	// WorkerKeyPrefix is the prefix for worker storage
	WorkerKeyPrefix = []byte{0x03}

	// WorkerByOwnerPrefix maps an owning principal to its worker id
	WorkerByOwnerPrefix = []byte{0x04}

	// WorkersByStatusPrefix indexes workers by lifecycle status
	WorkersByStatusPrefix = []byte{0x05}

	// WorkersByFeaturePrefix indexes workers by each advertised feature bit
	WorkersByFeaturePrefix = []byte{0x06}

	// NextWorkerIDKey is the key for the next worker ID counter
	NextWorkerIDKey = []byte{0x07}

	// StakeKeyPrefix is the prefix for stake records
	StakeKeyPrefix = []byte{0x08}

	// UnstakeRequestPrefix is the prefix for pending withdrawals
	UnstakeRequestPrefix = []byte{0x09}

	// DelegationPrefix is the prefix for delegator/worker delegation pairs
	DelegationPrefix = []byte{0x0A}

	// ReservationPrefix is the prefix for worker/job reservations
	ReservationPrefix = []byte{0x0B}

	// SlashRecordKeyPrefix is the prefix for slash record storage
	SlashRecordKeyPrefix = []byte{0x0C}

	// SlashRecordsByWorkerPrefix indexes slash records by worker
	SlashRecordsByWorkerPrefix = []byte{0x0D}

	// NextSlashIDKey is the key for the next slash ID counter
	NextSlashIDKey = []byte{0x0E}

	// ExitRecordPrefix is the prefix for removed worker history
	ExitRecordPrefix = []byte{0x0F}

	// PoolTotalsKey is the key for cumulative stake flows
	PoolTotalsKey = []byte{0x10}

	// WorkerCountersKey is the key for the total/active worker counters
	WorkerCountersKey = []byte{0x11}

	// PauseStateKey is the key for the pool pause switch
	PauseStateKey = []byte{0x12}

	// ReentrancyLockPrefix is the prefix for reentrancy locks
	ReentrancyLockPrefix = []byte{0x13}
)

// GetWorkerKey returns the store key for a worker
func GetWorkerKey(id uint64) []byte {
	return append(cloneKey(WorkerKeyPrefix), uint64Key(id)...)
}

// GetWorkerByOwnerKey returns the owner index key
func GetWorkerByOwnerKey(owner string) []byte {
	return append(cloneKey(WorkerByOwnerPrefix), []byte(owner)...)
}

// GetWorkersByStatusPrefix returns the index prefix for one status
func GetWorkersByStatusPrefix(status types.WorkerStatus) []byte {
	return append(cloneKey(WorkersByStatusPrefix), byte(status))
}

// GetWorkerByStatusKey returns the status index key for a worker
func GetWorkerByStatusKey(status types.WorkerStatus, id uint64) []byte {
	return append(GetWorkersByStatusPrefix(status), uint64Key(id)...)
}

// GetWorkersByFeaturePrefix returns the index prefix for one feature bit
func GetWorkersByFeaturePrefix(bit uint8) []byte {
	return append(cloneKey(WorkersByFeaturePrefix), bit)
}

// GetWorkerByFeatureKey returns the feature index key for a worker
func GetWorkerByFeatureKey(bit uint8, id uint64) []byte {
	return append(GetWorkersByFeaturePrefix(bit), uint64Key(id)...)
}

// GetStakeKey returns the store key for a principal's stake record
func GetStakeKey(principal string) []byte {
	return append(cloneKey(StakeKeyPrefix), []byte(principal)...)
}

// GetUnstakeRequestKey returns the store key for a principal's pending withdrawal
func GetUnstakeRequestKey(principal string) []byte {
	return append(cloneKey(UnstakeRequestPrefix), []byte(principal)...)
}

// GetDelegationsByDelegatorPrefix returns the prefix for all of a delegator's pairs
func GetDelegationsByDelegatorPrefix(delegator string) []byte {
	return append(cloneKey(DelegationPrefix), address.MustLengthPrefix([]byte(delegator))...)
}

// GetDelegationKey returns the store key for a delegator/worker pair
func GetDelegationKey(delegator string, workerID uint64) []byte {
	return append(GetDelegationsByDelegatorPrefix(delegator), uint64Key(workerID)...)
}

// GetReservationsByWorkerPrefix returns the prefix for a worker's reservations
func GetReservationsByWorkerPrefix(workerID uint64) []byte {
	return append(cloneKey(ReservationPrefix), uint64Key(workerID)...)
}

// GetReservationKey returns the store key for a worker/job reservation
func GetReservationKey(workerID uint64, jobID string) []byte {
	return append(GetReservationsByWorkerPrefix(workerID), []byte(jobID)...)
}

// GetSlashRecordKey returns the store key for a slash record
func GetSlashRecordKey(id uint64) []byte {
	return append(cloneKey(SlashRecordKeyPrefix), uint64Key(id)...)
}

// GetSlashRecordsByWorkerPrefix returns the index prefix for a worker's slash records
func GetSlashRecordsByWorkerPrefix(workerID uint64) []byte {
	return append(cloneKey(SlashRecordsByWorkerPrefix), uint64Key(workerID)...)
}

// GetSlashRecordByWorkerKey returns the index key for one slash record
func GetSlashRecordByWorkerKey(workerID, slashID uint64) []byte {
	return append(GetSlashRecordsByWorkerPrefix(workerID), uint64Key(slashID)...)
}

// GetExitRecordKey returns the store key for a removed worker's history
func GetExitRecordKey(workerID uint64) []byte {
	return append(cloneKey(ExitRecordPrefix), uint64Key(workerID)...)
}

// ReentrancyLockKey returns the store key for a named reentrancy lock
func ReentrancyLockKey(name string) []byte {
	return append(cloneKey(ReentrancyLockPrefix), []byte(name)...)
}

func uint64Key(v uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, v)
	return bz
}

func uint64FromKey(bz []byte) uint64 {
	if len(bz) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz[len(bz)-8:])
}

func cloneKey(prefix []byte) []byte {
	out := make([]byte, len(prefix), len(prefix)+64)
	copy(out, prefix)
	return out
}
