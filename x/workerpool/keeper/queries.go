package keeper

import (
	"context"

	"cosmossdk.io/math"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// PoolStats aggregates the registry and ledger into one snapshot.
func (k Keeper) PoolStats(ctx context.Context) (types.PoolStats, error) {
	counters, err := k.GetWorkerCounters(ctx)
	if err != nil {
		return types.PoolStats{}, err
	}
	totals, err := k.GetPoolTotals(ctx)
	if err != nil {
		return types.PoolStats{}, err
	}
	free, err := k.FreePoolBalance(ctx)
	if err != nil {
		return types.PoolStats{}, err
	}
	workers, err := k.GetAllWorkers(ctx)
	if err != nil {
		return types.PoolStats{}, err
	}

	stats := types.PoolStats{
		TotalWorkers:    counters.Total,
		ActiveWorkers:   counters.Active,
		WorkersByStatus: make(map[string]uint64),
		WorkersByTier:   make(map[string]uint64),
		TotalStaked:     totals.ExpectedStake(),
		Totals:          totals,
		PoolBalance:     k.tokens.BalanceOf(ctx, types.PoolAccount),
		FreeBalance:     free,
		Price:           k.CurrentPrice(ctx),
		Paused:          k.IsPaused(ctx),
	}
	for _, w := range workers {
		stats.WorkersByStatus[w.Status.String()]++
		stats.WorkersByTier[w.Tier.String()]++
	}
	return stats, nil
}

// WorkerInfo returns a worker together with its owner's stake, pending
// withdrawal and slash history size.
func (k Keeper) WorkerInfo(ctx context.Context, workerID uint64) (types.WorkerInfo, error) {
	w, err := k.mustGetWorker(ctx, workerID)
	if err != nil {
		return types.WorkerInfo{}, err
	}
	return k.workerInfo(ctx, w)
}

// WorkerInfoByOwner is WorkerInfo keyed by the owning principal.
func (k Keeper) WorkerInfoByOwner(ctx context.Context, owner string) (types.WorkerInfo, error) {
	w, found, err := k.GetWorkerByOwner(ctx, owner)
	if err != nil {
		return types.WorkerInfo{}, err
	}
	if !found {
		return types.WorkerInfo{}, types.ErrWorkerNotFound.Wrapf("owner %s", owner)
	}
	return k.workerInfo(ctx, w)
}

func (k Keeper) workerInfo(ctx context.Context, w types.Worker) (types.WorkerInfo, error) {
	rec, err := k.stakeRecordOrNew(ctx, w.Owner)
	if err != nil {
		return types.WorkerInfo{}, err
	}
	tier, err := k.ClassifyWorker(ctx, w)
	if err != nil {
		return types.WorkerInfo{}, err
	}
	slashes, err := k.GetSlashRecordsByWorker(ctx, w.ID)
	if err != nil {
		return types.WorkerInfo{}, err
	}

	info := types.WorkerInfo{
		Worker:      w,
		CurrentTier: tier,
		Stake:       rec,
		SlashCount:  len(slashes),
	}
	req, found, err := k.GetUnstakeRequest(ctx, w.Owner)
	if err != nil {
		return types.WorkerInfo{}, err
	}
	if found {
		info.PendingUnstake = &req
	}
	return info, nil
}

// ListWorkers returns up to limit workers after skipping offset, optionally
// restricted to one status. A zero limit means no limit.
func (k Keeper) ListWorkers(ctx context.Context, status *types.WorkerStatus, offset, limit int) ([]types.Worker, int, error) {
	var (
		all []types.Worker
		err error
	)
	if status != nil {
		all, err = k.GetWorkersByStatus(ctx, *status)
	} else {
		all, err = k.GetAllWorkers(ctx)
	}
	if err != nil {
		return nil, 0, err
	}

	total := len(all)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []types.Worker{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

// StakeOf returns principal's staked amount, zero when no record exists.
func (k Keeper) StakeOf(ctx context.Context, principal string) (math.Int, error) {
	rec, err := k.stakeRecordOrNew(ctx, principal)
	if err != nil {
		return math.Int{}, err
	}
	return rec.Amount, nil
}
