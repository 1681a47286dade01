package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// GetWorker returns a worker by id
func (k Keeper) GetWorker(ctx context.Context, id uint64) (types.Worker, bool, error) {
	var w types.Worker
	found, err := k.getJSON(ctx, GetWorkerKey(id), &w)
	if err != nil || !found {
		return types.Worker{}, found, err
	}
	return w, true, nil
}

// GetWorkerByOwner returns the worker owned by principal
func (k Keeper) GetWorkerByOwner(ctx context.Context, owner string) (types.Worker, bool, error) {
	bz := k.getStore(ctx).Get(GetWorkerByOwnerKey(owner))
	if bz == nil {
		return types.Worker{}, false, nil
	}
	return k.GetWorker(ctx, uint64FromKey(bz))
}

// SetWorker stores the worker body. Indexes are maintained by the callers
// that change status or features.
func (k Keeper) SetWorker(ctx context.Context, w types.Worker) error {
	return k.setJSON(ctx, GetWorkerKey(w.ID), w)
}

func (k Keeper) mustGetWorker(ctx context.Context, id uint64) (types.Worker, error) {
	w, found, err := k.GetWorker(ctx, id)
	if err != nil {
		return types.Worker{}, err
	}
	if !found {
		return types.Worker{}, types.ErrWorkerNotFound.Wrapf("worker %d", id)
	}
	return w, nil
}

// GetAllWorkers returns every registered worker ordered by id.
func (k Keeper) GetAllWorkers(ctx context.Context) ([]types.Worker, error) {
	workers := []types.Worker{}
	err := iterateJSON(ctx, k, WorkerKeyPrefix, func(w types.Worker) (bool, error) {
		workers = append(workers, w)
		return false, nil
	})
	return workers, err
}

// GetWorkersByStatus returns the workers in status ordered by id.
func (k Keeper) GetWorkersByStatus(ctx context.Context, status types.WorkerStatus) ([]types.Worker, error) {
	ids := k.WorkerIDsByStatus(ctx, status)
	workers := make([]types.Worker, 0, len(ids))
	for _, id := range ids {
		w, err := k.mustGetWorker(ctx, id)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, nil
}

// RegisterWorker registers a new Active worker for owner. The owner must
// already hold the minimum stake and must not own another worker.
func (k Keeper) RegisterWorker(ctx context.Context, owner string, caps types.Capabilities, location string) (types.Worker, error) {
	if err := types.ValidatePrincipal(owner); err != nil {
		return types.Worker{}, err
	}
	if owner == k.authority {
		return types.Worker{}, types.ErrUnauthorized.Wrap("the pool authority cannot own a worker")
	}
	if err := caps.Validate(); err != nil {
		return types.Worker{}, err
	}
	if len(location) > types.MaxLocationLength {
		return types.Worker{}, types.ErrInvalidCapabilities.Wrapf("location exceeds %d bytes", types.MaxLocationLength)
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return types.Worker{}, err
	}

	var result types.Worker
	err := k.executeGuarded(ctx, "register_worker", func(ctx sdk.Context) error {
		price := k.CurrentPrice(ctx)
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}

		if k.getStore(ctx).Has(GetWorkerByOwnerKey(owner)) {
			return types.ErrWorkerAlreadyExists.Wrapf("principal %s", owner)
		}

		counters, err := k.GetWorkerCounters(ctx)
		if err != nil {
			return err
		}
		if counters.Total >= params.MaxWorkers {
			return types.ErrMaxWorkersReached.Wrapf("limit is %d workers", params.MaxWorkers)
		}

		rec, err := k.stakeRecordOrNew(ctx, owner)
		if err != nil {
			return err
		}
		if rec.Amount.LT(params.MinWorkerStake) {
			return types.ErrInsufficientStake.Wrapf("stake %s is less than minimum required %s", rec.Amount, params.MinWorkerStake)
		}

		now := ctx.BlockTime()
		worker := types.Worker{
			ID:            k.nextID(ctx, NextWorkerIDKey),
			Owner:         owner,
			Capabilities:  caps,
			Status:        types.WorkerStatusActive,
			RegisteredAt:  now,
			LastHeartbeat: now,
			StakeAmount:   rec.Amount,
			Reputation:    params.InitialReputation,
			TotalEarnings: math.ZeroInt(),
			Location:      location,
		}
		worker.Tier = types.Classify(params.Tiers, usdValue(rec.Amount, price), worker.Reputation)

		if err := k.SetWorker(ctx, worker); err != nil {
			return err
		}
		k.getStore(ctx).Set(GetWorkerByOwnerKey(owner), uint64Key(worker.ID))
		k.setStatusIndex(ctx, worker.Status, worker.ID)
		k.setFeatureIndex(ctx, caps.Features, worker.ID)
		if err := k.adjustCounters(ctx, 1, 1); err != nil {
			return err
		}

		emit(ctx, types.EventTypeWorkerRegistered,
			sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(worker.ID, 10)),
			sdk.NewAttribute(types.AttributeKeyPrincipal, owner),
			sdk.NewAttribute(types.AttributeKeyNewTier, worker.Tier.String()),
		)
		k.metrics.WorkersRegistered.Inc()
		k.Logger(ctx).Info("worker registered", "worker_id", worker.ID, "owner", owner, "tier", worker.Tier.String())
		result = worker
		return nil
	})
	if err != nil {
		return types.Worker{}, err
	}
	return result, nil
}

// UpdateCapabilities replaces an Active worker's capability descriptor and
// re-indexes its feature bits.
func (k Keeper) UpdateCapabilities(ctx context.Context, caller string, workerID uint64, caps types.Capabilities) (types.Worker, error) {
	if err := caps.Validate(); err != nil {
		return types.Worker{}, err
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return types.Worker{}, err
	}

	var result types.Worker
	err := k.executeAtomic(ctx, func(ctx sdk.Context) error {
		w, err := k.ownedWorker(ctx, caller, workerID)
		if err != nil {
			return err
		}
		if w.Status != types.WorkerStatusActive {
			return types.ErrWorkerNotActive.Wrapf("worker %d is %s", workerID, w.Status)
		}

		k.deleteFeatureIndex(ctx, w.Capabilities.Features, w.ID)
		w.Capabilities = caps
		k.setFeatureIndex(ctx, caps.Features, w.ID)
		if err := k.SetWorker(ctx, w); err != nil {
			return err
		}

		emit(ctx, types.EventTypeWorkerCapabilities,
			sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(w.ID, 10)),
		)
		result = w
		return nil
	})
	if err != nil {
		return types.Worker{}, err
	}
	return result, nil
}

// DeactivateWorker moves an Active worker to Inactive. Callable by the owner
// or the authority.
func (k Keeper) DeactivateWorker(ctx context.Context, caller string, workerID uint64) error {
	if err := k.CheckNotPaused(ctx); err != nil {
		return err
	}

	return k.executeAtomic(ctx, func(ctx sdk.Context) error {
		w, err := k.mustGetWorker(ctx, workerID)
		if err != nil {
			return err
		}
		if caller != w.Owner && caller != k.authority {
			return types.ErrNotOwner.Wrapf("worker %d", workerID)
		}
		if w.Status != types.WorkerStatusActive {
			return types.ErrWorkerNotActive.Wrapf("worker %d is %s", workerID, w.Status)
		}
		return k.transitionStatus(ctx, &w, types.WorkerStatusInactive)
	})
}

// ReactivateWorker moves an Inactive worker back to Active, provided its
// owner still holds the minimum stake. The heartbeat clock restarts.
func (k Keeper) ReactivateWorker(ctx context.Context, caller string, workerID uint64) error {
	if err := k.CheckNotPaused(ctx); err != nil {
		return err
	}

	return k.executeAtomic(ctx, func(ctx sdk.Context) error {
		w, err := k.ownedWorker(ctx, caller, workerID)
		if err != nil {
			return err
		}
		if w.Status != types.WorkerStatusInactive {
			return types.ErrInvalidTransition.Wrapf("worker %d is %s", workerID, w.Status)
		}

		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		rec, err := k.stakeRecordOrNew(ctx, w.Owner)
		if err != nil {
			return err
		}
		if rec.Amount.LT(params.MinWorkerStake) {
			return types.ErrInsufficientStake.Wrapf("stake %s is less than minimum required %s", rec.Amount, params.MinWorkerStake)
		}

		w.StakeAmount = rec.Amount
		w.LastHeartbeat = ctx.BlockTime()
		return k.transitionStatus(ctx, &w, types.WorkerStatusActive)
	})
}

// SubmitHeartbeat records liveness and the latest performance snapshot.
func (k Keeper) SubmitHeartbeat(ctx context.Context, caller string, workerID uint64, perf types.PerformanceMetrics) error {
	if err := perf.Validate(); err != nil {
		return types.ErrInvalidCapabilities.Wrap(err.Error())
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return err
	}

	return k.executeAtomic(ctx, func(ctx sdk.Context) error {
		w, err := k.ownedWorker(ctx, caller, workerID)
		if err != nil {
			return err
		}
		if w.Status != types.WorkerStatusActive {
			return types.ErrWorkerNotActive.Wrapf("worker %d is %s", workerID, w.Status)
		}

		w.LastHeartbeat = ctx.BlockTime()
		w.Performance = perf
		if err := k.SetWorker(ctx, w); err != nil {
			return err
		}

		emit(ctx, types.EventTypeWorkerHeartbeat,
			sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(w.ID, 10)),
		)
		return nil
	})
}

// BanWorker is the administrative emergency removal from service.
func (k Keeper) BanWorker(ctx context.Context, caller string, workerID uint64, reason string) error {
	if err := k.requireAuthority(caller); err != nil {
		return err
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return err
	}

	return k.executeAtomic(ctx, func(ctx sdk.Context) error {
		w, err := k.mustGetWorker(ctx, workerID)
		if err != nil {
			return err
		}
		if w.Status != types.WorkerStatusActive && w.Status != types.WorkerStatusInactive {
			return types.ErrInvalidTransition.Wrapf("cannot ban worker %d in status %s", workerID, w.Status)
		}
		if err := k.transitionStatus(ctx, &w, types.WorkerStatusBanned); err != nil {
			return err
		}
		k.Logger(ctx).Warn("worker banned", "worker_id", workerID, "reason", reason)
		return nil
	})
}

// ReinstateWorker administratively returns a Slashed or Banned worker to Inactive.
func (k Keeper) ReinstateWorker(ctx context.Context, caller string, workerID uint64) error {
	if err := k.requireAuthority(caller); err != nil {
		return err
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return err
	}

	return k.executeAtomic(ctx, func(ctx sdk.Context) error {
		w, err := k.mustGetWorker(ctx, workerID)
		if err != nil {
			return err
		}
		if w.Status != types.WorkerStatusSlashed && w.Status != types.WorkerStatusBanned {
			return types.ErrInvalidTransition.Wrapf("worker %d is %s", workerID, w.Status)
		}
		return k.transitionStatus(ctx, &w, types.WorkerStatusInactive)
	})
}

// RemoveWorker administratively deregisters a worker. Stake is untouched.
func (k Keeper) RemoveWorker(ctx context.Context, caller string, workerID uint64) error {
	if err := k.requireAuthority(caller); err != nil {
		return err
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return err
	}

	return k.executeAtomic(ctx, func(ctx sdk.Context) error {
		w, err := k.mustGetWorker(ctx, workerID)
		if err != nil {
			return err
		}
		return k.removeWorker(ctx, w)
	})
}

// GetExitRecord returns the history of a removed worker.
func (k Keeper) GetExitRecord(ctx context.Context, workerID uint64) (types.WorkerExitRecord, bool, error) {
	var rec types.WorkerExitRecord
	found, err := k.getJSON(ctx, GetExitRecordKey(workerID), &rec)
	if err != nil || !found {
		return types.WorkerExitRecord{}, found, err
	}
	return rec, true, nil
}

// GetAllExitRecords returns the history of every removed worker.
func (k Keeper) GetAllExitRecords(ctx context.Context) ([]types.WorkerExitRecord, error) {
	records := []types.WorkerExitRecord{}
	err := iterateJSON(ctx, k, ExitRecordPrefix, func(rec types.WorkerExitRecord) (bool, error) {
		records = append(records, rec)
		return false, nil
	})
	return records, err
}

func (k Keeper) ownedWorker(ctx context.Context, caller string, workerID uint64) (types.Worker, error) {
	w, err := k.mustGetWorker(ctx, workerID)
	if err != nil {
		return types.Worker{}, err
	}
	if w.Owner != caller {
		return types.Worker{}, types.ErrNotOwner.Wrapf("worker %d", workerID)
	}
	return w, nil
}

// transitionStatus moves w to next, keeping the status index and the active
// counter in step with the stored worker.
func (k Keeper) transitionStatus(ctx context.Context, w *types.Worker, next types.WorkerStatus) error {
	old := w.Status
	if !old.CanTransition(next) {
		return types.ErrInvalidTransition.Wrapf("worker %d: %s -> %s", w.ID, old, next)
	}

	activeDelta := 0
	if old == types.WorkerStatusActive {
		activeDelta--
	}
	if next == types.WorkerStatusActive {
		activeDelta++
	}

	k.deleteStatusIndex(ctx, old, w.ID)
	w.Status = next
	k.setStatusIndex(ctx, next, w.ID)
	if err := k.SetWorker(ctx, *w); err != nil {
		return err
	}
	if err := k.adjustCounters(ctx, 0, activeDelta); err != nil {
		return err
	}

	emit(ctx, types.EventTypeWorkerStatusChanged,
		sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(w.ID, 10)),
		sdk.NewAttribute(types.AttributeKeyOldStatus, old.String()),
		sdk.NewAttribute(types.AttributeKeyNewStatus, next.String()),
	)
	k.metrics.StatusTransitions.WithLabelValues(old.String(), next.String()).Inc()
	k.Logger(ctx).Info("worker status changed", "worker_id", w.ID, "from", old.String(), "to", next.String())
	return nil
}

// removeWorker deregisters w: clears the owner mapping and every index,
// drops its reservations, unwinds delegations to it, decrements the counters
// and writes an exit record with its historical counters.
func (k Keeper) removeWorker(ctx context.Context, w types.Worker) error {
	store := k.getStore(ctx)

	store.Delete(GetWorkerKey(w.ID))
	store.Delete(GetWorkerByOwnerKey(w.Owner))
	k.deleteStatusIndex(ctx, w.Status, w.ID)
	k.deleteFeatureIndex(ctx, w.Capabilities.Features, w.ID)
	k.deleteReservationsForWorker(ctx, w.ID)
	if err := k.unwindDelegationsTo(ctx, w); err != nil {
		return err
	}

	activeDelta := 0
	if w.Status == types.WorkerStatusActive {
		activeDelta = -1
	}
	if err := k.adjustCounters(ctx, -1, activeDelta); err != nil {
		return err
	}

	now := k.now(ctx)
	exit := types.WorkerExitRecord{
		WorkerID:      w.ID,
		Owner:         w.Owner,
		FinalStatus:   w.Status,
		RegisteredAt:  w.RegisteredAt,
		ExitedAt:      now,
		Reputation:    w.Reputation,
		JobsCompleted: w.JobsCompleted,
		JobsFailed:    w.JobsFailed,
		TotalEarnings: w.TotalEarnings,
	}
	if err := k.setJSON(ctx, GetExitRecordKey(w.ID), exit); err != nil {
		return err
	}

	emit(ctx, types.EventTypeWorkerRemoved,
		sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(w.ID, 10)),
		sdk.NewAttribute(types.AttributeKeyPrincipal, w.Owner),
		sdk.NewAttribute(types.AttributeKeyOldStatus, w.Status.String()),
	)
	k.metrics.WorkersRemoved.Inc()
	k.Logger(ctx).Info("worker removed", "worker_id", w.ID, "owner", w.Owner)
	return nil
}
