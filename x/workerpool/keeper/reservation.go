package keeper

import (
	"context"
	"strconv"
	"time"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// GetReservation returns the hold workerID has for jobID.
func (k Keeper) GetReservation(ctx context.Context, workerID uint64, jobID string) (types.Reservation, bool, error) {
	var r types.Reservation
	found, err := k.getJSON(ctx, GetReservationKey(workerID, jobID), &r)
	if err != nil || !found {
		return types.Reservation{}, found, err
	}
	return r, true, nil
}

// GetReservationsByWorker returns every stored hold on workerID, expired ones included.
func (k Keeper) GetReservationsByWorker(ctx context.Context, workerID uint64) ([]types.Reservation, error) {
	out := []types.Reservation{}
	err := iterateJSON(ctx, k, GetReservationsByWorkerPrefix(workerID), func(r types.Reservation) (bool, error) {
		out = append(out, r)
		return false, nil
	})
	return out, err
}

// GetAllReservations returns every stored reservation.
func (k Keeper) GetAllReservations(ctx context.Context) ([]types.Reservation, error) {
	out := []types.Reservation{}
	err := iterateJSON(ctx, k, ReservationPrefix, func(r types.Reservation) (bool, error) {
		out = append(out, r)
		return false, nil
	})
	return out, err
}

// heldByOther reports whether workerID has an unexpired hold for a job other than jobID.
func (k Keeper) heldByOther(ctx context.Context, workerID uint64, jobID string, now time.Time) (bool, error) {
	held := false
	err := iterateJSON(ctx, k, GetReservationsByWorkerPrefix(workerID), func(r types.Reservation) (bool, error) {
		if r.JobID != jobID && !r.IsExpired(now) {
			held = true
			return true, nil
		}
		return false, nil
	})
	return held, err
}

func (k Keeper) setReservation(ctx context.Context, r types.Reservation) error {
	return k.setJSON(ctx, GetReservationKey(r.WorkerID, r.JobID), r)
}

// ReserveWorker places an advisory hold on an Active worker for jobID,
// keeping the Allocation Engine from selecting it for other jobs until it
// expires. Reserving again for the same job extends the hold.
func (k Keeper) ReserveWorker(ctx context.Context, caller string, workerID uint64, jobID string, duration time.Duration) (types.Reservation, error) {
	if err := types.ValidateJobID(jobID); err != nil {
		return types.Reservation{}, err
	}
	if duration <= 0 {
		return types.Reservation{}, types.ErrInvalidRequirements.Wrap("reservation duration must be positive")
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return types.Reservation{}, err
	}
	if err := k.requireDispatcher(ctx, caller); err != nil {
		return types.Reservation{}, err
	}

	var result types.Reservation
	err := k.executeGuarded(ctx, "reserve_worker", func(ctx sdk.Context) error {
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		if duration > params.MaxReservationDuration {
			return types.ErrReservationTooLong.Wrapf("%s exceeds %s", duration, params.MaxReservationDuration)
		}

		w, err := k.mustGetWorker(ctx, workerID)
		if err != nil {
			return err
		}
		if w.Status != types.WorkerStatusActive {
			return types.ErrWorkerNotActive.Wrapf("worker %d is %s", workerID, w.Status)
		}

		now := ctx.BlockTime()
		held, err := k.heldByOther(ctx, workerID, jobID, now)
		if err != nil {
			return err
		}
		if held {
			return types.ErrWorkerReserved.Wrapf("worker %d", workerID)
		}

		r := types.Reservation{
			WorkerID:  workerID,
			JobID:     jobID,
			CreatedAt: now,
			ExpiresAt: now.Add(duration),
		}
		if err := k.setReservation(ctx, r); err != nil {
			return err
		}

		emit(ctx, types.EventTypeWorkerReserved,
			sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(workerID, 10)),
			sdk.NewAttribute(types.AttributeKeyJobID, jobID),
			sdk.NewAttribute(types.AttributeKeyExpiresAt, r.ExpiresAt.String()),
		)
		result = r
		return nil
	})
	if err != nil {
		return types.Reservation{}, err
	}
	return result, nil
}

// ReleaseWorker clears the hold workerID has for jobID.
func (k Keeper) ReleaseWorker(ctx context.Context, caller string, workerID uint64, jobID string) error {
	if err := k.CheckNotPaused(ctx); err != nil {
		return err
	}
	if err := k.requireDispatcher(ctx, caller); err != nil {
		return err
	}

	return k.executeAtomic(ctx, func(ctx sdk.Context) error {
		key := GetReservationKey(workerID, jobID)
		store := k.getStore(ctx)
		if !store.Has(key) {
			return types.ErrReservationNotFound.Wrapf("worker %d job %s", workerID, jobID)
		}
		store.Delete(key)

		emit(ctx, types.EventTypeWorkerReleased,
			sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(workerID, 10)),
			sdk.NewAttribute(types.AttributeKeyJobID, jobID),
		)
		return nil
	})
}

func (k Keeper) deleteReservationsForWorker(ctx context.Context, workerID uint64) {
	store := k.getStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, GetReservationsByWorkerPrefix(workerID))
	var keys [][]byte
	for ; iterator.Valid(); iterator.Next() {
		keys = append(keys, iterator.Key())
	}
	iterator.Close()

	for _, key := range keys {
		store.Delete(key)
	}
}

// pruneExpiredReservations deletes every reservation that has lapsed at now.
func (k Keeper) pruneExpiredReservations(ctx context.Context, now time.Time) (int, error) {
	var expired []types.Reservation
	err := iterateJSON(ctx, k, ReservationPrefix, func(r types.Reservation) (bool, error) {
		if r.IsExpired(now) {
			expired = append(expired, r)
		}
		return false, nil
	})
	if err != nil {
		return 0, err
	}

	store := k.getStore(ctx)
	for _, r := range expired {
		store.Delete(GetReservationKey(r.WorkerID, r.JobID))
	}
	return len(expired), nil
}
