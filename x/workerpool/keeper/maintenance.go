package keeper

import (
	"context"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// MaintenanceReport summarises one maintenance sweep.
type MaintenanceReport struct {
	StaleDeactivated   []uint64 `json:"stale_deactivated"`
	ReservationsPruned int      `json:"reservations_pruned"`
}

// DeactivateStaleWorkers moves every Active worker whose last heartbeat is
// older than the heartbeat timeout to Inactive. Authority only.
func (k Keeper) DeactivateStaleWorkers(ctx context.Context, caller string) ([]uint64, error) {
	if err := k.requireAuthority(caller); err != nil {
		return nil, err
	}

	var deactivated []uint64
	err := k.executeAtomic(ctx, func(ctx sdk.Context) error {
		ids, err := k.deactivateStale(ctx)
		deactivated = ids
		return err
	})
	return deactivated, err
}

func (k Keeper) deactivateStale(ctx context.Context) ([]uint64, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}
	if params.HeartbeatTimeout <= 0 {
		return nil, nil
	}

	now := k.now(ctx)
	active, err := k.GetWorkersByStatus(ctx, types.WorkerStatusActive)
	if err != nil {
		return nil, err
	}

	deactivated := []uint64{}
	for _, w := range active {
		if !w.IsStale(now, params.HeartbeatTimeout) {
			continue
		}
		if err := k.transitionStatus(ctx, &w, types.WorkerStatusInactive); err != nil {
			return nil, err
		}
		deactivated = append(deactivated, w.ID)
	}

	if len(deactivated) > 0 {
		emit(ctx, types.EventTypeStaleWorkersSwept,
			sdk.NewAttribute(types.AttributeKeyCount, strconv.Itoa(len(deactivated))),
		)
		k.Logger(ctx).Info("deactivated stale workers", "count", len(deactivated))
	}
	return deactivated, nil
}

// PruneExpiredReservations deletes every lapsed reservation.
func (k Keeper) PruneExpiredReservations(ctx context.Context) (int, error) {
	var pruned int
	err := k.executeAtomic(ctx, func(ctx sdk.Context) error {
		n, err := k.pruneExpiredReservations(ctx, ctx.BlockTime())
		if err != nil {
			return err
		}
		pruned = n
		if n > 0 {
			emit(ctx, types.EventTypeReservationsPruned, sdk.NewAttribute(types.AttributeKeyCount, strconv.Itoa(n)))
		}
		return nil
	})
	return pruned, err
}

// RunMaintenance performs the periodic sweep: stale heartbeats and expired
// reservations. Nothing here is required for correctness, since every
// time-based check is also evaluated lazily at use.
func (k Keeper) RunMaintenance(ctx context.Context, caller string) (MaintenanceReport, error) {
	if err := k.requireAuthority(caller); err != nil {
		return MaintenanceReport{}, err
	}

	var report MaintenanceReport
	err := k.executeAtomic(ctx, func(ctx sdk.Context) error {
		ids, err := k.deactivateStale(ctx)
		if err != nil {
			return err
		}
		n, err := k.pruneExpiredReservations(ctx, ctx.BlockTime())
		if err != nil {
			return err
		}
		if n > 0 {
			emit(ctx, types.EventTypeReservationsPruned, sdk.NewAttribute(types.AttributeKeyCount, strconv.Itoa(n)))
		}
		report = MaintenanceReport{StaleDeactivated: ids, ReservationsPruned: n}
		return nil
	})
	return report, err
}
