package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// GetDelegation returns the amount delegator has pointed at workerID.
func (k Keeper) GetDelegation(ctx context.Context, delegator string, workerID uint64) (types.Delegation, bool, error) {
	var d types.Delegation
	found, err := k.getJSON(ctx, GetDelegationKey(delegator, workerID), &d)
	if err != nil || !found {
		return types.Delegation{}, found, err
	}
	return d, true, nil
}

// GetDelegationsByDelegator returns every delegation made by delegator.
func (k Keeper) GetDelegationsByDelegator(ctx context.Context, delegator string) ([]types.Delegation, error) {
	out := []types.Delegation{}
	err := iterateJSON(ctx, k, GetDelegationsByDelegatorPrefix(delegator), func(d types.Delegation) (bool, error) {
		out = append(out, d)
		return false, nil
	})
	return out, err
}

// GetAllDelegations returns every delegation in the store.
func (k Keeper) GetAllDelegations(ctx context.Context) ([]types.Delegation, error) {
	out := []types.Delegation{}
	err := iterateJSON(ctx, k, DelegationPrefix, func(d types.Delegation) (bool, error) {
		out = append(out, d)
		return false, nil
	})
	return out, err
}

// Delegate commits amount of delegator's free stake to a registered worker.
// The delegated amount stays in the delegator's record but can no longer be
// withdrawn; the worker owner's record tracks it as delegated-in.
func (k Keeper) Delegate(ctx context.Context, delegator string, workerID uint64, amount math.Int) (types.Delegation, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return types.Delegation{}, types.ErrInvalidAmount.Wrap("delegation must be positive")
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return types.Delegation{}, err
	}

	var result types.Delegation
	err := k.executeAtomic(ctx, func(ctx sdk.Context) error {
		w, err := k.mustGetWorker(ctx, workerID)
		if err != nil {
			return err
		}
		if w.Status == types.WorkerStatusBanned || w.Status == types.WorkerStatusExiting {
			return types.ErrDelegationNotPermitted.Wrapf("worker %d is %s", workerID, w.Status)
		}
		if w.Owner == delegator {
			return types.ErrDelegationNotPermitted.Wrap("cannot delegate to own worker")
		}

		from, found, err := k.GetStakeRecord(ctx, delegator)
		if err != nil {
			return err
		}
		if !found {
			return types.ErrStakeRecordNotFound.Wrapf("principal %s", delegator)
		}
		if from.IsLocked(ctx.BlockTime()) {
			return types.ErrStakeLocked.Wrapf("locked until %s", from.LockUntil)
		}
		if free := from.Withdrawable(); amount.GT(free) {
			return types.ErrInsufficientStake.Wrapf("delegating %s, free %s", amount, free)
		}

		from.DelegatedOut = from.DelegatedOut.Add(amount)
		if err := k.SetStakeRecord(ctx, from); err != nil {
			return err
		}

		to, err := k.stakeRecordOrNew(ctx, w.Owner)
		if err != nil {
			return err
		}
		to.DelegatedIn = to.DelegatedIn.Add(amount)
		if err := k.SetStakeRecord(ctx, to); err != nil {
			return err
		}

		d, found, err := k.GetDelegation(ctx, delegator, workerID)
		if err != nil {
			return err
		}
		if !found {
			d = types.Delegation{Delegator: delegator, WorkerID: workerID, Amount: math.ZeroInt()}
		}
		d.Amount = d.Amount.Add(amount)
		if err := k.setJSON(ctx, GetDelegationKey(delegator, workerID), d); err != nil {
			return err
		}

		emit(ctx, types.EventTypeStakeDelegated,
			sdk.NewAttribute(types.AttributeKeyDelegator, delegator),
			sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(workerID, 10)),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
		)
		result = d
		return nil
	})
	if err != nil {
		return types.Delegation{}, err
	}
	return result, nil
}

// unwindDelegationsTo releases every delegation pointed at w back to its delegator.
func (k Keeper) unwindDelegationsTo(ctx context.Context, w types.Worker) error {
	all, err := k.GetAllDelegations(ctx)
	if err != nil {
		return err
	}

	store := k.getStore(ctx)
	for _, d := range all {
		if d.WorkerID != w.ID {
			continue
		}

		from, err := k.stakeRecordOrNew(ctx, d.Delegator)
		if err != nil {
			return err
		}
		from.DelegatedOut = math.MaxInt(from.DelegatedOut.Sub(d.Amount), math.ZeroInt())
		if err := k.SetStakeRecord(ctx, from); err != nil {
			return err
		}

		to, err := k.stakeRecordOrNew(ctx, w.Owner)
		if err != nil {
			return err
		}
		to.DelegatedIn = math.MaxInt(to.DelegatedIn.Sub(d.Amount), math.ZeroInt())
		if err := k.SetStakeRecord(ctx, to); err != nil {
			return err
		}

		store.Delete(GetDelegationKey(d.Delegator, d.WorkerID))
	}
	return nil
}
