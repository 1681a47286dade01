package keeper

import (
	"context"
	"strconv"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// GetStakeRecord returns the stake record for principal.
func (k Keeper) GetStakeRecord(ctx context.Context, principal string) (types.StakeRecord, bool, error) {
	var rec types.StakeRecord
	found, err := k.getJSON(ctx, GetStakeKey(principal), &rec)
	if err != nil || !found {
		return types.StakeRecord{}, found, err
	}
	return rec, true, nil
}

// SetStakeRecord stores a stake record
func (k Keeper) SetStakeRecord(ctx context.Context, rec types.StakeRecord) error {
	return k.setJSON(ctx, GetStakeKey(rec.Principal), rec)
}

func (k Keeper) stakeRecordOrNew(ctx context.Context, principal string) (types.StakeRecord, error) {
	rec, found, err := k.GetStakeRecord(ctx, principal)
	if err != nil {
		return types.StakeRecord{}, err
	}
	if !found {
		return types.NewStakeRecord(principal), nil
	}
	return rec, nil
}

// GetAllStakeRecords returns every stake record ordered by principal.
func (k Keeper) GetAllStakeRecords(ctx context.Context) ([]types.StakeRecord, error) {
	records := []types.StakeRecord{}
	err := iterateJSON(ctx, k, StakeKeyPrefix, func(rec types.StakeRecord) (bool, error) {
		records = append(records, rec)
		return false, nil
	})
	return records, err
}

// GetPoolTotals returns cumulative stake flows.
func (k Keeper) GetPoolTotals(ctx context.Context) (types.PoolTotals, error) {
	var totals types.PoolTotals
	found, err := k.getJSON(ctx, PoolTotalsKey, &totals)
	if err != nil {
		return types.PoolTotals{}, err
	}
	if !found {
		return types.NewPoolTotals(), nil
	}
	return totals, nil
}

// SetPoolTotals stores cumulative stake flows.
func (k Keeper) SetPoolTotals(ctx context.Context, totals types.PoolTotals) error {
	return k.setJSON(ctx, PoolTotalsKey, totals)
}

func (k Keeper) updatePoolTotals(ctx context.Context, fn func(*types.PoolTotals)) error {
	totals, err := k.GetPoolTotals(ctx)
	if err != nil {
		return err
	}
	fn(&totals)
	return k.SetPoolTotals(ctx, totals)
}

// GetUnstakeRequest returns the pending withdrawal for principal.
func (k Keeper) GetUnstakeRequest(ctx context.Context, principal string) (types.UnstakeRequest, bool, error) {
	var req types.UnstakeRequest
	found, err := k.getJSON(ctx, GetUnstakeRequestKey(principal), &req)
	if err != nil || !found {
		return types.UnstakeRequest{}, found, err
	}
	return req, true, nil
}

// GetAllUnstakeRequests returns every pending withdrawal.
func (k Keeper) GetAllUnstakeRequests(ctx context.Context) ([]types.UnstakeRequest, error) {
	requests := []types.UnstakeRequest{}
	err := iterateJSON(ctx, k, UnstakeRequestPrefix, func(req types.UnstakeRequest) (bool, error) {
		requests = append(requests, req)
		return false, nil
	})
	return requests, err
}

// Deposit pulls amount from principal into the pool and credits their stake.
// A positive lockPeriod extends the lock to at least now+lockPeriod.
func (k Keeper) Deposit(ctx context.Context, principal string, amount math.Int, lockPeriod time.Duration) (types.StakeRecord, error) {
	if err := types.ValidatePrincipal(principal); err != nil {
		return types.StakeRecord{}, err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return types.StakeRecord{}, types.ErrInvalidAmount.Wrap("deposit must be positive")
	}
	if lockPeriod < 0 {
		return types.StakeRecord{}, types.ErrInvalidAmount.Wrap("lock period cannot be negative")
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return types.StakeRecord{}, err
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return types.StakeRecord{}, err
	}
	if lockPeriod > params.MaxLockPeriod {
		return types.StakeRecord{}, types.ErrInvalidAmount.Wrapf("lock period %s exceeds maximum %s", lockPeriod, params.MaxLockPeriod)
	}

	var result types.StakeRecord
	err = k.executeGuarded(ctx, "deposit", func(ctx sdk.Context) error {
		if err := k.tokens.TransferFrom(ctx, principal, types.PoolAccount, amount); err != nil {
			return transferError(err, "transfer_from %s", principal)
		}

		now := ctx.BlockTime()
		rec, err := k.stakeRecordOrNew(ctx, principal)
		if err != nil {
			return err
		}

		price := k.CurrentPrice(ctx)
		rec.Amount = rec.Amount.Add(amount)
		rec.USDValue = usdValue(rec.Amount, price)
		rec.LastAdjusted = now
		if lockPeriod > 0 {
			if lockUntil := now.Add(lockPeriod); lockUntil.After(rec.LockUntil) {
				rec.LockUntil = lockUntil
			}
		}
		if err := k.SetStakeRecord(ctx, rec); err != nil {
			return err
		}

		if err := k.updatePoolTotals(ctx, func(t *types.PoolTotals) {
			t.TotalDeposited = t.TotalDeposited.Add(amount)
		}); err != nil {
			return err
		}

		if err := k.syncOwnerWorker(ctx, principal, params, price); err != nil {
			return err
		}

		emit(ctx, types.EventTypeStakeDeposited,
			sdk.NewAttribute(types.AttributeKeyPrincipal, principal),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyUSDValue, rec.USDValue.String()),
			sdk.NewAttribute(types.AttributeKeyLockUntil, rec.LockUntil.String()),
		)
		k.metrics.StakeDeposited.Add(intToFloat(amount))
		result = rec
		return nil
	})
	if err != nil {
		return types.StakeRecord{}, err
	}
	return result, nil
}

// RequestWithdrawal records a pending withdrawal that can be finalized after
// the unstake delay. Any earlier request is overwritten. Withdrawing the full
// balance is a complete exit and moves the principal's worker to Exiting.
func (k Keeper) RequestWithdrawal(ctx context.Context, principal string, amount math.Int) (types.UnstakeRequest, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return types.UnstakeRequest{}, types.ErrInvalidAmount.Wrap("withdrawal must be positive")
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return types.UnstakeRequest{}, err
	}

	var result types.UnstakeRequest
	err := k.executeAtomic(ctx, func(ctx sdk.Context) error {
		now := ctx.BlockTime()
		rec, found, err := k.GetStakeRecord(ctx, principal)
		if err != nil {
			return err
		}
		if !found {
			return types.ErrStakeRecordNotFound.Wrapf("principal %s", principal)
		}
		if rec.IsLocked(now) {
			return types.ErrStakeLocked.Wrapf("locked until %s", rec.LockUntil.UTC().Format(time.RFC3339))
		}
		if withdrawable := rec.Withdrawable(); amount.GT(withdrawable) {
			return types.ErrInsufficientStake.Wrapf("requested %s, withdrawable %s", amount, withdrawable)
		}

		req := types.UnstakeRequest{
			Principal:      principal,
			Amount:         amount,
			RequestedAt:    now,
			UnlockTime:     now.Add(types.UnstakeDelay),
			IsCompleteExit: amount.Equal(rec.Amount),
		}
		if err := k.setJSON(ctx, GetUnstakeRequestKey(principal), req); err != nil {
			return err
		}

		worker, found, err := k.GetWorkerByOwner(ctx, principal)
		if err != nil {
			return err
		}
		if found {
			switch {
			case req.IsCompleteExit && worker.Status != types.WorkerStatusBanned && worker.Status != types.WorkerStatusExiting:
				if err := k.transitionStatus(ctx, &worker, types.WorkerStatusExiting); err != nil {
					return err
				}
			case !req.IsCompleteExit && worker.Status == types.WorkerStatusExiting:
				if err := k.transitionStatus(ctx, &worker, types.WorkerStatusInactive); err != nil {
					return err
				}
			}
		}

		emit(ctx, types.EventTypeUnstakeRequested,
			sdk.NewAttribute(types.AttributeKeyPrincipal, principal),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyUnlockTime, req.UnlockTime.String()),
			sdk.NewAttribute(types.AttributeKeyCompleteExit, strconv.FormatBool(req.IsCompleteExit)),
		)
		result = req
		return nil
	})
	if err != nil {
		return types.UnstakeRequest{}, err
	}
	return result, nil
}

// FinalizeWithdrawal pays out a matured withdrawal request and clears it.
// A complete exit also deregisters the principal's worker.
func (k Keeper) FinalizeWithdrawal(ctx context.Context, principal string) (math.Int, error) {
	if err := k.CheckNotPaused(ctx); err != nil {
		return math.Int{}, err
	}

	var withdrawn math.Int
	err := k.executeGuarded(ctx, "finalize_withdrawal", func(ctx sdk.Context) error {
		now := ctx.BlockTime()
		req, found, err := k.GetUnstakeRequest(ctx, principal)
		if err != nil {
			return err
		}
		if !found {
			return types.ErrNoPendingUnstake.Wrapf("principal %s", principal)
		}
		if !req.IsReady(now) {
			return types.ErrUnstakeNotReady.Wrapf("unlocks at %s", req.UnlockTime.UTC().Format(time.RFC3339))
		}

		rec, found, err := k.GetStakeRecord(ctx, principal)
		if err != nil {
			return err
		}
		if !found {
			return types.ErrStakeRecordNotFound.Wrapf("principal %s", principal)
		}

		amount := math.MinInt(req.Amount, rec.Withdrawable())
		price := k.CurrentPrice(ctx)
		rec.Amount = rec.Amount.Sub(amount)
		rec.USDValue = usdValue(rec.Amount, price)
		rec.LastAdjusted = now
		if err := k.SetStakeRecord(ctx, rec); err != nil {
			return err
		}
		k.getStore(ctx).Delete(GetUnstakeRequestKey(principal))

		if err := k.updatePoolTotals(ctx, func(t *types.PoolTotals) {
			t.TotalWithdrawn = t.TotalWithdrawn.Add(amount)
		}); err != nil {
			return err
		}

		if amount.IsPositive() {
			if err := k.tokens.Transfer(ctx, types.PoolAccount, principal, amount); err != nil {
				return transferError(err, "transfer to %s", principal)
			}
		}

		worker, found, err := k.GetWorkerByOwner(ctx, principal)
		if err != nil {
			return err
		}
		if found {
			if req.IsCompleteExit && worker.Status != types.WorkerStatusBanned {
				if err := k.removeWorker(ctx, worker); err != nil {
					return err
				}
			} else {
				params, err := k.GetParams(ctx)
				if err != nil {
					return err
				}
				if err := k.refreshWorkerTier(ctx, &worker, params, price); err != nil {
					return err
				}
			}
		}

		emit(ctx, types.EventTypeUnstakeCompleted,
			sdk.NewAttribute(types.AttributeKeyPrincipal, principal),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyCompleteExit, strconv.FormatBool(req.IsCompleteExit)),
		)
		k.metrics.StakeWithdrawn.Add(intToFloat(amount))
		withdrawn = amount
		return nil
	})
	if err != nil {
		return math.Int{}, err
	}
	return withdrawn, nil
}

// slashStake confiscates pct percent of principal's stake, clamping at the
// balance, and revalues the remainder at price. The confiscated tokens stay
// in the pool account.
func (k Keeper) slashStake(ctx context.Context, principal string, pct uint32, price math.LegacyDec) (math.Int, types.StakeRecord, error) {
	rec, err := k.stakeRecordOrNew(ctx, principal)
	if err != nil {
		return math.Int{}, types.StakeRecord{}, err
	}

	amount := types.ComputeSlashAmount(rec.Amount, pct)
	rec.Amount = rec.Amount.Sub(amount)
	if rec.Amount.IsNegative() {
		return math.Int{}, types.StakeRecord{}, types.ErrInvariantViolation.Wrapf("slash would leave negative stake for %s", principal)
	}
	rec.USDValue = usdValue(rec.Amount, price)
	rec.LastAdjusted = k.now(ctx)
	if err := k.SetStakeRecord(ctx, rec); err != nil {
		return math.Int{}, types.StakeRecord{}, err
	}

	if err := k.updatePoolTotals(ctx, func(t *types.PoolTotals) {
		t.TotalSlashed = t.TotalSlashed.Add(amount)
	}); err != nil {
		return math.Int{}, types.StakeRecord{}, err
	}

	return amount, rec, nil
}

// syncOwnerWorker refreshes the cached stake and tier of principal's worker, if any.
func (k Keeper) syncOwnerWorker(ctx context.Context, principal string, params types.Params, price math.LegacyDec) error {
	worker, found, err := k.GetWorkerByOwner(ctx, principal)
	if err != nil || !found {
		return err
	}
	return k.refreshWorkerTier(ctx, &worker, params, price)
}
