package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// ComputePayout returns base + performanceBonus + base*bonusBps/10000.
func ComputePayout(base, performanceBonus math.Int, bonusBps uint32) math.Int {
	tierBonus := base.MulRaw(int64(bonusBps)).QuoRaw(10_000)
	return base.Add(performanceBonus).Add(tierBonus)
}

// FreePoolBalance is the part of the pool account not backing stake, which
// is what rewards can be paid from.
func (k Keeper) FreePoolBalance(ctx context.Context) (math.Int, error) {
	totals, err := k.GetPoolTotals(ctx)
	if err != nil {
		return math.Int{}, err
	}
	free := k.tokens.BalanceOf(ctx, types.PoolAccount).Sub(totals.ExpectedStake())
	if free.IsNegative() {
		return math.ZeroInt(), nil
	}
	return free, nil
}

// DistributeReward pays a worker's owner for a finished job, adding the
// tier's performance bonus on top of the base reward.
func (k Keeper) DistributeReward(ctx context.Context, caller string, workerID uint64, base, performanceBonus math.Int) (math.Int, error) {
	if base.IsNil() || base.IsNegative() || performanceBonus.IsNil() || performanceBonus.IsNegative() {
		return math.Int{}, types.ErrInvalidAmount.Wrap("reward components cannot be negative")
	}
	if base.IsZero() && performanceBonus.IsZero() {
		return math.Int{}, types.ErrInvalidAmount.Wrap("reward must be positive")
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return math.Int{}, err
	}
	if err := k.requireDispatcher(ctx, caller); err != nil {
		return math.Int{}, err
	}

	var paid math.Int
	err := k.executeGuarded(ctx, "distribute_reward", func(ctx sdk.Context) error {
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		w, err := k.mustGetWorker(ctx, workerID)
		if err != nil {
			return err
		}
		if w.Status == types.WorkerStatusBanned {
			return types.ErrWorkerNotActive.Wrapf("worker %d is banned", workerID)
		}

		tier := types.Classify(params.Tiers, usdValue(w.StakeAmount, k.CurrentPrice(ctx)), w.Reputation)
		payout := ComputePayout(base, performanceBonus, params.Tiers.Benefit(tier).PerformanceBonusBps)

		free, err := k.FreePoolBalance(ctx)
		if err != nil {
			return err
		}
		if payout.GT(free) {
			return types.ErrInsufficientFunds.Wrapf("payout %s exceeds free pool balance %s", payout, free)
		}

		if err := k.tokens.Transfer(ctx, types.PoolAccount, w.Owner, payout); err != nil {
			return transferError(err, "reward to %s", w.Owner)
		}

		w.TotalEarnings = w.TotalEarnings.Add(payout)
		if err := k.SetWorker(ctx, w); err != nil {
			return err
		}
		if err := k.updatePoolTotals(ctx, func(t *types.PoolTotals) {
			t.TotalRewarded = t.TotalRewarded.Add(payout)
		}); err != nil {
			return err
		}

		emit(ctx, types.EventTypeRewardDistributed,
			sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(w.ID, 10)),
			sdk.NewAttribute(types.AttributeKeyPrincipal, w.Owner),
			sdk.NewAttribute(types.AttributeKeyPayout, payout.String()),
			sdk.NewAttribute(types.AttributeKeyNewTier, tier.String()),
		)
		k.metrics.RewardsPaid.Add(intToFloat(payout))
		paid = payout
		return nil
	})
	if err != nil {
		return math.Int{}, err
	}
	return paid, nil
}
