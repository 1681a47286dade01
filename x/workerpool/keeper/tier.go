package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// ClassifyWorker returns the tier w would hold at the current price.
func (k Keeper) ClassifyWorker(ctx context.Context, w types.Worker) (types.Tier, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return types.TierBasic, err
	}
	rec, err := k.stakeRecordOrNew(ctx, w.Owner)
	if err != nil {
		return types.TierBasic, err
	}
	return types.Classify(params.Tiers, usdValue(rec.Amount, k.CurrentPrice(ctx)), w.Reputation), nil
}

// TierBenefits returns the configured benefit table.
func (k Keeper) TierBenefits(ctx context.Context) (types.TierTable, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}
	return params.Tiers, nil
}

// refreshWorkerTier re-reads the owner's stake, recomputes the tier and
// stores w. A tier change is announced with an event.
func (k Keeper) refreshWorkerTier(ctx context.Context, w *types.Worker, params types.Params, price math.LegacyDec) error {
	rec, err := k.stakeRecordOrNew(ctx, w.Owner)
	if err != nil {
		return err
	}

	old := w.Tier
	w.StakeAmount = rec.Amount
	w.Tier = types.Classify(params.Tiers, usdValue(rec.Amount, price), w.Reputation)
	if err := k.SetWorker(ctx, *w); err != nil {
		return err
	}

	if old != w.Tier {
		emit(ctx, types.EventTypeWorkerTierChanged,
			sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(w.ID, 10)),
			sdk.NewAttribute(types.AttributeKeyOldTier, old.String()),
			sdk.NewAttribute(types.AttributeKeyNewTier, w.Tier.String()),
		)
	}
	return nil
}
