package keeper

import (
	"context"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// SmoothReputation folds one job outcome into a reputation score.
//
// The performance and quality scores (0-100) are averaged, projected onto the
// 0..maxRep scale and blended 90/10 with the previous value, so a single job
// moves the score by at most a tenth of the gap.
func SmoothReputation(old, performance, quality, maxRep uint32) uint32 {
	combined := (uint64(performance) + uint64(quality)) / 2
	projected := combined * uint64(maxRep) / 100
	next := (uint64(old)*types.ReputationSmoothingOld + projected*types.ReputationSmoothingNew) / 100
	if next > uint64(maxRep) {
		return maxRep
	}
	return uint32(next)
}

// UpdateReputation records a job outcome for workerID. Called by the job
// contract. The job counts as completed when the combined score reaches the
// success threshold and as failed otherwise.
func (k Keeper) UpdateReputation(ctx context.Context, caller string, workerID uint64, performance, quality uint32) (uint32, error) {
	if performance > 100 || quality > 100 {
		return 0, types.ErrInvalidScore.Wrapf("performance=%d quality=%d", performance, quality)
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return 0, err
	}
	if err := k.requireDispatcher(ctx, caller); err != nil {
		return 0, err
	}

	var updated uint32
	err := k.executeGuarded(ctx, "update_reputation", func(ctx sdk.Context) error {
		price := k.CurrentPrice(ctx)
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		w, err := k.mustGetWorker(ctx, workerID)
		if err != nil {
			return err
		}

		old := w.Reputation
		w.Reputation = SmoothReputation(old, performance, quality, params.MaxReputation)
		if (performance+quality)/2 >= params.JobSuccessThreshold {
			w.JobsCompleted++
		} else {
			w.JobsFailed++
		}

		if err := k.refreshWorkerTier(ctx, &w, params, price); err != nil {
			return err
		}

		emit(ctx, types.EventTypeReputationUpdated,
			sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(w.ID, 10)),
			sdk.NewAttribute(types.AttributeKeyReputation, strconv.FormatUint(uint64(w.Reputation), 10)),
			sdk.NewAttribute(types.AttributeKeyScore, strconv.FormatUint(uint64((performance+quality)/2), 10)),
		)
		k.metrics.ReputationScores.Observe(float64(w.Reputation))
		updated = w.Reputation
		return nil
	})
	return updated, err
}

// SetReputation is the administrative override of a worker's reputation.
func (k Keeper) SetReputation(ctx context.Context, caller string, workerID uint64, reputation uint32) error {
	if err := k.requireAuthority(caller); err != nil {
		return err
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return err
	}

	return k.executeGuarded(ctx, "set_reputation", func(ctx sdk.Context) error {
		price := k.CurrentPrice(ctx)
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		if reputation > params.MaxReputation {
			return types.ErrInvalidScore.Wrapf("reputation %d exceeds max %d", reputation, params.MaxReputation)
		}
		w, err := k.mustGetWorker(ctx, workerID)
		if err != nil {
			return err
		}

		w.Reputation = reputation
		if err := k.refreshWorkerTier(ctx, &w, params, price); err != nil {
			return err
		}

		emit(ctx, types.EventTypeReputationUpdated,
			sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(w.ID, 10)),
			sdk.NewAttribute(types.AttributeKeyReputation, strconv.FormatUint(uint64(reputation), 10)),
			sdk.NewAttribute(types.AttributeKeyAuthority, caller),
		)
		k.Logger(ctx).Info("reputation overridden", "worker_id", workerID, "reputation", reputation)
		return nil
	})
}
