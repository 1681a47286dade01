package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// Slash confiscates a reason-dependent share of the worker owner's stake and
// appends an audit record. A major slash also forces the worker to Slashed.
// Only the first evidence reference is recorded. Slashing stays available
// while the pool is paused.
func (k Keeper) Slash(ctx context.Context, caller string, workerID uint64, reason types.SlashReason, evidence []string) (math.Int, error) {
	if err := k.requireAuthority(caller); err != nil {
		return math.Int{}, err
	}
	if !reason.IsValid() {
		return math.Int{}, types.ErrInvalidSlashReason.Wrapf("reason %d", uint8(reason))
	}

	var confiscated math.Int
	err := k.executeGuarded(ctx, "slash", func(ctx sdk.Context) error {
		price := k.CurrentPrice(ctx)
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		pct, err := params.SlashPercentages.For(reason)
		if err != nil {
			return err
		}
		w, err := k.mustGetWorker(ctx, workerID)
		if err != nil {
			return err
		}

		amount, rec, err := k.slashStake(ctx, w.Owner, pct, price)
		if err != nil {
			return err
		}

		major := params.IsMajorSlash(pct)
		record := types.SlashRecord{
			ID:         k.nextID(ctx, NextSlashIDKey),
			WorkerID:   w.ID,
			Principal:  w.Owner,
			Reason:     reason,
			Percentage: pct,
			Amount:     amount,
			Timestamp:  ctx.BlockTime(),
			Major:      major,
		}
		if len(evidence) > 0 {
			record.Evidence = evidence[0]
		}
		if err := k.setJSON(ctx, GetSlashRecordKey(record.ID), record); err != nil {
			return err
		}
		k.getStore(ctx).Set(GetSlashRecordByWorkerKey(w.ID, record.ID), []byte{1})

		w.StakeAmount = rec.Amount
		if major && w.Status.CanTransition(types.WorkerStatusSlashed) {
			if err := k.transitionStatus(ctx, &w, types.WorkerStatusSlashed); err != nil {
				return err
			}
		}
		if err := k.refreshWorkerTier(ctx, &w, params, price); err != nil {
			return err
		}

		emit(ctx, types.EventTypeWorkerSlashed,
			sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(w.ID, 10)),
			sdk.NewAttribute(types.AttributeKeySlashID, strconv.FormatUint(record.ID, 10)),
			sdk.NewAttribute(types.AttributeKeyReason, reason.String()),
			sdk.NewAttribute(types.AttributeKeyPercentage, strconv.FormatUint(uint64(pct), 10)),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
		)
		k.metrics.Slashes.WithLabelValues(reason.String()).Inc()
		k.metrics.SlashedAmount.Add(intToFloat(amount))
		k.Logger(ctx).Warn("worker slashed",
			"worker_id", w.ID,
			"reason", reason.String(),
			"amount", amount.String(),
			"major", major,
		)
		confiscated = amount
		return nil
	})
	if err != nil {
		return math.Int{}, err
	}
	return confiscated, nil
}

// GetSlashRecord returns a slash record by id
func (k Keeper) GetSlashRecord(ctx context.Context, id uint64) (types.SlashRecord, bool, error) {
	var rec types.SlashRecord
	found, err := k.getJSON(ctx, GetSlashRecordKey(id), &rec)
	if err != nil || !found {
		return types.SlashRecord{}, found, err
	}
	return rec, true, nil
}

// GetSlashRecordsByWorker returns a worker's slash history, oldest first.
func (k Keeper) GetSlashRecordsByWorker(ctx context.Context, workerID uint64) ([]types.SlashRecord, error) {
	ids := k.indexIDs(ctx, GetSlashRecordsByWorkerPrefix(workerID))
	records := make([]types.SlashRecord, 0, len(ids))
	for _, id := range ids {
		rec, found, err := k.GetSlashRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, types.ErrSlashRecordNotFound.Wrapf("indexed slash %d", id)
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetAllSlashRecords returns the whole slash log in id order.
func (k Keeper) GetAllSlashRecords(ctx context.Context) ([]types.SlashRecord, error) {
	records := []types.SlashRecord{}
	err := iterateJSON(ctx, k, SlashRecordKeyPrefix, func(rec types.SlashRecord) (bool, error) {
		records = append(records, rec)
		return false, nil
	})
	return records, err
}
