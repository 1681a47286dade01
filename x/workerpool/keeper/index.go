package keeper

import (
	"context"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// Status and feature indexes are multi-valued: each (bucket, worker id)
// pair is its own key, so any number of workers can share a bucket.

func (k Keeper) setStatusIndex(ctx context.Context, status types.WorkerStatus, id uint64) {
	k.getStore(ctx).Set(GetWorkerByStatusKey(status, id), []byte{1})
}

func (k Keeper) deleteStatusIndex(ctx context.Context, status types.WorkerStatus, id uint64) {
	k.getStore(ctx).Delete(GetWorkerByStatusKey(status, id))
}

func (k Keeper) setFeatureIndex(ctx context.Context, features uint64, id uint64) {
	store := k.getStore(ctx)
	for _, bit := range types.FeatureBits(features) {
		store.Set(GetWorkerByFeatureKey(bit, id), []byte{1})
	}
}

func (k Keeper) deleteFeatureIndex(ctx context.Context, features uint64, id uint64) {
	store := k.getStore(ctx)
	for _, bit := range types.FeatureBits(features) {
		store.Delete(GetWorkerByFeatureKey(bit, id))
	}
}

// WorkerIDsByStatus returns ids of workers in status, ascending.
func (k Keeper) WorkerIDsByStatus(ctx context.Context, status types.WorkerStatus) []uint64 {
	return k.indexIDs(ctx, GetWorkersByStatusPrefix(status))
}

// WorkerIDsByFeature returns ids of workers advertising feature bit, ascending.
func (k Keeper) WorkerIDsByFeature(ctx context.Context, bit uint8) []uint64 {
	return k.indexIDs(ctx, GetWorkersByFeaturePrefix(bit))
}

// GetWorkerCounters returns the stored aggregate counts.
func (k Keeper) GetWorkerCounters(ctx context.Context) (types.WorkerCounters, error) {
	var counters types.WorkerCounters
	_, err := k.getJSON(ctx, WorkerCountersKey, &counters)
	return counters, err
}

func (k Keeper) setWorkerCounters(ctx context.Context, counters types.WorkerCounters) error {
	return k.setJSON(ctx, WorkerCountersKey, counters)
}

// SyncWorkerGauges publishes the worker counters in ctx to the registry
// gauges. Call it with a context over committed state only; gauges set from
// a cache that is later discarded would report workers that do not exist.
func (k Keeper) SyncWorkerGauges(ctx context.Context) error {
	counters, err := k.GetWorkerCounters(ctx)
	if err != nil {
		return err
	}
	k.metrics.ActiveWorkers.Set(float64(counters.Active))
	k.metrics.TotalWorkers.Set(float64(counters.Total))
	return nil
}

// adjustCounters applies deltas to the stored counters, refusing to underflow.
func (k Keeper) adjustCounters(ctx context.Context, totalDelta, activeDelta int) error {
	counters, err := k.GetWorkerCounters(ctx)
	if err != nil {
		return err
	}

	total, ok := applyDelta(counters.Total, totalDelta)
	if !ok {
		return types.ErrInvariantViolation.Wrap("total worker counter underflow")
	}
	active, ok := applyDelta(counters.Active, activeDelta)
	if !ok {
		return types.ErrInvariantViolation.Wrap("active worker counter underflow")
	}

	return k.setWorkerCounters(ctx, types.WorkerCounters{Total: total, Active: active})
}

func applyDelta(v uint64, delta int) (uint64, bool) {
	if delta < 0 {
		d := uint64(-delta)
		if d > v {
			return 0, false
		}
		return v - d, true
	}
	return v + uint64(delta), true
}
