package keeper

import (
	"context"
	"fmt"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// InitGenesis initializes the workerpool module's state from a genesis state.
// Indexes and counters are derived from the imported workers rather than
// trusted from the file.
func (k Keeper) InitGenesis(ctx context.Context, data types.GenesisState) error {
	if err := data.Validate(); err != nil {
		return types.ErrInvalidGenesis.Wrap(err.Error())
	}

	if err := k.SetParams(ctx, data.Params); err != nil {
		return fmt.Errorf("failed to set params: %w", err)
	}
	k.setStoredPrice(ctx, data.Price)

	for _, rec := range data.Stakes {
		if err := k.SetStakeRecord(ctx, rec); err != nil {
			return fmt.Errorf("failed to initialize stake for %s: %w", rec.Principal, err)
		}
	}
	for _, req := range data.UnstakeRequests {
		if err := k.setJSON(ctx, GetUnstakeRequestKey(req.Principal), req); err != nil {
			return fmt.Errorf("failed to initialize unstake request for %s: %w", req.Principal, err)
		}
	}

	store := k.getStore(ctx)
	for _, w := range data.Workers {
		if err := k.SetWorker(ctx, w); err != nil {
			return fmt.Errorf("failed to initialize worker %d: %w", w.ID, err)
		}
		store.Set(GetWorkerByOwnerKey(w.Owner), uint64Key(w.ID))
		k.setStatusIndex(ctx, w.Status, w.ID)
		k.setFeatureIndex(ctx, w.Capabilities.Features, w.ID)
	}
	if err := k.setWorkerCounters(ctx, countWorkers(data.Workers)); err != nil {
		return fmt.Errorf("failed to set worker counters: %w", err)
	}

	for _, d := range data.Delegations {
		if err := k.setJSON(ctx, GetDelegationKey(d.Delegator, d.WorkerID), d); err != nil {
			return fmt.Errorf("failed to initialize delegation %s->%d: %w", d.Delegator, d.WorkerID, err)
		}
	}
	for _, r := range data.Reservations {
		if err := k.setReservation(ctx, r); err != nil {
			return fmt.Errorf("failed to initialize reservation %d/%s: %w", r.WorkerID, r.JobID, err)
		}
	}
	for _, rec := range data.SlashRecords {
		if err := k.setJSON(ctx, GetSlashRecordKey(rec.ID), rec); err != nil {
			return fmt.Errorf("failed to initialize slash record %d: %w", rec.ID, err)
		}
		store.Set(GetSlashRecordByWorkerKey(rec.WorkerID, rec.ID), []byte{1})
	}
	for _, rec := range data.ExitRecords {
		if err := k.setJSON(ctx, GetExitRecordKey(rec.WorkerID), rec); err != nil {
			return fmt.Errorf("failed to initialize exit record %d: %w", rec.WorkerID, err)
		}
	}

	if err := k.SetPoolTotals(ctx, data.PoolTotals); err != nil {
		return fmt.Errorf("failed to set pool totals: %w", err)
	}
	if data.PauseState.Paused {
		if err := k.setJSON(ctx, PauseStateKey, data.PauseState); err != nil {
			return fmt.Errorf("failed to set pause state: %w", err)
		}
	}

	k.setCounter(ctx, NextWorkerIDKey, data.NextWorkerID)
	k.setCounter(ctx, NextSlashIDKey, data.NextSlashID)
	return nil
}

// ExportGenesis returns the workerpool module's exported genesis.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get params: %w", err)
	}

	workers, err := k.GetAllWorkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export workers: %w", err)
	}
	stakes, err := k.GetAllStakeRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export stakes: %w", err)
	}
	unstakes, err := k.GetAllUnstakeRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export unstake requests: %w", err)
	}
	delegations, err := k.GetAllDelegations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export delegations: %w", err)
	}
	reservations, err := k.GetAllReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export reservations: %w", err)
	}
	slashes, err := k.GetAllSlashRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export slash records: %w", err)
	}
	exits, err := k.GetAllExitRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export exit records: %w", err)
	}
	totals, err := k.GetPoolTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export pool totals: %w", err)
	}

	return &types.GenesisState{
		Params:          params,
		Price:           k.GetStoredPrice(ctx),
		Workers:         workers,
		Stakes:          stakes,
		UnstakeRequests: unstakes,
		Delegations:     delegations,
		Reservations:    reservations,
		SlashRecords:    slashes,
		ExitRecords:     exits,
		PoolTotals:      totals,
		PauseState:      k.GetPauseState(ctx),
		NextWorkerID:    k.getCounter(ctx, NextWorkerIDKey, 1),
		NextSlashID:     k.getCounter(ctx, NextSlashIDKey, 1),
	}, nil
}
