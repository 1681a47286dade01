package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// RegisterInvariants registers all workerpool module invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "stake-conservation",
		StakeConservationInvariant(k))
	ir.RegisterRoute(types.ModuleName, "pool-solvency",
		PoolSolvencyInvariant(k))
	ir.RegisterRoute(types.ModuleName, "worker-counters",
		WorkerCountersInvariant(k))
	ir.RegisterRoute(types.ModuleName, "worker-index",
		WorkerIndexInvariant(k))
	ir.RegisterRoute(types.ModuleName, "delegation-balance",
		DelegationBalanceInvariant(k))
}

// AllInvariants runs all invariants of the workerpool module
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, inv := range []sdk.Invariant{
			StakeConservationInvariant(k),
			PoolSolvencyInvariant(k),
			WorkerCountersInvariant(k),
			WorkerIndexInvariant(k),
			DelegationBalanceInvariant(k),
		} {
			if res, stop := inv(ctx); stop {
				return res, stop
			}
		}
		return "", false
	}
}

// StakeConservationInvariant checks that the sum of all stake records equals
// deposits minus withdrawals minus slashes, and that no record is negative.
func StakeConservationInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		records, err := k.GetAllStakeRecords(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "stake-conservation",
				fmt.Sprintf("error iterating stake records: %v", err)), true
		}
		totals, err := k.GetPoolTotals(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "stake-conservation",
				fmt.Sprintf("error reading pool totals: %v", err)), true
		}

		sum := math.ZeroInt()
		for _, rec := range records {
			if rec.Amount.IsNegative() {
				return sdk.FormatInvariant(types.ModuleName, "stake-conservation",
					fmt.Sprintf("principal %s has negative stake %s", rec.Principal, rec.Amount)), true
			}
			sum = sum.Add(rec.Amount)
		}

		expected := totals.ExpectedStake()
		broken := !sum.Equal(expected)
		return sdk.FormatInvariant(types.ModuleName, "stake-conservation",
			fmt.Sprintf("sum of stakes %s, deposited-withdrawn-slashed %s", sum, expected)), broken
	}
}

// PoolSolvencyInvariant checks that the pool account holds at least the
// total outstanding stake.
func PoolSolvencyInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		totals, err := k.GetPoolTotals(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "pool-solvency",
				fmt.Sprintf("error reading pool totals: %v", err)), true
		}

		balance := k.tokens.BalanceOf(ctx, types.PoolAccount)
		owed := totals.ExpectedStake()
		broken := balance.LT(owed)
		return sdk.FormatInvariant(types.ModuleName, "pool-solvency",
			fmt.Sprintf("pool balance %s, outstanding stake %s", balance, owed)), broken
	}
}

// WorkerCountersInvariant recomputes the registered and active counts and
// compares them with the stored counters.
func WorkerCountersInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		workers, err := k.GetAllWorkers(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "worker-counters",
				fmt.Sprintf("error iterating workers: %v", err)), true
		}
		stored, err := k.GetWorkerCounters(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "worker-counters",
				fmt.Sprintf("error reading counters: %v", err)), true
		}

		actual := countWorkers(workers)
		broken := actual != stored
		return sdk.FormatInvariant(types.ModuleName, "worker-counters",
			fmt.Sprintf("stored total=%d active=%d, actual total=%d active=%d",
				stored.Total, stored.Active, actual.Total, actual.Active)), broken
	}
}

// WorkerIndexInvariant checks that every worker is reachable through its
// owner key and is listed under exactly its own status.
func WorkerIndexInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		workers, err := k.GetAllWorkers(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "worker-index",
				fmt.Sprintf("error iterating workers: %v", err)), true
		}

		store := k.getStore(ctx)
		indexed := 0
		for _, status := range types.AllWorkerStatuses() {
			indexed += len(k.WorkerIDsByStatus(ctx, status))
		}
		if indexed != len(workers) {
			return sdk.FormatInvariant(types.ModuleName, "worker-index",
				fmt.Sprintf("%d status index entries for %d workers", indexed, len(workers))), true
		}

		for _, w := range workers {
			byOwner, found, err := k.GetWorkerByOwner(ctx, w.Owner)
			if err != nil || !found || byOwner.ID != w.ID {
				return sdk.FormatInvariant(types.ModuleName, "worker-index",
					fmt.Sprintf("worker %d not reachable from owner %s", w.ID, w.Owner)), true
			}
			if !store.Has(GetWorkerByStatusKey(w.Status, w.ID)) {
				return sdk.FormatInvariant(types.ModuleName, "worker-index",
					fmt.Sprintf("worker %d missing from %s index", w.ID, w.Status)), true
			}
		}
		return sdk.FormatInvariant(types.ModuleName, "worker-index", "indexes consistent"), false
	}
}

// DelegationBalanceInvariant checks that each delegator's delegated-out
// amount equals the sum of their delegation records.
func DelegationBalanceInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		delegations, err := k.GetAllDelegations(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "delegation-balance",
				fmt.Sprintf("error iterating delegations: %v", err)), true
		}

		out := make(map[string]math.Int)
		for _, d := range delegations {
			if cur, ok := out[d.Delegator]; ok {
				out[d.Delegator] = cur.Add(d.Amount)
			} else {
				out[d.Delegator] = d.Amount
			}
		}

		records, err := k.GetAllStakeRecords(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "delegation-balance",
				fmt.Sprintf("error iterating stake records: %v", err)), true
		}
		for _, rec := range records {
			want, ok := out[rec.Principal]
			if !ok {
				want = math.ZeroInt()
			}
			if !rec.DelegatedOut.Equal(want) {
				return sdk.FormatInvariant(types.ModuleName, "delegation-balance",
					fmt.Sprintf("principal %s delegated out %s, records sum %s", rec.Principal, rec.DelegatedOut, want)), true
			}
			delete(out, rec.Principal)
		}
		for delegator := range out {
			return sdk.FormatInvariant(types.ModuleName, "delegation-balance",
				fmt.Sprintf("delegation from %s has no stake record", delegator)), true
		}
		return sdk.FormatInvariant(types.ModuleName, "delegation-balance", "delegations consistent"), false
	}
}

func countWorkers(workers []types.Worker) types.WorkerCounters {
	counters := types.WorkerCounters{Total: uint64(len(workers))}
	for _, w := range workers {
		if w.Status == types.WorkerStatusActive {
			counters.Active++
		}
	}
	return counters
}
