package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// executeAtomic runs fn against a cache of the current store and writes the
// cache back only if fn succeeds, so a failed operation leaves no trace.
// Mutations are refused while a guarded operation is in flight.
func (k Keeper) executeAtomic(ctx context.Context, fn func(ctx sdk.Context) error) error {
	if k.IsLocked(ctx) {
		return types.ErrReentrancy.Wrap("mutation attempted inside a guarded operation")
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cacheCtx, write := sdkCtx.CacheContext()
	if err := fn(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}

// executeGuarded is executeAtomic plus a non-reentrant critical section named
// by operation. It wraps every operation that calls out to the token ledger
// or price oracle and mutates local state afterwards.
func (k Keeper) executeGuarded(ctx context.Context, operation string, fn func(ctx sdk.Context) error) error {
	return k.executeAtomic(ctx, func(cacheCtx sdk.Context) error {
		return k.WithReentrancyGuard(cacheCtx, operation, func() error {
			return fn(cacheCtx)
		})
	})
}

// WithReentrancyGuard executes fn while holding the pool lock. Locks live in
// the KVStore so a nested call made through a collaborator with the same
// context observes them.
func (k Keeper) WithReentrancyGuard(ctx context.Context, operation string, fn func() error) error {
	if err := k.acquireReentrancyLock(ctx, operation); err != nil {
		return err
	}
	defer k.releaseReentrancyLock(ctx)

	return fn()
}

const poolLockName = "pool"

// acquireReentrancyLock attempts to acquire the pool lock from the KVStore
func (k Keeper) acquireReentrancyLock(ctx context.Context, operation string) error {
	store := k.getStore(ctx)
	key := ReentrancyLockKey(poolLockName)

	if holder := store.Get(key); holder != nil {
		k.metrics.ReentrancyRejections.WithLabelValues(operation).Inc()
		return types.ErrReentrancy.Wrapf("%s attempted while %s is in progress", operation, string(holder))
	}

	store.Set(key, []byte(operation))
	return nil
}

// releaseReentrancyLock releases the pool lock
func (k Keeper) releaseReentrancyLock(ctx context.Context) {
	k.getStore(ctx).Delete(ReentrancyLockKey(poolLockName))
}

// IsLocked reports whether an operation currently holds the pool lock.
func (k Keeper) IsLocked(ctx context.Context) bool {
	return k.getStore(ctx).Has(ReentrancyLockKey(poolLockName))
}
