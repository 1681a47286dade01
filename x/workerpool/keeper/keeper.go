package keeper

import (
	"context"
	"errors"
	"time"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	tokentypes "github.com/ciro-network/ciro/x/token/types"
	"github.com/ciro-network/ciro/x/workerpool/types"
)

// Keeper of the workerpool store
type Keeper struct {
	storeKey  storetypes.StoreKey
	tokens    types.TokenLedger
	oracle    types.PriceOracle
	authority string

	metrics *WorkerPoolMetrics
}

type kvStoreProvider interface {
	KVStore(key storetypes.StoreKey) storetypes.KVStore
}

// NewKeeper creates a new workerpool Keeper instance. oracle may be nil, in
// which case only the admin-fed price is used.
func NewKeeper(
	key storetypes.StoreKey,
	tokens types.TokenLedger,
	oracle types.PriceOracle,
	authority string,
) *Keeper {
	return &Keeper{
		storeKey:  key,
		tokens:    tokens,
		oracle:    oracle,
		authority: authority,
		metrics:   NewWorkerPoolMetrics(),
	}
}

// getStore returns the KVStore for the workerpool module
func (k Keeper) getStore(ctx context.Context) storetypes.KVStore {
	if provider, ok := ctx.(kvStoreProvider); ok {
		return provider.KVStore(k.storeKey)
	}

	unwrapped := sdk.UnwrapSDKContext(ctx)
	return unwrapped.KVStore(k.storeKey)
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

// GetAuthority returns the pool administrator address.
func (k Keeper) GetAuthority() string {
	return k.authority
}

// Metrics exposes the module's Prometheus collectors.
func (k Keeper) Metrics() *WorkerPoolMetrics {
	return k.metrics
}

func (k Keeper) now(ctx context.Context) time.Time {
	return sdk.UnwrapSDKContext(ctx).BlockTime()
}

func (k Keeper) requireAuthority(caller string) error {
	if caller != k.authority {
		return types.ErrUnauthorized.Wrapf("expected %s, got %s", k.authority, caller)
	}
	return nil
}

// requireDispatcher admits the authority and any configured job dispatcher.
func (k Keeper) requireDispatcher(ctx context.Context, caller string) error {
	if caller == k.authority {
		return nil
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	if !params.IsJobDispatcher(caller) {
		return types.ErrUnauthorized.Wrapf("%s is not a job dispatcher", caller)
	}
	return nil
}

func emit(ctx context.Context, eventType string, attrs ...sdk.Attribute) {
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(eventType, attrs...))
}

// transferError classifies a token ledger failure. Shortfalls reported by
// the bundled ledger keep their exhaustion meaning; anything else is a
// failed transfer.
func transferError(err error, format string, args ...any) error {
	switch {
	case errors.Is(err, tokentypes.ErrInsufficientAllowance):
		return types.ErrInsufficientAllowance.Wrapf(format+": %v", append(args, err)...)
	case errors.Is(err, tokentypes.ErrInsufficientBalance):
		return types.ErrInsufficientFunds.Wrapf(format+": %v", append(args, err)...)
	default:
		return types.ErrTransferFailed.Wrapf(format+": %v", append(args, err)...)
	}
}
