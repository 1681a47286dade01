package keeper

import (
	"testing"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	tokenkeeper "github.com/ciro-network/ciro/x/token/keeper"
	tokentypes "github.com/ciro-network/ciro/x/token/types"
)

// TokenKeeper creates a standalone token ledger for testing.
func TokenKeeper(t testing.TB) (*tokenkeeper.Keeper, sdk.Context) {
	key := storetypes.NewKVStoreKey(tokentypes.StoreKey)
	ctx := newContext(t, key)
	return tokenkeeper.NewKeeper(key, Authority), ctx
}
