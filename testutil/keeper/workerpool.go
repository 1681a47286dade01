package keeper

import (
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	tokenkeeper "github.com/ciro-network/ciro/x/token/keeper"
	tokentypes "github.com/ciro-network/ciro/x/token/types"
	"github.com/ciro-network/ciro/x/workerpool/keeper"
	"github.com/ciro-network/ciro/x/workerpool/types"
)

// Authority is the administrator address used by test keepers.
const Authority = "ciro_authority"

// GenesisTime is the block time of every fresh test context.
var GenesisTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// WorkerPoolKeeper creates a worker pool keeper backed by a real token ledger
// on an in-memory multistore.
func WorkerPoolKeeper(t testing.TB) (*keeper.Keeper, *tokenkeeper.Keeper, sdk.Context) {
	poolKey := storetypes.NewKVStoreKey(types.StoreKey)
	tokenKey := storetypes.NewKVStoreKey(tokentypes.StoreKey)
	ctx := newContext(t, poolKey, tokenKey)

	tokens := tokenkeeper.NewKeeper(tokenKey, Authority)
	k := keeper.NewKeeper(poolKey, tokens, nil, Authority)
	return k, tokens, ctx
}

// WorkerPoolKeeperWithCollaborators creates a worker pool keeper over the
// given ledger and oracle, for tests that need to control them.
func WorkerPoolKeeperWithCollaborators(t testing.TB, ledger types.TokenLedger, oracle types.PriceOracle) (*keeper.Keeper, sdk.Context) {
	poolKey := storetypes.NewKVStoreKey(types.StoreKey)
	ctx := newContext(t, poolKey)
	return keeper.NewKeeper(poolKey, ledger, oracle, Authority), ctx
}

func newContext(t testing.TB, keys ...*storetypes.KVStoreKey) sdk.Context {
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	for _, key := range keys {
		stateStore.MountStoreWithDB(key, storetypes.StoreTypeIAVL, db)
	}
	require.NoError(t, stateStore.LoadLatestVersion())

	return sdk.NewContext(stateStore, cmtproto.Header{Time: GenesisTime}, false, log.NewNopLogger())
}
