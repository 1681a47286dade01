package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	tokentypes "github.com/ciro-network/ciro/x/token/types"
	pooltypes "github.com/ciro-network/ciro/x/workerpool/types"
)

const testAuthority = "ciro_authority"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, db dbm.DB) *App {
	t.Helper()
	a, err := New(log.NewNopLogger(), db, "ciro-test", testAuthority, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return a
}

func initializedApp(t *testing.T) (*App, dbm.DB) {
	t.Helper()
	db := dbm.NewMemDB()
	a := newTestApp(t, db)
	require.NoError(t, a.InitChain(context.Background(), NewDefaultGenesisState()))
	return a, db
}

func tokens(n int64) math.Int {
	return math.NewInt(n * pooltypes.BaseUnitsPerToken)
}

func TestNewRejectsBadAuthority(t *testing.T) {
	_, err := New(log.NewNopLogger(), dbm.NewMemDB(), "ciro-test", "")
	require.Error(t, err)
}

func TestOperationsRequireGenesis(t *testing.T) {
	a := newTestApp(t, dbm.NewMemDB())
	require.False(t, a.Initialized())

	_, err := a.Execute(context.Background(), "mint", testAuthority, func(sdk.Context) error { return nil })
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, a.Query(context.Background(), func(sdk.Context) error { return nil }), ErrNotInitialized)
}

func TestInitChainOnce(t *testing.T) {
	a, _ := initializedApp(t)
	require.True(t, a.Initialized())
	require.Equal(t, int64(1), a.Version())

	require.Error(t, a.InitChain(context.Background(), NewDefaultGenesisState()))
}

func TestInitChainRejectsInvalidGenesis(t *testing.T) {
	a := newTestApp(t, dbm.NewMemDB())
	gs := NewDefaultGenesisState()
	gs.WorkerPool = nil
	require.Error(t, a.InitChain(context.Background(), gs))
	require.False(t, a.Initialized())
}

func TestExecuteCommitsOnSuccess(t *testing.T) {
	a, db := initializedApp(t)
	ctx := context.Background()

	events, err := a.Execute(ctx, "mint", testAuthority, func(sdkCtx sdk.Context) error {
		require.Equal(t, testNow, sdkCtx.BlockTime())
		return a.TokenKeeper.Mint(sdkCtx, testAuthority, "alice", tokens(5))
	})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	require.Equal(t, tokentypes.EventTypeMint, events[0].Type)
	require.Equal(t, int64(2), a.Version())

	// a fresh App over the same database sees the committed write
	reopened := newTestApp(t, db)
	require.Equal(t, int64(2), reopened.Version())
	require.NoError(t, reopened.Query(ctx, func(sdkCtx sdk.Context) error {
		require.True(t, reopened.TokenKeeper.BalanceOf(sdkCtx, "alice").Equal(tokens(5)))
		return nil
	}))
}

func TestExecuteDiscardsOnFailure(t *testing.T) {
	a, _ := initializedApp(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := a.Execute(ctx, "mint", testAuthority, func(sdkCtx sdk.Context) error {
		require.NoError(t, a.TokenKeeper.Mint(sdkCtx, testAuthority, "alice", tokens(5)))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, int64(1), a.Version())

	require.NoError(t, a.Query(ctx, func(sdkCtx sdk.Context) error {
		require.True(t, a.TokenKeeper.BalanceOf(sdkCtx, "alice").IsZero())
		return nil
	}))
}

func TestQueryWritesAreDropped(t *testing.T) {
	a, _ := initializedApp(t)
	ctx := context.Background()

	require.NoError(t, a.Query(ctx, func(sdkCtx sdk.Context) error {
		return a.TokenKeeper.Mint(sdkCtx, testAuthority, "alice", tokens(1))
	}))
	require.NoError(t, a.Query(ctx, func(sdkCtx sdk.Context) error {
		require.True(t, a.TokenKeeper.BalanceOf(sdkCtx, "alice").IsZero())
		return nil
	}))
}

func TestStakeAndRegisterThroughApp(t *testing.T) {
	a, _ := initializedApp(t)
	ctx := context.Background()
	minStake := pooltypes.DefaultParams().MinWorkerStake

	_, err := a.Execute(ctx, "mint", testAuthority, func(sdkCtx sdk.Context) error {
		return a.TokenKeeper.Mint(sdkCtx, testAuthority, "alice", minStake)
	})
	require.NoError(t, err)
	_, err = a.Execute(ctx, "approve", "alice", func(sdkCtx sdk.Context) error {
		return a.TokenKeeper.Approve(sdkCtx, "alice", pooltypes.PoolAccount, minStake)
	})
	require.NoError(t, err)
	_, err = a.Execute(ctx, "deposit", "alice", func(sdkCtx sdk.Context) error {
		_, err := a.PoolKeeper.Deposit(sdkCtx, "alice", minStake, 0)
		return err
	})
	require.NoError(t, err)

	caps := pooltypes.Capabilities{GPUMemoryMB: 8_192, CPUCores: 8, RAMMB: 32_768, Features: pooltypes.FeatureCUDA}
	_, err = a.Execute(ctx, "register_worker", "alice", func(sdkCtx sdk.Context) error {
		_, err := a.PoolKeeper.RegisterWorker(sdkCtx, "alice", caps, "us-east")
		return err
	})
	require.NoError(t, err)

	stats, err := a.PoolStats(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), stats.ActiveWorkers)
	require.True(t, stats.TotalStaked.Equal(minStake))
	require.NoError(t, a.CheckInvariants(ctx))
}

func TestWorkerGaugesFollowCommittedState(t *testing.T) {
	a, _ := initializedApp(t)
	ctx := context.Background()
	minStake := pooltypes.DefaultParams().MinWorkerStake
	caps := pooltypes.Capabilities{GPUMemoryMB: 8_192, CPUCores: 8, RAMMB: 32_768, Features: pooltypes.FeatureCUDA}
	gauges := a.PoolKeeper.Metrics()

	for _, owner := range []string{"alice", "bob"} {
		_, err := a.Execute(ctx, "mint", testAuthority, func(sdkCtx sdk.Context) error {
			return a.TokenKeeper.Mint(sdkCtx, testAuthority, owner, minStake)
		})
		require.NoError(t, err)
		_, err = a.Execute(ctx, "approve", owner, func(sdkCtx sdk.Context) error {
			return a.TokenKeeper.Approve(sdkCtx, owner, pooltypes.PoolAccount, minStake)
		})
		require.NoError(t, err)
		_, err = a.Execute(ctx, "deposit", owner, func(sdkCtx sdk.Context) error {
			_, err := a.PoolKeeper.Deposit(sdkCtx, owner, minStake, 0)
			return err
		})
		require.NoError(t, err)
	}

	_, err := a.Execute(ctx, "register_worker", "alice", func(sdkCtx sdk.Context) error {
		_, err := a.PoolKeeper.RegisterWorker(sdkCtx, "alice", caps, "")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, float64(1), promtestutil.ToFloat64(gauges.TotalWorkers))
	require.Equal(t, float64(1), promtestutil.ToFloat64(gauges.ActiveWorkers))

	// bob registers inside an operation that fails afterwards, so the
	// registration is rolled back and the gauges must not count it.
	boom := errors.New("boom")
	_, err = a.Execute(ctx, "register_worker", "bob", func(sdkCtx sdk.Context) error {
		if _, err := a.PoolKeeper.RegisterWorker(sdkCtx, "bob", caps, ""); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, float64(1), promtestutil.ToFloat64(gauges.TotalWorkers))
	require.Equal(t, float64(1), promtestutil.ToFloat64(gauges.ActiveWorkers))

	stats, err := a.PoolStats(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), stats.TotalWorkers)
}

func TestExportGenesisRoundTrip(t *testing.T) {
	a, _ := initializedApp(t)
	ctx := context.Background()

	_, err := a.Execute(ctx, "mint", testAuthority, func(sdkCtx sdk.Context) error {
		return a.TokenKeeper.Mint(sdkCtx, testAuthority, "bob", tokens(42))
	})
	require.NoError(t, err)

	exported, err := a.ExportGenesis(ctx)
	require.NoError(t, err)
	require.NoError(t, exported.Validate())

	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, WriteGenesisFile(path, exported))
	loaded, err := LoadGenesisFile(path)
	require.NoError(t, err)

	b := newTestApp(t, dbm.NewMemDB())
	require.NoError(t, b.InitChain(ctx, loaded))
	reexported, err := b.ExportGenesis(ctx)
	require.NoError(t, err)

	want, err := json.Marshal(exported)
	require.NoError(t, err)
	got, err := json.Marshal(reexported)
	require.NoError(t, err)
	require.JSONEq(t, string(want), string(got))
}

func TestLoadGenesisFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := LoadGenesisFile(path)
	require.Error(t, err)

	_, err = LoadGenesisFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
