package keeper_test

import (
	"context"
	"errors"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	keepertest "github.com/ciro-network/ciro/testutil/keeper"
	tokentypes "github.com/ciro-network/ciro/x/token/types"
	"github.com/ciro-network/ciro/x/workerpool/keeper"
	"github.com/ciro-network/ciro/x/workerpool/types"
)

// mockLedger is an in-memory token ledger whose transfers can call back into
// the pool.
type mockLedger struct {
	balances   map[string]math.Int
	onTransfer func(ctx context.Context) error
	hookErr    error
}

func newMockLedger() *mockLedger {
	return &mockLedger{balances: map[string]math.Int{}}
}

func (l *mockLedger) BalanceOf(_ context.Context, account string) math.Int {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return math.ZeroInt()
}

func (l *mockLedger) TransferFrom(ctx context.Context, owner, recipient string, amount math.Int) error {
	return l.Transfer(ctx, owner, recipient, amount)
}

func (l *mockLedger) Transfer(ctx context.Context, sender, recipient string, amount math.Int) error {
	if l.onTransfer != nil {
		if err := l.onTransfer(ctx); err != nil {
			l.hookErr = err
			return err
		}
	}
	if l.BalanceOf(ctx, sender).LT(amount) {
		return tokentypes.ErrInsufficientBalance
	}
	l.balances[sender] = l.BalanceOf(ctx, sender).Sub(amount)
	l.balances[recipient] = l.BalanceOf(ctx, recipient).Add(amount)
	return nil
}

// mockOracle reports a fixed price. onGetPrice, when set, runs on every
// lookup and its errors are collected in hookErrs.
type mockOracle struct {
	price      math.LegacyDec
	ok         bool
	onGetPrice func(ctx context.Context) error
	hookErrs   []error
}

func (o *mockOracle) GetPrice(ctx context.Context, _ string) (math.LegacyDec, bool) {
	if o.onGetPrice != nil {
		o.hookErrs = append(o.hookErrs, o.onGetPrice(ctx))
	}
	return o.price, o.ok
}

func TestReentrantDepositRejected(t *testing.T) {
	ledger := newMockLedger()
	k, ctx := keepertest.WorkerPoolKeeperWithCollaborators(t, ledger, nil)
	ledger.balances["alice"] = math.NewInt(5_000_000_000)

	ledger.onTransfer = func(ctx context.Context) error {
		_, err := k.Deposit(ctx, "alice", math.NewInt(1), 0)
		return err
	}

	_, err := k.Deposit(ctx, "alice", math.NewInt(1_000_000_000), 0)
	require.ErrorIs(t, err, types.ErrTransferFailed)
	require.ErrorIs(t, ledger.hookErr, types.ErrReentrancy)

	_, found, err := k.GetStakeRecord(ctx, "alice")
	require.NoError(t, err)
	require.False(t, found, "failed deposit must leave no stake record")
	require.False(t, k.IsLocked(ctx), "lock must not leak out of a failed operation")

	ledger.onTransfer = nil
	rec, err := k.Deposit(ctx, "alice", math.NewInt(1_000_000_000), 0)
	require.NoError(t, err)
	require.True(t, rec.Amount.Equal(math.NewInt(1_000_000_000)))
}

func TestReentrantMutationFromRewardRejected(t *testing.T) {
	ledger := newMockLedger()
	k, ctx := keepertest.WorkerPoolKeeperWithCollaborators(t, ledger, nil)
	ledger.balances["alice"] = types.DefaultParams().MinWorkerStake

	_, err := k.Deposit(ctx, "alice", types.DefaultParams().MinWorkerStake, 0)
	require.NoError(t, err)
	w, err := k.RegisterWorker(ctx, "alice", defaultCaps(), "")
	require.NoError(t, err)
	ledger.balances[types.PoolAccount] = ledger.BalanceOf(ctx, types.PoolAccount).Add(math.NewInt(10))

	ledger.onTransfer = func(ctx context.Context) error {
		return k.DeactivateWorker(ctx, "alice", w.ID)
	}
	_, err = k.DistributeReward(ctx, authority, w.ID, math.NewInt(10), math.ZeroInt())
	require.ErrorIs(t, err, types.ErrTransferFailed)
	require.ErrorIs(t, ledger.hookErr, types.ErrReentrancy)

	got, _, err := k.GetWorker(ctx, w.ID)
	require.NoError(t, err)
	require.Equal(t, types.WorkerStatusActive, got.Status)
	require.True(t, got.TotalEarnings.IsZero())
}

func TestReentrantDepositFromOracleDuringSlashRejected(t *testing.T) {
	ledger := newMockLedger()
	oracle := &mockOracle{}
	k, ctx := keepertest.WorkerPoolKeeperWithCollaborators(t, ledger, oracle)
	minStake := types.DefaultParams().MinWorkerStake
	ledger.balances["alice"] = minStake.MulRaw(2)

	_, err := k.Deposit(ctx, "alice", minStake, 0)
	require.NoError(t, err)
	w, err := k.RegisterWorker(ctx, "alice", defaultCaps(), "")
	require.NoError(t, err)

	oracle.onGetPrice = func(ctx context.Context) error {
		_, err := k.Deposit(ctx, "alice", minStake, 0)
		return err
	}
	amount, err := k.Slash(ctx, authority, w.ID, types.SlashReasonMinorInfraction, nil)
	require.NoError(t, err)
	require.NotEmpty(t, oracle.hookErrs)
	for _, hookErr := range oracle.hookErrs {
		require.ErrorIs(t, hookErr, types.ErrReentrancy)
	}
	require.True(t, amount.Equal(minStake.QuoRaw(10)), amount.String())

	oracle.onGetPrice = nil
	rec, _, err := k.GetStakeRecord(ctx, "alice")
	require.NoError(t, err)
	require.True(t, rec.Amount.Equal(minStake.Sub(amount)), rec.Amount.String())
	require.True(t, ledger.BalanceOf(ctx, types.PoolAccount).Equal(minStake))
	require.True(t, ledger.BalanceOf(ctx, "alice").Equal(minStake))
	require.False(t, k.IsLocked(ctx))

	msg, broken := keeper.AllInvariants(*k)(ctx)
	require.False(t, broken, msg)
}

func TestReentrantMutationFromOracleRejected(t *testing.T) {
	ledger := newMockLedger()
	oracle := &mockOracle{}
	k, ctx := keepertest.WorkerPoolKeeperWithCollaborators(t, ledger, oracle)
	minStake := types.DefaultParams().MinWorkerStake
	ledger.balances["alice"] = minStake
	ledger.balances["bob"] = minStake

	_, err := k.Deposit(ctx, "alice", minStake, 0)
	require.NoError(t, err)
	_, err = k.Deposit(ctx, "bob", minStake, 0)
	require.NoError(t, err)
	w, err := k.RegisterWorker(ctx, "alice", defaultCaps(), "")
	require.NoError(t, err)

	oracle.onGetPrice = func(ctx context.Context) error {
		return k.DeactivateWorker(ctx, "alice", w.ID)
	}

	_, err = k.RegisterWorker(ctx, "bob", defaultCaps(), "")
	require.NoError(t, err)
	_, err = k.UpdateReputation(ctx, authority, w.ID, 90, 90)
	require.NoError(t, err)
	require.NoError(t, k.SetReputation(ctx, authority, w.ID, 600))

	require.NotEmpty(t, oracle.hookErrs)
	for _, hookErr := range oracle.hookErrs {
		require.ErrorIs(t, hookErr, types.ErrReentrancy)
	}
	oracle.onGetPrice = nil
	require.Equal(t, types.WorkerStatusActive, mustWorker(t, k, ctx, w.ID).Status)
	require.False(t, k.IsLocked(ctx))
}

func TestWithReentrancyGuard(t *testing.T) {
	k, _, ctx := keepertest.WorkerPoolKeeper(t)

	var inner error
	err := k.WithReentrancyGuard(ctx, "outer", func() error {
		require.True(t, k.IsLocked(ctx))
		inner = k.WithReentrancyGuard(ctx, "inner", func() error { return nil })
		return nil
	})
	require.NoError(t, err)
	require.ErrorIs(t, inner, types.ErrReentrancy)
	require.False(t, k.IsLocked(ctx))

	boom := errors.New("boom")
	err = k.WithReentrancyGuard(ctx, "failing", func() error { return boom })
	require.ErrorIs(t, err, boom)
	require.False(t, k.IsLocked(ctx), "lock is released on error")
}

func TestCurrentPricePrefersOracle(t *testing.T) {
	oracle := &mockOracle{price: math.LegacyNewDec(2), ok: true}
	k, ctx := keepertest.WorkerPoolKeeperWithCollaborators(t, newMockLedger(), oracle)

	require.True(t, k.CurrentPrice(ctx).Equal(math.LegacyNewDec(2)))

	oracle.ok = false
	require.True(t, k.CurrentPrice(ctx).Equal(types.DefaultPrice))

	oracle.ok, oracle.price = true, math.LegacyZeroDec()
	require.True(t, k.CurrentPrice(ctx).Equal(types.DefaultPrice), "non-positive oracle price falls back")

	_, err := k.SetPrice(ctx, authority, math.LegacyNewDec(3))
	require.NoError(t, err)
	require.True(t, k.CurrentPrice(ctx).Equal(math.LegacyNewDec(3)))
	require.True(t, k.GetStoredPrice(ctx).Equal(math.LegacyNewDec(3)))
}

func TestRefreshValuationsFollowsOracle(t *testing.T) {
	ledger := newMockLedger()
	oracle := &mockOracle{}
	k, ctx := keepertest.WorkerPoolKeeperWithCollaborators(t, ledger, oracle)

	amount := math.NewInt(2_000_000_000)
	ledger.balances["alice"] = amount
	_, err := k.Deposit(ctx, "alice", amount, 0)
	require.NoError(t, err)
	w, err := k.RegisterWorker(ctx, "alice", defaultCaps(), "")
	require.NoError(t, err)
	require.NoError(t, k.SetReputation(ctx, authority, w.ID, 700))
	require.Equal(t, types.TierPremium, mustWorker(t, k, ctx, w.ID).Tier)

	oracle.price, oracle.ok = math.LegacyNewDecWithPrec(25, 2), true
	_, err = k.RefreshValuations(ctx, "alice")
	require.ErrorIs(t, err, types.ErrUnauthorized)

	n, err := k.RefreshValuations(ctx, authority)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, types.TierBasic, mustWorker(t, k, ctx, w.ID).Tier)

	rec, _, err := k.GetStakeRecord(ctx, "alice")
	require.NoError(t, err)
	require.True(t, rec.USDValue.Equal(math.LegacyNewDec(500)), rec.USDValue.String())
}

func TestSetPriceRejects(t *testing.T) {
	k, _, ctx := keepertest.WorkerPoolKeeper(t)

	_, err := k.SetPrice(ctx, "mallory", math.LegacyNewDec(1))
	require.ErrorIs(t, err, types.ErrUnauthorized)
	_, err = k.SetPrice(ctx, authority, math.LegacyZeroDec())
	require.ErrorIs(t, err, types.ErrInvalidPrice)
	_, err = k.SetPrice(ctx, authority, math.LegacyNewDec(-1))
	require.ErrorIs(t, err, types.ErrInvalidPrice)
}

func mustWorker(t *testing.T, k *keeper.Keeper, ctx context.Context, id uint64) types.Worker {
	t.Helper()
	w, found, err := k.GetWorker(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	return w
}
