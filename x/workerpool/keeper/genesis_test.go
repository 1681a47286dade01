package keeper_test

import (
	"encoding/json"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	keepertest "github.com/ciro-network/ciro/testutil/keeper"
	tokenkeeper "github.com/ciro-network/ciro/x/token/keeper"
	"github.com/ciro-network/ciro/x/workerpool/keeper"
	"github.com/ciro-network/ciro/x/workerpool/types"
)

// populate drives the pool through every kind of state it persists.
func (s *KeeperTestSuite) populate() {
	alice := s.registerWorker("alice", defaultCaps())
	s.registerWorker("bob", defaultCaps())
	carol := s.registerWorker("carol", defaultCaps())
	s.stake("dave", ciro(300))

	_, err := s.k.Delegate(s.ctx, "dave", alice.ID, ciro(100))
	s.Require().NoError(err)
	_, err = s.k.ReserveWorker(s.ctx, dispatcher, alice.ID, "job-42", time.Hour)
	s.Require().NoError(err)
	_, err = s.k.Slash(s.ctx, authority, carol.ID, types.SlashReasonInvalidResult, []string{"proof"})
	s.Require().NoError(err)
	_, err = s.k.RequestWithdrawal(s.ctx, "dave", ciro(50))
	s.Require().NoError(err)
	_, err = s.k.UpdateReputation(s.ctx, dispatcher, alice.ID, 90, 95)
	s.Require().NoError(err)

	s.Require().NoError(s.k.RemoveWorker(s.ctx, authority, carol.ID))
	_, err = s.k.SetPrice(s.ctx, authority, types.DefaultPrice.MulInt64(3))
	s.Require().NoError(err)
}

func (s *KeeperTestSuite) fundOn(tokens *tokenkeeper.Keeper, ctx sdk.Context, principal string, amount math.Int) {
	s.Require().NoError(tokens.Mint(ctx, authority, principal, amount))
	s.Require().NoError(tokens.Approve(ctx, principal, types.PoolAccount, amount))
}

func (s *KeeperTestSuite) TestGenesisRoundTrip() {
	s.populate()
	s.requireInvariants()

	exported, err := s.k.ExportGenesis(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(exported.Validate())
	s.Require().Len(exported.Workers, 2)
	s.Require().Len(exported.ExitRecords, 1)
	s.Require().Len(exported.SlashRecords, 1)
	s.Require().Len(exported.Reservations, 1)
	s.Require().Equal(uint64(4), exported.NextWorkerID)

	k2, tokens2, ctx2 := keepertest.WorkerPoolKeeper(s.T())
	s.Require().NoError(tokens2.InitGenesis(ctx2, *s.tokens.ExportGenesis(s.ctx)))
	s.Require().NoError(k2.InitGenesis(ctx2, *exported))

	reexported, err := k2.ExportGenesis(ctx2)
	s.Require().NoError(err)

	want, err := json.Marshal(exported)
	s.Require().NoError(err)
	got, err := json.Marshal(reexported)
	s.Require().NoError(err)
	s.Require().JSONEq(string(want), string(got))

	msg, broken := keeper.AllInvariants(*k2)(ctx2)
	s.Require().False(broken, msg)

	// Derived indexes are rebuilt on import.
	counters, err := k2.GetWorkerCounters(ctx2)
	s.Require().NoError(err)
	s.Require().Equal(uint64(2), counters.Total)
	s.Require().Equal(uint64(2), counters.Active)
	s.Require().Len(k2.WorkerIDsByFeature(ctx2, types.FeatureBits(types.FeatureCUDA)[0]), 2)

	// New ids continue after the imported ones.
	s.fundOn(tokens2, ctx2, "erin", types.DefaultParams().MinWorkerStake)
	_, err = k2.Deposit(ctx2, "erin", types.DefaultParams().MinWorkerStake, 0)
	s.Require().NoError(err)
	w, err := k2.RegisterWorker(ctx2, "erin", defaultCaps(), "")
	s.Require().NoError(err)
	s.Require().Equal(uint64(4), w.ID)
}

func (s *KeeperTestSuite) TestInitGenesisRejectsInvalidState() {
	gs := types.DefaultGenesis()
	gs.Workers = []types.Worker{{ID: 1, Owner: "ghost", Capabilities: defaultCaps()}}
	gs.NextWorkerID = 2

	k2, _, ctx2 := keepertest.WorkerPoolKeeper(s.T())
	s.Require().ErrorIs(k2.InitGenesis(ctx2, *gs), types.ErrInvalidGenesis)
}

func (s *KeeperTestSuite) TestDefaultGenesisImports() {
	k2, _, ctx2 := keepertest.WorkerPoolKeeper(s.T())
	s.Require().NoError(k2.InitGenesis(ctx2, *types.DefaultGenesis()))

	exported, err := k2.ExportGenesis(ctx2)
	s.Require().NoError(err)
	s.Require().Empty(exported.Workers)
	s.Require().Equal(uint64(1), exported.NextWorkerID)
	s.Require().True(exported.Price.Equal(types.DefaultPrice))
}
