package keeper_test

import (
	"github.com/ciro-network/ciro/x/workerpool/types"
)

func (s *KeeperTestSuite) TestPoolStats() {
	s.registerWorker("alice", defaultCaps())
	bob := s.registerWorker("bob", defaultCaps())
	s.Require().NoError(s.k.DeactivateWorker(s.ctx, "bob", bob.ID))
	s.fundPool(ciro(25))

	stats, err := s.k.PoolStats(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(uint64(2), stats.TotalWorkers)
	s.Require().Equal(uint64(1), stats.ActiveWorkers)
	s.Require().Equal(uint64(1), stats.WorkersByStatus[types.WorkerStatusActive.String()])
	s.Require().Equal(uint64(1), stats.WorkersByStatus[types.WorkerStatusInactive.String()])
	s.Require().Equal(uint64(2), stats.WorkersByTier[types.TierBasic.String()])
	s.Require().True(stats.TotalStaked.Equal(ciro(2000)))
	s.Require().True(stats.PoolBalance.Equal(ciro(2025)))
	s.Require().True(stats.FreeBalance.Equal(ciro(25)))
	s.Require().True(stats.Price.Equal(types.DefaultPrice))
	s.Require().False(stats.Paused)
}

func (s *KeeperTestSuite) TestWorkerInfo() {
	w := s.registerWorker("alice", defaultCaps())
	_, err := s.k.Slash(s.ctx, authority, w.ID, types.SlashReasonMissedHeartbeat, nil)
	s.Require().NoError(err)
	_, err = s.k.RequestWithdrawal(s.ctx, "alice", ciro(100))
	s.Require().NoError(err)

	info, err := s.k.WorkerInfo(s.ctx, w.ID)
	s.Require().NoError(err)
	s.Require().Equal(w.ID, info.Worker.ID)
	s.Require().Equal(types.TierBasic, info.CurrentTier)
	s.Require().True(info.Stake.Amount.Equal(ciro(900)))
	s.Require().Equal(1, info.SlashCount)
	s.Require().NotNil(info.PendingUnstake)
	s.Require().True(info.PendingUnstake.Amount.Equal(ciro(100)))

	byOwner, err := s.k.WorkerInfoByOwner(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Equal(info.Worker.ID, byOwner.Worker.ID)

	_, err = s.k.WorkerInfo(s.ctx, 99)
	s.Require().ErrorIs(err, types.ErrWorkerNotFound)
	_, err = s.k.WorkerInfoByOwner(s.ctx, "nobody")
	s.Require().ErrorIs(err, types.ErrWorkerNotFound)
}

func (s *KeeperTestSuite) TestListWorkers() {
	var ids []uint64
	for i := 0; i < 5; i++ {
		ids = append(ids, s.registerWorker(principal(i), defaultCaps()).ID)
	}
	s.Require().NoError(s.k.DeactivateWorker(s.ctx, principal(1), ids[1]))

	all, total, err := s.k.ListWorkers(s.ctx, nil, 0, 0)
	s.Require().NoError(err)
	s.Require().Equal(5, total)
	s.Require().Len(all, 5)

	page, total, err := s.k.ListWorkers(s.ctx, nil, 1, 2)
	s.Require().NoError(err)
	s.Require().Equal(5, total)
	s.Require().Equal([]uint64{ids[1], ids[2]}, []uint64{page[0].ID, page[1].ID})

	page, _, err = s.k.ListWorkers(s.ctx, nil, 4, 10)
	s.Require().NoError(err)
	s.Require().Len(page, 1)

	page, _, err = s.k.ListWorkers(s.ctx, nil, 10, 10)
	s.Require().NoError(err)
	s.Require().Empty(page)

	inactive := types.WorkerStatusInactive
	page, total, err = s.k.ListWorkers(s.ctx, &inactive, -3, 0)
	s.Require().NoError(err)
	s.Require().Equal(1, total)
	s.Require().Equal(ids[1], page[0].ID)
}

func (s *KeeperTestSuite) TestStakeOf() {
	s.stake("alice", ciro(42))

	amount, err := s.k.StakeOf(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().True(amount.Equal(ciro(42)))

	amount, err = s.k.StakeOf(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Require().True(amount.IsZero())
}

func (s *KeeperTestSuite) TestPauseUnpause() {
	s.Require().ErrorIs(s.k.Pause(s.ctx, "mallory", "x"), types.ErrUnauthorized)
	s.Require().ErrorIs(s.k.Unpause(s.ctx, authority), types.ErrPoolNotPaused)

	s.Require().NoError(s.k.Pause(s.ctx, authority, "upgrade"))
	s.Require().ErrorIs(s.k.Pause(s.ctx, authority, "again"), types.ErrPoolAlreadyPaused)

	state := s.k.GetPauseState(s.ctx)
	s.Require().True(state.Paused)
	s.Require().Equal("upgrade", state.Reason)
	s.Require().Equal(authority, state.PausedBy)

	_, err := s.k.Allocate(s.ctx, dispatcher, defaultRequest("job"))
	s.Require().ErrorIs(err, types.ErrPoolPaused)
	_, err = s.k.RegisterWorker(s.ctx, "alice", defaultCaps(), "")
	s.Require().ErrorIs(err, types.ErrPoolPaused)

	stats, err := s.k.PoolStats(s.ctx)
	s.Require().NoError(err)
	s.Require().True(stats.Paused)

	s.Require().NoError(s.k.Unpause(s.ctx, authority))
	s.Require().False(s.k.IsPaused(s.ctx))
	s.Require().True(s.hasEvent(types.EventTypePoolUnpaused))
}

func (s *KeeperTestSuite) TestUpdateParams() {
	params := types.DefaultParams()
	params.MinWorkerStake = ciro(2000)

	s.Require().ErrorIs(s.k.UpdateParams(s.ctx, dispatcher, params), types.ErrUnauthorized)

	bad := params
	bad.MaxReservationDuration = 0
	s.Require().ErrorIs(s.k.UpdateParams(s.ctx, authority, bad), types.ErrInvalidParams)

	s.Require().NoError(s.k.UpdateParams(s.ctx, authority, params))
	got, err := s.k.GetParams(s.ctx)
	s.Require().NoError(err)
	s.Require().True(got.MinWorkerStake.Equal(ciro(2000)))
}
