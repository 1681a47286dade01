package keeper_test

import (
	"time"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

func (s *KeeperTestSuite) TestRegisterWorker() {
	_, err := s.k.RegisterWorker(s.ctx, "alice", defaultCaps(), "")
	s.Require().ErrorIs(err, types.ErrInsufficientStake)

	w := s.registerWorker("alice", defaultCaps())
	s.Require().Equal(uint64(1), w.ID)
	s.Require().Equal(types.WorkerStatusActive, w.Status)
	s.Require().Equal(types.DefaultParams().InitialReputation, w.Reputation)
	s.Require().Equal(s.ctx.BlockTime(), w.LastHeartbeat)
	s.Require().True(s.hasEvent(types.EventTypeWorkerRegistered))

	byOwner, found, err := s.k.GetWorkerByOwner(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().True(found)
	s.Require().Equal(w.ID, byOwner.ID)

	_, err = s.k.RegisterWorker(s.ctx, "alice", defaultCaps(), "")
	s.Require().ErrorIs(err, types.ErrWorkerAlreadyExists)

	second := s.registerWorker("bob", defaultCaps())
	s.Require().Equal(uint64(2), second.ID)

	counters, err := s.k.GetWorkerCounters(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(types.WorkerCounters{Total: 2, Active: 2}, counters)
	s.requireInvariants()
}

func (s *KeeperTestSuite) TestRegisterWorkerValidation() {
	s.stake("alice", types.DefaultParams().MinWorkerStake)

	caps := defaultCaps()
	caps.CPUCores = 0
	_, err := s.k.RegisterWorker(s.ctx, "alice", caps, "")
	s.Require().ErrorIs(err, types.ErrInvalidCapabilities)
	s.Require().Equal(types.CategoryValidation, types.CategoryOf(err))

	_, err = s.k.RegisterWorker(s.ctx, "alice", defaultCaps(), string(make([]byte, types.MaxLocationLength+1)))
	s.Require().ErrorIs(err, types.ErrInvalidCapabilities)

	_, err = s.k.RegisterWorker(s.ctx, types.PoolAccount, defaultCaps(), "")
	s.Require().ErrorIs(err, types.ErrInvalidAddress)
	_, err = s.k.Deposit(s.ctx, types.PoolAccount, types.DefaultParams().MinWorkerStake, 0)
	s.Require().ErrorIs(err, types.ErrInvalidAddress)

	_, err = s.k.RegisterWorker(s.ctx, authority, defaultCaps(), "")
	s.Require().ErrorIs(err, types.ErrUnauthorized)

	counters, err := s.k.GetWorkerCounters(s.ctx)
	s.Require().NoError(err)
	s.Require().Zero(counters.Total)
}

func (s *KeeperTestSuite) TestMaxWorkers() {
	params, err := s.k.GetParams(s.ctx)
	s.Require().NoError(err)
	params.MaxWorkers = 1
	s.Require().NoError(s.k.UpdateParams(s.ctx, authority, params))

	s.registerWorker("alice", defaultCaps())
	s.stake("bob", types.DefaultParams().MinWorkerStake)
	_, err = s.k.RegisterWorker(s.ctx, "bob", defaultCaps(), "")
	s.Require().ErrorIs(err, types.ErrMaxWorkersReached)
}

func (s *KeeperTestSuite) TestDeactivateReactivate() {
	w := s.registerWorker("alice", defaultCaps())

	s.Require().ErrorIs(s.k.DeactivateWorker(s.ctx, "mallory", w.ID), types.ErrNotOwner)
	s.Require().NoError(s.k.DeactivateWorker(s.ctx, "alice", w.ID))
	s.Require().Equal(types.WorkerStatusInactive, s.getWorker(w.ID).Status)
	s.Require().ErrorIs(s.k.DeactivateWorker(s.ctx, "alice", w.ID), types.ErrWorkerNotActive)

	counters, err := s.k.GetWorkerCounters(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(uint64(0), counters.Active)

	s.advance(time.Hour)
	s.Require().ErrorIs(s.k.ReactivateWorker(s.ctx, "mallory", w.ID), types.ErrNotOwner)
	s.Require().NoError(s.k.ReactivateWorker(s.ctx, "alice", w.ID))
	got := s.getWorker(w.ID)
	s.Require().Equal(types.WorkerStatusActive, got.Status)
	s.Require().Equal(s.ctx.BlockTime(), got.LastHeartbeat)

	// The authority may also take a worker out of service.
	s.Require().NoError(s.k.DeactivateWorker(s.ctx, authority, w.ID))
	s.requireInvariants()
}

func (s *KeeperTestSuite) TestReactivateRequiresMinimumStake() {
	w := s.registerWorker("alice", defaultCaps())
	s.Require().NoError(s.k.DeactivateWorker(s.ctx, "alice", w.ID))

	_, err := s.k.RequestWithdrawal(s.ctx, "alice", ciro(1))
	s.Require().NoError(err)
	s.advance(types.UnstakeDelay)
	_, err = s.k.FinalizeWithdrawal(s.ctx, "alice")
	s.Require().NoError(err)

	s.Require().ErrorIs(s.k.ReactivateWorker(s.ctx, "alice", w.ID), types.ErrInsufficientStake)
}

func (s *KeeperTestSuite) TestBanAndReinstate() {
	w := s.registerWorker("alice", defaultCaps())

	s.Require().ErrorIs(s.k.BanWorker(s.ctx, "alice", w.ID, "self"), types.ErrUnauthorized)
	s.Require().NoError(s.k.BanWorker(s.ctx, authority, w.ID, "abuse"))
	s.Require().Equal(types.WorkerStatusBanned, s.getWorker(w.ID).Status)

	s.Require().ErrorIs(s.k.ReactivateWorker(s.ctx, "alice", w.ID), types.ErrInvalidTransition)
	s.Require().ErrorIs(s.k.BanWorker(s.ctx, authority, w.ID, "again"), types.ErrInvalidTransition)

	// Banned workers stay registered through a complete exit.
	_, err := s.k.RequestWithdrawal(s.ctx, "alice", types.DefaultParams().MinWorkerStake)
	s.Require().NoError(err)
	s.Require().Equal(types.WorkerStatusBanned, s.getWorker(w.ID).Status)

	s.Require().NoError(s.k.ReinstateWorker(s.ctx, authority, w.ID))
	s.Require().Equal(types.WorkerStatusInactive, s.getWorker(w.ID).Status)
	s.Require().ErrorIs(s.k.ReinstateWorker(s.ctx, authority, w.ID), types.ErrInvalidTransition)
	s.requireInvariants()
}

func (s *KeeperTestSuite) TestHeartbeat() {
	w := s.registerWorker("alice", defaultCaps())
	perf := types.PerformanceMetrics{LatencyMs: 40, UptimeBps: 9_990, LoadPercent: 35, JobsRunning: 2}

	s.advance(5 * time.Minute)
	s.Require().ErrorIs(s.k.SubmitHeartbeat(s.ctx, "bob", w.ID, perf), types.ErrNotOwner)
	s.Require().NoError(s.k.SubmitHeartbeat(s.ctx, "alice", w.ID, perf))

	got := s.getWorker(w.ID)
	s.Require().Equal(s.ctx.BlockTime(), got.LastHeartbeat)
	s.Require().Equal(perf, got.Performance)

	bad := perf
	bad.UptimeBps = 10_001
	s.Require().ErrorIs(s.k.SubmitHeartbeat(s.ctx, "alice", w.ID, bad), types.ErrInvalidCapabilities)

	s.Require().NoError(s.k.DeactivateWorker(s.ctx, "alice", w.ID))
	s.Require().ErrorIs(s.k.SubmitHeartbeat(s.ctx, "alice", w.ID, perf), types.ErrWorkerNotActive)
}

func (s *KeeperTestSuite) TestUpdateCapabilitiesReindexesFeatures() {
	w := s.registerWorker("alice", defaultCaps())
	s.Require().Equal([]uint64{w.ID}, s.k.WorkerIDsByFeature(s.ctx, 0))

	caps := defaultCaps()
	caps.Features = types.FeatureROCm
	updated, err := s.k.UpdateCapabilities(s.ctx, "alice", w.ID, caps)
	s.Require().NoError(err)
	s.Require().Equal(caps, updated.Capabilities)

	s.Require().Empty(s.k.WorkerIDsByFeature(s.ctx, 0))
	s.Require().Empty(s.k.WorkerIDsByFeature(s.ctx, 3))
	s.Require().Equal([]uint64{w.ID}, s.k.WorkerIDsByFeature(s.ctx, 1))

	_, err = s.k.UpdateCapabilities(s.ctx, "bob", w.ID, caps)
	s.Require().ErrorIs(err, types.ErrNotOwner)
}

func (s *KeeperTestSuite) TestFeatureIndexIsMultiValued() {
	a := s.registerWorker("alice", defaultCaps())
	b := s.registerWorker("bob", defaultCaps())
	c := s.registerWorker("carol", defaultCaps())

	s.Require().Equal([]uint64{a.ID, b.ID, c.ID}, s.k.WorkerIDsByFeature(s.ctx, 0))
	s.Require().Equal([]uint64{a.ID, b.ID, c.ID}, s.k.WorkerIDsByStatus(s.ctx, types.WorkerStatusActive))
}

func (s *KeeperTestSuite) TestDeactivateStaleWorkers() {
	stale := s.registerWorker("alice", defaultCaps())
	fresh := s.registerWorker("bob", defaultCaps())
	timeout := types.DefaultParams().HeartbeatTimeout

	s.advance(timeout)
	s.Require().NoError(s.k.SubmitHeartbeat(s.ctx, "bob", fresh.ID, types.PerformanceMetrics{}))
	s.advance(time.Second)

	_, err := s.k.DeactivateStaleWorkers(s.ctx, "bob")
	s.Require().ErrorIs(err, types.ErrUnauthorized)

	ids, err := s.k.DeactivateStaleWorkers(s.ctx, authority)
	s.Require().NoError(err)
	s.Require().Equal([]uint64{stale.ID}, ids)
	s.Require().Equal(types.WorkerStatusInactive, s.getWorker(stale.ID).Status)
	s.Require().Equal(types.WorkerStatusActive, s.getWorker(fresh.ID).Status)
	s.Require().True(s.hasEvent(types.EventTypeStaleWorkersSwept))
	s.requireInvariants()
}

func (s *KeeperTestSuite) TestRemoveWorker() {
	w := s.registerWorker("alice", defaultCaps())

	s.Require().ErrorIs(s.k.RemoveWorker(s.ctx, "alice", w.ID), types.ErrUnauthorized)
	s.Require().NoError(s.k.RemoveWorker(s.ctx, authority, w.ID))
	s.Require().ErrorIs(s.k.RemoveWorker(s.ctx, authority, w.ID), types.ErrWorkerNotFound)

	exit, found, err := s.k.GetExitRecord(s.ctx, w.ID)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Require().Equal(types.WorkerStatusActive, exit.FinalStatus)
	s.Require().Empty(s.k.WorkerIDsByFeature(s.ctx, 0))

	// Stake is untouched by administrative removal.
	rec, _, err := s.k.GetStakeRecord(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().True(rec.Amount.Equal(types.DefaultParams().MinWorkerStake))
	s.requireInvariants()
}

// TestTierProgression walks through registration with no stake, a Basic
// registration at $500, a $50,000 position held back by reputation, and the
// promotion once job outcomes lift reputation past the Premium minimum.
func (s *KeeperTestSuite) TestTierProgression() {
	_, err := s.k.RegisterWorker(s.ctx, "alice", defaultCaps(), "")
	s.Require().ErrorIs(err, types.ErrInsufficientStake)

	rec := s.stake("alice", ciro(1000))
	s.Require().True(rec.USDValue.Equal(types.DefaultTierTable().Benefit(types.TierPremium).MinUSDValue.QuoInt64(2)))
	w, err := s.k.RegisterWorker(s.ctx, "alice", defaultCaps(), "")
	s.Require().NoError(err)
	s.Require().Equal(types.TierBasic, w.Tier)

	rec = s.stake("alice", ciro(99_000))
	s.Require().Equal("50000.000000000000000000", rec.USDValue.String())
	s.Require().Equal(types.TierBasic, s.getWorker(w.ID).Tier)

	for i, want := range []uint32{550, 595} {
		rep, err := s.k.UpdateReputation(s.ctx, dispatcher, w.ID, 100, 100)
		s.Require().NoError(err)
		s.Require().Equal(want, rep, "update %d", i)
		s.Require().Equal(types.TierBasic, s.getWorker(w.ID).Tier)
	}

	rep, err := s.k.UpdateReputation(s.ctx, dispatcher, w.ID, 100, 100)
	s.Require().NoError(err)
	s.Require().Equal(uint32(635), rep)
	s.Require().Equal(types.TierPremium, s.getWorker(w.ID).Tier)
	s.Require().True(s.hasEvent(types.EventTypeWorkerTierChanged))
}

func (s *KeeperTestSuite) TestPriceChangeRetiersWorkers() {
	w := s.registerWorker("alice", defaultCaps())
	s.Require().NoError(s.k.SetReputation(s.ctx, authority, w.ID, 900))
	s.Require().Equal(types.TierBasic, s.getWorker(w.ID).Tier)

	// 1000 CIRO at $5 is $5,000: Premium.
	_, err := s.k.SetPrice(s.ctx, "alice", types.DefaultPrice)
	s.Require().ErrorIs(err, types.ErrUnauthorized)
	n, err := s.k.SetPrice(s.ctx, authority, types.DefaultPrice.MulInt64(10))
	s.Require().NoError(err)
	s.Require().Equal(1, n)
	s.Require().Equal(types.TierPremium, s.getWorker(w.ID).Tier)

	rec, _, err := s.k.GetStakeRecord(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Equal("5000.000000000000000000", rec.USDValue.String())
}
