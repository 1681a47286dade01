package keeper_test

import (
	"github.com/ciro-network/ciro/x/workerpool/types"
)

func (s *KeeperTestSuite) TestSlashMinor() {
	w := s.registerWorker("alice", defaultCaps())

	amount, err := s.k.Slash(s.ctx, authority, w.ID, types.SlashReasonMinorInfraction, []string{"ipfs://proof", "ignored"})
	s.Require().NoError(err)
	s.Require().True(amount.Equal(ciro(100)), amount.String())

	rec, _, err := s.k.GetStakeRecord(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().True(rec.Amount.Equal(ciro(900)))

	got := s.getWorker(w.ID)
	s.Require().Equal(types.WorkerStatusActive, got.Status)
	s.Require().True(got.StakeAmount.Equal(ciro(900)))

	slash, found, err := s.k.GetSlashRecord(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Require().Equal(w.ID, slash.WorkerID)
	s.Require().Equal("alice", slash.Principal)
	s.Require().Equal(uint32(10), slash.Percentage)
	s.Require().Equal("ipfs://proof", slash.Evidence)
	s.Require().False(slash.Major)
	s.Require().Equal(s.ctx.BlockTime(), slash.Timestamp)

	totals, err := s.k.GetPoolTotals(s.ctx)
	s.Require().NoError(err)
	s.Require().True(totals.TotalSlashed.Equal(ciro(100)))

	// Confiscated tokens stay with the pool.
	s.Require().True(s.tokens.BalanceOf(s.ctx, types.PoolAccount).Equal(ciro(1000)))
	s.Require().True(s.hasEvent(types.EventTypeWorkerSlashed))
	s.requireInvariants()
}

func (s *KeeperTestSuite) TestSlashMajorMovesWorkerToSlashed() {
	w := s.registerWorker("alice", defaultCaps())

	amount, err := s.k.Slash(s.ctx, authority, w.ID, types.SlashReasonProtocolViolation, nil)
	s.Require().NoError(err)
	s.Require().True(amount.Equal(ciro(300)))

	got := s.getWorker(w.ID)
	s.Require().Equal(types.WorkerStatusSlashed, got.Status)

	// A second major slash keeps the worker Slashed and compounds on the remainder.
	amount, err = s.k.Slash(s.ctx, authority, w.ID, types.SlashReasonMaliciousBehavior, nil)
	s.Require().NoError(err)
	s.Require().True(amount.Equal(ciro(350)))
	s.Require().Equal(types.WorkerStatusSlashed, s.getWorker(w.ID).Status)

	records, err := s.k.GetSlashRecordsByWorker(s.ctx, w.ID)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Require().Equal(uint64(1), records[0].ID)
	s.Require().Equal(uint64(2), records[1].ID)
	s.Require().True(records[1].Major)

	// A slashed worker can be brought back to Inactive, never straight to Active.
	s.Require().ErrorIs(s.k.ReactivateWorker(s.ctx, "alice", w.ID), types.ErrInvalidTransition)
	s.requireInvariants()
}

func (s *KeeperTestSuite) TestSlashFraudTakesEverything() {
	w := s.registerWorker("alice", defaultCaps())

	amount, err := s.k.Slash(s.ctx, authority, w.ID, types.SlashReasonFraud, nil)
	s.Require().NoError(err)
	s.Require().True(amount.Equal(ciro(1000)))

	rec, _, err := s.k.GetStakeRecord(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().True(rec.Amount.IsZero())

	_, err = s.k.RequestWithdrawal(s.ctx, "alice", oneToken)
	s.Require().ErrorIs(err, types.ErrInsufficientStake)
	s.requireInvariants()
}

func (s *KeeperTestSuite) TestSlashRejects() {
	w := s.registerWorker("alice", defaultCaps())

	_, err := s.k.Slash(s.ctx, dispatcher, w.ID, types.SlashReasonFraud, nil)
	s.Require().ErrorIs(err, types.ErrUnauthorized)

	_, err = s.k.Slash(s.ctx, authority, w.ID, types.SlashReason(0), nil)
	s.Require().ErrorIs(err, types.ErrInvalidSlashReason)
	_, err = s.k.Slash(s.ctx, authority, w.ID, types.SlashReason(42), nil)
	s.Require().ErrorIs(err, types.ErrInvalidSlashReason)

	_, err = s.k.Slash(s.ctx, authority, 999, types.SlashReasonFraud, nil)
	s.Require().ErrorIs(err, types.ErrWorkerNotFound)

	records, err := s.k.GetAllSlashRecords(s.ctx)
	s.Require().NoError(err)
	s.Require().Empty(records)
}

func (s *KeeperTestSuite) TestSlashWhilePaused() {
	w := s.registerWorker("alice", defaultCaps())
	s.Require().NoError(s.k.Pause(s.ctx, authority, "incident"))

	_, err := s.k.Slash(s.ctx, authority, w.ID, types.SlashReasonPoorPerformance, nil)
	s.Require().NoError(err)

	rec, _, err := s.k.GetStakeRecord(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().True(rec.Amount.Equal(ciro(850)))
}

func (s *KeeperTestSuite) TestSlashDropsTier() {
	w := s.registerWorker("alice", defaultCaps())
	s.stake("alice", ciro(1000))
	s.Require().NoError(s.k.SetReputation(s.ctx, authority, w.ID, 700))
	s.Require().Equal(types.TierPremium, s.getWorker(w.ID).Tier)

	_, err := s.k.Slash(s.ctx, authority, w.ID, types.SlashReasonMinorInfraction, nil)
	s.Require().NoError(err)
	s.Require().Equal(types.TierBasic, s.getWorker(w.ID).Tier)
	s.Require().True(s.hasEvent(types.EventTypeWorkerTierChanged))
}
