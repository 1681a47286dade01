package keeper_test

import (
	"time"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

func (s *KeeperTestSuite) TestDelegate() {
	w := s.registerWorker("alice", defaultCaps())
	s.stake("bob", ciro(500))

	d, err := s.k.Delegate(s.ctx, "bob", w.ID, ciro(200))
	s.Require().NoError(err)
	s.Require().True(d.Amount.Equal(ciro(200)))

	d, err = s.k.Delegate(s.ctx, "bob", w.ID, ciro(100))
	s.Require().NoError(err)
	s.Require().True(d.Amount.Equal(ciro(300)))

	bob, _, err := s.k.GetStakeRecord(s.ctx, "bob")
	s.Require().NoError(err)
	s.Require().True(bob.DelegatedOut.Equal(ciro(300)))
	s.Require().True(bob.Withdrawable().Equal(ciro(200)))

	alice, _, err := s.k.GetStakeRecord(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().True(alice.DelegatedIn.Equal(ciro(300)))

	// Delegated stake cannot be withdrawn.
	_, err = s.k.RequestWithdrawal(s.ctx, "bob", ciro(201))
	s.Require().ErrorIs(err, types.ErrInsufficientStake)
	_, err = s.k.RequestWithdrawal(s.ctx, "bob", ciro(200))
	s.Require().NoError(err)

	delegations, err := s.k.GetDelegationsByDelegator(s.ctx, "bob")
	s.Require().NoError(err)
	s.Require().Len(delegations, 1)
	s.Require().True(s.hasEvent(types.EventTypeStakeDelegated))
	s.requireInvariants()
}

func (s *KeeperTestSuite) TestDelegateRejects() {
	w := s.registerWorker("alice", defaultCaps())
	s.stake("bob", ciro(100))

	_, err := s.k.Delegate(s.ctx, "bob", w.ID, ciro(0))
	s.Require().ErrorIs(err, types.ErrInvalidAmount)

	_, err = s.k.Delegate(s.ctx, "bob", w.ID, ciro(101))
	s.Require().ErrorIs(err, types.ErrInsufficientStake)

	_, err = s.k.Delegate(s.ctx, "alice", w.ID, oneToken)
	s.Require().ErrorIs(err, types.ErrDelegationNotPermitted)

	_, err = s.k.Delegate(s.ctx, "carol", w.ID, oneToken)
	s.Require().ErrorIs(err, types.ErrStakeRecordNotFound)

	_, err = s.k.Delegate(s.ctx, "bob", 999, oneToken)
	s.Require().ErrorIs(err, types.ErrWorkerNotFound)

	s.Require().NoError(s.k.BanWorker(s.ctx, authority, w.ID, "fraud"))
	_, err = s.k.Delegate(s.ctx, "bob", w.ID, oneToken)
	s.Require().ErrorIs(err, types.ErrDelegationNotPermitted)
}

func (s *KeeperTestSuite) TestDelegateRespectsLock() {
	w := s.registerWorker("alice", defaultCaps())
	s.fund("bob", ciro(100))
	_, err := s.k.Deposit(s.ctx, "bob", ciro(100), time.Hour)
	s.Require().NoError(err)

	_, err = s.k.Delegate(s.ctx, "bob", w.ID, oneToken)
	s.Require().ErrorIs(err, types.ErrStakeLocked)

	s.advance(time.Hour)
	_, err = s.k.Delegate(s.ctx, "bob", w.ID, oneToken)
	s.Require().NoError(err)
}

func (s *KeeperTestSuite) TestRemovingWorkerUnwindsDelegations() {
	w := s.registerWorker("alice", defaultCaps())
	s.stake("bob", ciro(500))
	s.stake("carol", ciro(500))

	_, err := s.k.Delegate(s.ctx, "bob", w.ID, ciro(200))
	s.Require().NoError(err)
	_, err = s.k.Delegate(s.ctx, "carol", w.ID, ciro(50))
	s.Require().NoError(err)

	s.Require().NoError(s.k.RemoveWorker(s.ctx, authority, w.ID))

	all, err := s.k.GetAllDelegations(s.ctx)
	s.Require().NoError(err)
	s.Require().Empty(all)

	for _, p := range []string{"bob", "carol"} {
		rec, _, err := s.k.GetStakeRecord(s.ctx, p)
		s.Require().NoError(err)
		s.Require().True(rec.DelegatedOut.IsZero(), p)
		s.Require().True(rec.Withdrawable().Equal(ciro(500)), p)
	}

	alice, _, err := s.k.GetStakeRecord(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().True(alice.DelegatedIn.IsZero())
	s.requireInvariants()
}
