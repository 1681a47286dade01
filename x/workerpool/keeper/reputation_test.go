package keeper_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ciro-network/ciro/x/workerpool/keeper"
	"github.com/ciro-network/ciro/x/workerpool/types"
)

func TestSmoothReputation(t *testing.T) {
	tests := []struct {
		name        string
		old         uint32
		performance uint32
		quality     uint32
		want        uint32
	}{
		{"perfect job from default", 500, 100, 100, 550},
		{"failed job from default", 500, 0, 0, 450},
		{"mixed scores", 500, 80, 60, 520},
		{"already at max", 1000, 100, 100, 1000},
		{"floor", 0, 0, 0, 0},
		{"rounds down", 1, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, keeper.SmoothReputation(tt.old, tt.performance, tt.quality, 1000))
		})
	}
}

// TestSmoothReputationBounds checks that one job never pushes the score past
// the scale, and that the result lies between the old score and the job's
// projected score.
func TestSmoothReputationBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxRep := rapid.Uint32Range(1, 100_000).Draw(rt, "max")
		old := rapid.Uint32Range(0, maxRep).Draw(rt, "old")
		perf := rapid.Uint32Range(0, 100).Draw(rt, "performance")
		quality := rapid.Uint32Range(0, 100).Draw(rt, "quality")

		next := keeper.SmoothReputation(old, perf, quality, maxRep)
		projected := uint32(uint64((perf+quality)/2) * uint64(maxRep) / 100)

		lo, hi := old, projected
		if lo > hi {
			lo, hi = hi, lo
		}
		if next > maxRep {
			rt.Fatalf("reputation %d exceeds max %d", next, maxRep)
		}
		if next < lo || next > hi {
			rt.Fatalf("reputation %d outside [%d, %d]", next, lo, hi)
		}
	})
}

func (s *KeeperTestSuite) TestUpdateReputation() {
	w := s.registerWorker("alice", defaultCaps())

	rep, err := s.k.UpdateReputation(s.ctx, dispatcher, w.ID, 100, 100)
	s.Require().NoError(err)
	s.Require().Equal(uint32(550), rep)

	rep, err = s.k.UpdateReputation(s.ctx, dispatcher, w.ID, 20, 30)
	s.Require().NoError(err)
	s.Require().Equal(uint32(520), rep)

	got := s.getWorker(w.ID)
	s.Require().Equal(uint32(520), got.Reputation)
	s.Require().Equal(uint64(1), got.JobsCompleted)
	s.Require().Equal(uint64(1), got.JobsFailed)
	s.Require().True(s.hasEvent(types.EventTypeReputationUpdated))
}

func (s *KeeperTestSuite) TestUpdateReputationRejects() {
	w := s.registerWorker("alice", defaultCaps())

	_, err := s.k.UpdateReputation(s.ctx, "alice", w.ID, 100, 100)
	s.Require().ErrorIs(err, types.ErrUnauthorized)

	_, err = s.k.UpdateReputation(s.ctx, dispatcher, w.ID, 101, 50)
	s.Require().ErrorIs(err, types.ErrInvalidScore)
	_, err = s.k.UpdateReputation(s.ctx, dispatcher, w.ID, 50, 101)
	s.Require().ErrorIs(err, types.ErrInvalidScore)

	_, err = s.k.UpdateReputation(s.ctx, dispatcher, 77, 50, 50)
	s.Require().ErrorIs(err, types.ErrWorkerNotFound)

	s.Require().Equal(uint32(500), s.getWorker(w.ID).Reputation)
}

func (s *KeeperTestSuite) TestSetReputation() {
	w := s.registerWorker("alice", defaultCaps())

	s.Require().ErrorIs(s.k.SetReputation(s.ctx, dispatcher, w.ID, 900), types.ErrUnauthorized)
	s.Require().ErrorIs(s.k.SetReputation(s.ctx, authority, w.ID, 1001), types.ErrInvalidScore)

	s.Require().NoError(s.k.SetReputation(s.ctx, authority, w.ID, 1000))
	s.Require().Equal(uint32(1000), s.getWorker(w.ID).Reputation)
}
