package api

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"
)

// handleAllocate selects a worker for a job. High and critical priority
// requests also reserve it.
func (s *Server) handleAllocate(c *gin.Context) {
	var req AllocateRequest
	if !bindJSON(c, &req) {
		return
	}
	allocReq, err := req.ToAllocationRequest()
	if err != nil {
		badRequest(c, "Invalid allocation request", err)
		return
	}
	s.execute(c, "allocate", func(ctx sdk.Context, caller string) (interface{}, error) {
		return s.app.PoolKeeper.Allocate(ctx, caller, allocReq)
	})
}

func (s *Server) handleReserveWorker(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	var req ReserveRequest
	if !bindJSON(c, &req) {
		return
	}
	duration, err := parseDuration(req.Duration)
	if err != nil {
		badRequest(c, "Invalid duration", err)
		return
	}
	s.execute(c, "reserve_worker", func(ctx sdk.Context, caller string) (interface{}, error) {
		return s.app.PoolKeeper.ReserveWorker(ctx, caller, id, req.JobID, duration)
	})
}

func (s *Server) handleReleaseWorker(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	jobID := c.Param("job")
	s.execute(c, "release_worker", func(ctx sdk.Context, caller string) (interface{}, error) {
		return nil, s.app.PoolKeeper.ReleaseWorker(ctx, caller, id, jobID)
	})
}

func (s *Server) handleUpdateReputation(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	var req ReputationUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	s.execute(c, "update_reputation", func(ctx sdk.Context, caller string) (interface{}, error) {
		rep, err := s.app.PoolKeeper.UpdateReputation(ctx, caller, id, req.Performance, req.Quality)
		if err != nil {
			return nil, err
		}
		return gin.H{"worker_id": id, "reputation": rep}, nil
	})
}

func (s *Server) handleSetReputation(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	var req ReputationOverrideRequest
	if !bindJSON(c, &req) {
		return
	}
	s.execute(c, "set_reputation", func(ctx sdk.Context, caller string) (interface{}, error) {
		return gin.H{"worker_id": id, "reputation": req.Reputation},
			s.app.PoolKeeper.SetReputation(ctx, caller, id, req.Reputation)
	})
}

func (s *Server) handleDistributeReward(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	var req RewardRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.PerformanceBonus.IsNil() {
		req.PerformanceBonus = math.ZeroInt()
	}
	s.execute(c, "distribute_reward", func(ctx sdk.Context, caller string) (interface{}, error) {
		paid, err := s.app.PoolKeeper.DistributeReward(ctx, caller, id, req.Base, req.PerformanceBonus)
		if err != nil {
			return nil, err
		}
		return gin.H{"worker_id": id, "paid": paid}, nil
	})
}
