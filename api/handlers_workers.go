package api

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"

	pooltypes "github.com/ciro-network/ciro/x/workerpool/types"
)

func (s *Server) handleRegisterWorker(c *gin.Context) {
	var req RegisterWorkerRequest
	if !bindJSON(c, &req) {
		return
	}
	s.execute(c, "register_worker", func(ctx sdk.Context, caller string) (interface{}, error) {
		return s.app.PoolKeeper.RegisterWorker(ctx, caller, req.Capabilities, req.Location)
	})
}

func (s *Server) handleUpdateCapabilities(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	var caps pooltypes.Capabilities
	if !bindJSON(c, &caps) {
		return
	}
	s.execute(c, "update_capabilities", func(ctx sdk.Context, caller string) (interface{}, error) {
		return s.app.PoolKeeper.UpdateCapabilities(ctx, caller, id, caps)
	})
}

func (s *Server) handleDeactivateWorker(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	s.execute(c, "deactivate_worker", func(ctx sdk.Context, caller string) (interface{}, error) {
		return nil, s.app.PoolKeeper.DeactivateWorker(ctx, caller, id)
	})
}

func (s *Server) handleReactivateWorker(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	s.execute(c, "reactivate_worker", func(ctx sdk.Context, caller string) (interface{}, error) {
		return nil, s.app.PoolKeeper.ReactivateWorker(ctx, caller, id)
	})
}

func (s *Server) handleHeartbeat(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	var perf pooltypes.PerformanceMetrics
	if !bindJSON(c, &perf) {
		return
	}
	s.execute(c, "submit_heartbeat", func(ctx sdk.Context, caller string) (interface{}, error) {
		return nil, s.app.PoolKeeper.SubmitHeartbeat(ctx, caller, id, perf)
	})
}

func (s *Server) handleBanWorker(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	var req ReasonRequest
	if !bindJSON(c, &req) {
		return
	}
	s.execute(c, "ban_worker", func(ctx sdk.Context, caller string) (interface{}, error) {
		return nil, s.app.PoolKeeper.BanWorker(ctx, caller, id, req.Reason)
	})
}

func (s *Server) handleReinstateWorker(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	s.execute(c, "reinstate_worker", func(ctx sdk.Context, caller string) (interface{}, error) {
		return nil, s.app.PoolKeeper.ReinstateWorker(ctx, caller, id)
	})
}

// handleRemoveWorker is the emergency removal path.
func (s *Server) handleRemoveWorker(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	s.execute(c, "remove_worker", func(ctx sdk.Context, caller string) (interface{}, error) {
		return nil, s.app.PoolKeeper.RemoveWorker(ctx, caller, id)
	})
}

func (s *Server) handleSlash(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	var req SlashRequest
	if !bindJSON(c, &req) {
		return
	}
	reason, err := pooltypes.ParseSlashReason(req.Reason)
	if err != nil {
		badRequest(c, "Invalid slash reason", err)
		return
	}
	s.execute(c, "slash", func(ctx sdk.Context, caller string) (interface{}, error) {
		slashed, err := s.app.PoolKeeper.Slash(ctx, caller, id, reason, req.Evidence)
		if err != nil {
			return nil, err
		}
		return gin.H{"worker_id": id, "reason": reason.String(), "slashed": slashed}, nil
	})
}
