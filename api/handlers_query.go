package api

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"

	pooltypes "github.com/ciro-network/ciro/x/workerpool/types"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

func (s *Server) handlePoolStats(c *gin.Context) {
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.PoolKeeper.PoolStats(ctx)
	})
}

func (s *Server) handleParams(c *gin.Context) {
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.PoolKeeper.GetParams(ctx)
	})
}

func (s *Server) handleTiers(c *gin.Context) {
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.PoolKeeper.TierBenefits(ctx)
	})
}

func (s *Server) handlePrice(c *gin.Context) {
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return gin.H{
			"asset": pooltypes.PriceAsset,
			"price": s.app.PoolKeeper.CurrentPrice(ctx),
		}, nil
	})
}

// handleListWorkers pages through workers, optionally filtered by ?status=.
func (s *Server) handleListWorkers(c *gin.Context) {
	var status *pooltypes.WorkerStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := pooltypes.ParseWorkerStatus(raw)
		if err != nil {
			badRequest(c, "Invalid status", err)
			return
		}
		status = &parsed
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		badRequest(c, "Invalid offset", err)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit <= 0 {
		badRequest(c, "Invalid limit", err)
		return
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		workers, total, err := s.app.PoolKeeper.ListWorkers(ctx, status, offset, limit)
		if err != nil {
			return nil, err
		}
		return WorkerListResponse{Workers: workers, Total: total}, nil
	})
}

func (s *Server) handleGetWorker(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.PoolKeeper.WorkerInfo(ctx, id)
	})
}

func (s *Server) handleWorkerByOwner(c *gin.Context) {
	owner := c.Param("principal")
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.PoolKeeper.WorkerInfoByOwner(ctx, owner)
	})
}

func (s *Server) handleWorkerSlashes(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.PoolKeeper.GetSlashRecordsByWorker(ctx, id)
	})
}

func (s *Server) handleWorkerReservations(c *gin.Context) {
	id, ok := workerIDParam(c)
	if !ok {
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.PoolKeeper.GetReservationsByWorker(ctx, id)
	})
}

func (s *Server) handleGetStake(c *gin.Context) {
	principal := c.Param("principal")
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		rec, found, err := s.app.PoolKeeper.GetStakeRecord(ctx, principal)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, pooltypes.ErrStakeRecordNotFound.Wrap(principal)
		}

		resp := StakeResponse{Stake: rec, Withdrawable: rec.Withdrawable()}
		req, pending, err := s.app.PoolKeeper.GetUnstakeRequest(ctx, principal)
		if err != nil {
			return nil, err
		}
		if pending {
			resp.PendingUnstake = &req
		}
		return resp, nil
	})
}

func (s *Server) handleGetDelegations(c *gin.Context) {
	principal := c.Param("principal")
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.PoolKeeper.GetDelegationsByDelegator(ctx, principal)
	})
}

func (s *Server) handleBalance(c *gin.Context) {
	account := c.Param("account")
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return BalanceResponse{
			Account: account,
			Balance: s.app.TokenKeeper.BalanceOf(ctx, account),
		}, nil
	})
}

// handlePreviewAllocation scores workers for a request without reserving.
func (s *Server) handlePreviewAllocation(c *gin.Context) {
	var req AllocateRequest
	if !bindJSON(c, &req) {
		return
	}
	allocReq, err := req.ToAllocationRequest()
	if err != nil {
		badRequest(c, "Invalid allocation request", err)
		return
	}
	s.query(c, func(ctx sdk.Context) (interface{}, error) {
		return s.app.PoolKeeper.PreviewAllocation(ctx, allocReq)
	})
}
