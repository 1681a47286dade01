package api

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"

	pooltypes "github.com/ciro-network/ciro/x/workerpool/types"
)

// handleSetPrice feeds a new price; every stake valuation and tier is refreshed.
func (s *Server) handleSetPrice(c *gin.Context) {
	var req PriceRequest
	if !bindJSON(c, &req) {
		return
	}
	s.execute(c, "set_price", func(ctx sdk.Context, caller string) (interface{}, error) {
		updated, err := s.app.PoolKeeper.SetPrice(ctx, caller, req.Price)
		if err != nil {
			return nil, err
		}
		return gin.H{"price": req.Price, "revalued": updated}, nil
	})
}

func (s *Server) handleRefreshValuations(c *gin.Context) {
	s.execute(c, "refresh_valuations", func(ctx sdk.Context, caller string) (interface{}, error) {
		updated, err := s.app.PoolKeeper.RefreshValuations(ctx, caller)
		if err != nil {
			return nil, err
		}
		return gin.H{"revalued": updated}, nil
	})
}

func (s *Server) handleUpdateParams(c *gin.Context) {
	var params pooltypes.Params
	if !bindJSON(c, &params) {
		return
	}
	s.execute(c, "update_params", func(ctx sdk.Context, caller string) (interface{}, error) {
		return params, s.app.PoolKeeper.UpdateParams(ctx, caller, params)
	})
}

func (s *Server) handlePause(c *gin.Context) {
	var req ReasonRequest
	if !bindJSON(c, &req) {
		return
	}
	s.execute(c, "pause", func(ctx sdk.Context, caller string) (interface{}, error) {
		if err := s.app.PoolKeeper.Pause(ctx, caller, req.Reason); err != nil {
			return nil, err
		}
		return s.app.PoolKeeper.GetPauseState(ctx), nil
	})
}

func (s *Server) handleUnpause(c *gin.Context) {
	s.execute(c, "unpause", func(ctx sdk.Context, caller string) (interface{}, error) {
		return nil, s.app.PoolKeeper.Unpause(ctx, caller)
	})
}

func (s *Server) handleMaintenance(c *gin.Context) {
	s.execute(c, "run_maintenance", func(ctx sdk.Context, caller string) (interface{}, error) {
		return s.app.PoolKeeper.RunMaintenance(ctx, caller)
	})
}

func (s *Server) handleDeactivateStale(c *gin.Context) {
	s.execute(c, "deactivate_stale_workers", func(ctx sdk.Context, caller string) (interface{}, error) {
		ids, err := s.app.PoolKeeper.DeactivateStaleWorkers(ctx, caller)
		if err != nil {
			return nil, err
		}
		return gin.H{"deactivated": ids}, nil
	})
}

func (s *Server) handlePruneReservations(c *gin.Context) {
	s.execute(c, "prune_reservations", func(ctx sdk.Context, _ string) (interface{}, error) {
		pruned, err := s.app.PoolKeeper.PruneExpiredReservations(ctx)
		if err != nil {
			return nil, err
		}
		return gin.H{"pruned": pruned}, nil
	})
}
