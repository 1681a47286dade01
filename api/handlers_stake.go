package api

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"
)

// handleDeposit pulls the approved amount into the pool for the caller.
func (s *Server) handleDeposit(c *gin.Context) {
	var req DepositRequest
	if !bindJSON(c, &req) {
		return
	}
	lock, err := parseDuration(req.LockPeriod)
	if err != nil {
		badRequest(c, "Invalid lock period", err)
		return
	}

	s.execute(c, "deposit", func(ctx sdk.Context, caller string) (interface{}, error) {
		return s.app.PoolKeeper.Deposit(ctx, caller, req.Amount, lock)
	})
}

func (s *Server) handleRequestWithdrawal(c *gin.Context) {
	var req WithdrawalRequest
	if !bindJSON(c, &req) {
		return
	}
	s.execute(c, "request_withdrawal", func(ctx sdk.Context, caller string) (interface{}, error) {
		return s.app.PoolKeeper.RequestWithdrawal(ctx, caller, req.Amount)
	})
}

func (s *Server) handleFinalizeWithdrawal(c *gin.Context) {
	s.execute(c, "finalize_withdrawal", func(ctx sdk.Context, caller string) (interface{}, error) {
		amount, err := s.app.PoolKeeper.FinalizeWithdrawal(ctx, caller)
		if err != nil {
			return nil, err
		}
		return gin.H{"withdrawn": amount}, nil
	})
}

func (s *Server) handleDelegate(c *gin.Context) {
	var req DelegateRequest
	if !bindJSON(c, &req) {
		return
	}
	s.execute(c, "delegate", func(ctx sdk.Context, caller string) (interface{}, error) {
		return s.app.PoolKeeper.Delegate(ctx, caller, req.WorkerID, req.Amount)
	})
}
