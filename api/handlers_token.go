package api

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"
)

// handleApprove sets the caller's allowance; approving the pool account is
// what makes a deposit possible.
func (s *Server) handleApprove(c *gin.Context) {
	var req ApproveRequest
	if !bindJSON(c, &req) {
		return
	}
	s.execute(c, "approve", func(ctx sdk.Context, caller string) (interface{}, error) {
		if err := s.app.TokenKeeper.Approve(ctx, caller, req.Spender, req.Amount); err != nil {
			return nil, err
		}
		return gin.H{"owner": caller, "spender": req.Spender, "allowance": req.Amount}, nil
	})
}

func (s *Server) handleTransfer(c *gin.Context) {
	var req TransferRequest
	if !bindJSON(c, &req) {
		return
	}
	s.execute(c, "transfer", func(ctx sdk.Context, caller string) (interface{}, error) {
		if err := s.app.TokenKeeper.Transfer(ctx, caller, req.Recipient, req.Amount); err != nil {
			return nil, err
		}
		return BalanceResponse{Account: caller, Balance: s.app.TokenKeeper.BalanceOf(ctx, caller)}, nil
	})
}

func (s *Server) handleMint(c *gin.Context) {
	var req MintRequest
	if !bindJSON(c, &req) {
		return
	}
	s.execute(c, "mint", func(ctx sdk.Context, caller string) (interface{}, error) {
		if err := s.app.TokenKeeper.Mint(ctx, caller, req.Account, req.Amount); err != nil {
			return nil, err
		}
		return BalanceResponse{Account: req.Account, Balance: s.app.TokenKeeper.BalanceOf(ctx, req.Account)}, nil
	})
}
