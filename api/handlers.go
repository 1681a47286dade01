package api

import (
	"net/http"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"
)

// execute runs fn as one atomic operation on behalf of the authenticated
// caller and writes its result.
func (s *Server) execute(c *gin.Context, operation string, fn func(ctx sdk.Context, caller string) (interface{}, error)) {
	caller := callerFrom(c)

	var result interface{}
	_, err := s.app.Execute(c.Request.Context(), operation, caller, func(ctx sdk.Context) error {
		var err error
		result, err = fn(ctx, caller)
		return err
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: operation,
		Data:    result,
	})
}

// query runs fn against committed state and writes its result.
func (s *Server) query(c *gin.Context, fn func(ctx sdk.Context) (interface{}, error)) {
	var result interface{}
	err := s.app.Query(c.Request.Context(), func(ctx sdk.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func workerIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid worker id", err)
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		badRequest(c, "Invalid request body", err)
		return false
	}
	return true
}
