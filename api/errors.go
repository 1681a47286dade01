package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ciro-network/ciro/app"
	tokentypes "github.com/ciro-network/ciro/x/token/types"
	pooltypes "github.com/ciro-network/ciro/x/workerpool/types"
)

var notFoundErrors = []error{
	pooltypes.ErrWorkerNotFound,
	pooltypes.ErrReservationNotFound,
	pooltypes.ErrStakeRecordNotFound,
	pooltypes.ErrSlashRecordNotFound,
}

// statusFor maps an operation error onto an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrNotInitialized):
		return http.StatusServiceUnavailable, "NOT_INITIALIZED"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	}
	for _, nf := range notFoundErrors {
		if errors.Is(err, nf) {
			return http.StatusNotFound, "NOT_FOUND"
		}
	}

	switch pooltypes.CategoryOf(err) {
	case pooltypes.CategoryValidation:
		return http.StatusBadRequest, "VALIDATION"
	case pooltypes.CategoryAuthorization:
		return http.StatusForbidden, "UNAUTHORIZED"
	case pooltypes.CategoryPrecondition:
		return http.StatusConflict, "PRECONDITION"
	case pooltypes.CategoryExhaustion:
		return http.StatusUnprocessableEntity, "EXHAUSTED"
	case pooltypes.CategoryInvariant:
		return http.StatusInternalServerError, "INVARIANT"
	}

	// token ledger errors reach the API directly from token routes
	switch {
	case errors.Is(err, tokentypes.ErrInvalidAmount), errors.Is(err, tokentypes.ErrInvalidAccount):
		return http.StatusBadRequest, "VALIDATION"
	case errors.Is(err, tokentypes.ErrUnauthorized):
		return http.StatusForbidden, "UNAUTHORIZED"
	case errors.Is(err, tokentypes.ErrInsufficientBalance), errors.Is(err, tokentypes.ErrInsufficientAllowance):
		return http.StatusUnprocessableEntity, "EXHAUSTED"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Code: code}
	if pooltypes.CategoryOf(err) != pooltypes.CategoryUnknown {
		resp.Details = pooltypes.GetRecoverySuggestion(err)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string, err error) {
	resp := ErrorResponse{Error: msg, Code: "VALIDATION"}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
