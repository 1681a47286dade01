package types

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

// Worker pool sentinel errors with recovery suggestions

var (
	// Validation errors
	ErrInvalidAmount       = errorsmod.Register(ModuleName, 2, "invalid amount")
	ErrInvalidCapabilities = errorsmod.Register(ModuleName, 3, "invalid capability descriptor")
	ErrInvalidScore        = errorsmod.Register(ModuleName, 4, "score out of range")
	ErrInvalidParams       = errorsmod.Register(ModuleName, 5, "invalid parameters")
	ErrInvalidAddress      = errorsmod.Register(ModuleName, 6, "invalid address")
	ErrInvalidRequirements = errorsmod.Register(ModuleName, 7, "invalid job requirements")
	ErrInvalidPrice        = errorsmod.Register(ModuleName, 8, "invalid price")
	ErrInvalidSlashReason  = errorsmod.Register(ModuleName, 9, "invalid slash reason")
	ErrInvalidGenesis      = errorsmod.Register(ModuleName, 10, "invalid genesis state")

	// Authorization errors
	ErrUnauthorized = errorsmod.Register(ModuleName, 20, "unauthorized operation")
	ErrNotOwner     = errorsmod.Register(ModuleName, 21, "caller is not the worker owner")

	// State precondition errors
	ErrWorkerNotFound         = errorsmod.Register(ModuleName, 30, "worker not found")
	ErrWorkerNotActive        = errorsmod.Register(ModuleName, 31, "worker not active")
	ErrWorkerAlreadyExists    = errorsmod.Register(ModuleName, 32, "principal already owns a worker")
	ErrInvalidTransition      = errorsmod.Register(ModuleName, 33, "invalid worker status transition")
	ErrStakeLocked            = errorsmod.Register(ModuleName, 34, "stake is locked")
	ErrNoPendingUnstake       = errorsmod.Register(ModuleName, 35, "no pending unstake request")
	ErrUnstakeNotReady        = errorsmod.Register(ModuleName, 36, "unstake request still in delay period")
	ErrWorkerReserved         = errorsmod.Register(ModuleName, 37, "worker reserved by another job")
	ErrReservationNotFound    = errorsmod.Register(ModuleName, 38, "reservation not found")
	ErrPoolPaused             = errorsmod.Register(ModuleName, 39, "worker pool is paused")
	ErrPoolAlreadyPaused      = errorsmod.Register(ModuleName, 40, "worker pool already paused")
	ErrPoolNotPaused          = errorsmod.Register(ModuleName, 41, "worker pool is not paused")
	ErrStakeRecordNotFound    = errorsmod.Register(ModuleName, 42, "stake record not found")
	ErrReentrancy             = errorsmod.Register(ModuleName, 43, "reentrant call rejected")
	ErrReservationTooLong     = errorsmod.Register(ModuleName, 44, "reservation duration exceeds maximum")
	ErrSlashRecordNotFound    = errorsmod.Register(ModuleName, 45, "slash record not found")
	ErrPriceUnavailable       = errorsmod.Register(ModuleName, 46, "price unavailable")
	ErrMaxWorkersReached      = errorsmod.Register(ModuleName, 47, "maximum worker count reached")
	ErrDelegationNotPermitted = errorsmod.Register(ModuleName, 48, "delegation target cannot accept stake")

	// Resource exhaustion errors
	ErrInsufficientStake     = errorsmod.Register(ModuleName, 60, "insufficient stake")
	ErrNoEligibleWorkers     = errorsmod.Register(ModuleName, 61, "no eligible workers")
	ErrInsufficientAllowance = errorsmod.Register(ModuleName, 62, "insufficient token allowance")
	ErrInsufficientFunds     = errorsmod.Register(ModuleName, 63, "insufficient token balance")
	ErrTransferFailed        = errorsmod.Register(ModuleName, 64, "token transfer failed")

	// Invariant violations
	ErrInvariantViolation = errorsmod.Register(ModuleName, 80, "invariant violation")
	ErrStorageFailed      = errorsmod.Register(ModuleName, 81, "storage operation failed")
)

// Category groups errors by how a caller is expected to react to them.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryValidation
	CategoryAuthorization
	CategoryPrecondition
	CategoryExhaustion
	CategoryInvariant
)

func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryAuthorization:
		return "authorization"
	case CategoryPrecondition:
		return "precondition"
	case CategoryExhaustion:
		return "resource_exhaustion"
	case CategoryInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// CategoryOf maps a module error to its category by registered code range.
func CategoryOf(err error) Category {
	var modErr *errorsmod.Error
	if !errors.As(err, &modErr) || modErr.Codespace() != ModuleName {
		return CategoryUnknown
	}

	code := modErr.ABCICode()
	switch {
	case code < 20:
		return CategoryValidation
	case code < 30:
		return CategoryAuthorization
	case code < 60:
		return CategoryPrecondition
	case code < 80:
		return CategoryExhaustion
	default:
		return CategoryInvariant
	}
}

// RecoverySuggestions provides actionable recovery steps for each error type
var RecoverySuggestions = map[error]string{
	ErrInvalidAmount:       "Amounts must be positive integers in the bond denomination.",
	ErrInvalidCapabilities: "GPU memory, CPU cores and RAM must all be greater than zero.",
	ErrInvalidScore:        "Performance and quality scores must be between 0 and 100.",
	ErrInvalidRequirements: "Job requirements must name positive GPU memory, CPU cores and RAM minimums.",

	ErrUnauthorized: "Operation is reserved to the pool authority. Check the configured authority address.",
	ErrNotOwner:     "Only the principal that registered the worker can perform this operation.",

	ErrWorkerNotActive:     "Reactivate the worker, or wait for an administrator to reinstate it.",
	ErrWorkerAlreadyExists: "Complete a full unstake exit before registering a new worker.",
	ErrStakeLocked:         "Wait until the lock period expires before requesting withdrawal.",
	ErrNoPendingUnstake:    "Submit an unstake request first.",
	ErrUnstakeNotReady:     "Wait for the unstake delay to elapse, then retry.",
	ErrWorkerReserved:      "Release the existing reservation or wait for it to expire.",
	ErrPoolPaused:          "The pool is paused by the authority. Retry after it is unpaused.",

	ErrInsufficientStake:     "Deposit more stake; query params for the minimum worker stake.",
	ErrNoEligibleWorkers:     "Retry later, relax requirements, or cancel the job.",
	ErrInsufficientAllowance: "Approve the pool account on the token ledger for at least the deposit amount.",
}

// GetRecoverySuggestion returns the recovery suggestion for an error
func GetRecoverySuggestion(err error) string {
	for sentinel, suggestion := range RecoverySuggestions {
		if errors.Is(err, sentinel) {
			return suggestion
		}
	}

	return "No recovery suggestion available. Check error message for details."
}
