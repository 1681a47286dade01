package types

import (
	errorsmod "cosmossdk.io/errors"
)

var (
	ErrInvalidAmount         = errorsmod.Register(ModuleName, 2, "invalid amount")
	ErrInvalidAccount        = errorsmod.Register(ModuleName, 3, "invalid account")
	ErrUnauthorized          = errorsmod.Register(ModuleName, 4, "unauthorized")
	ErrInsufficientBalance   = errorsmod.Register(ModuleName, 5, "insufficient balance")
	ErrInsufficientAllowance = errorsmod.Register(ModuleName, 6, "insufficient allowance")
	ErrInvalidGenesis        = errorsmod.Register(ModuleName, 7, "invalid genesis state")
)

// ValidateAccount checks an account identifier.
func ValidateAccount(account string) error {
	if account == "" {
		return ErrInvalidAccount.Wrap("account cannot be empty")
	}
	if len(account) > MaxAccountLength {
		return ErrInvalidAccount.Wrapf("account exceeds %d bytes", MaxAccountLength)
	}
	return nil
}
