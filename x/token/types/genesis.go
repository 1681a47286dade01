package types

import (
	"fmt"

	"cosmossdk.io/math"
)

const (
	EventTypeTransfer = "token_transfer"
	EventTypeApprove  = "token_approve"
	EventTypeMint     = "token_mint"

	AttributeKeySender    = "sender"
	AttributeKeyRecipient = "recipient"
	AttributeKeyOwner     = "owner"
	AttributeKeySpender   = "spender"
	AttributeKeyAmount    = "amount"
)

// Balance is one account's holding.
type Balance struct {
	Account string   `json:"account"`
	Amount  math.Int `json:"amount"`
}

// Allowance is what Spender may pull from Owner.
type Allowance struct {
	Owner   string   `json:"owner"`
	Spender string   `json:"spender"`
	Amount  math.Int `json:"amount"`
}

// GenesisState defines the token ledger's genesis state.
type GenesisState struct {
	Balances   []Balance   `json:"balances"`
	Allowances []Allowance `json:"allowances"`
}

// DefaultGenesis returns an empty ledger
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Balances:   []Balance{},
		Allowances: []Allowance{},
	}
}

// Validate performs basic genesis state validation
func (gs GenesisState) Validate() error {
	seen := make(map[string]struct{}, len(gs.Balances))
	for _, b := range gs.Balances {
		if err := ValidateAccount(b.Account); err != nil {
			return err
		}
		if _, dup := seen[b.Account]; dup {
			return fmt.Errorf("duplicate balance for %s", b.Account)
		}
		seen[b.Account] = struct{}{}
		if b.Amount.IsNil() || b.Amount.IsNegative() {
			return fmt.Errorf("balance for %s cannot be negative", b.Account)
		}
	}
	for _, a := range gs.Allowances {
		if err := ValidateAccount(a.Owner); err != nil {
			return err
		}
		if err := ValidateAccount(a.Spender); err != nil {
			return err
		}
		if a.Amount.IsNil() || a.Amount.IsNegative() {
			return fmt.Errorf("allowance %s->%s cannot be negative", a.Owner, a.Spender)
		}
	}
	return nil
}
