package types

import (
	"context"

	"cosmossdk.io/math"
)

// TokenLedger is the fungible-token collaborator stake and rewards move through.
type TokenLedger interface {
	// TransferFrom moves amount from owner to recipient using an allowance
	// owner granted to recipient.
	TransferFrom(ctx context.Context, owner, recipient string, amount math.Int) error
	// Transfer moves amount from sender to recipient.
	Transfer(ctx context.Context, sender, recipient string, amount math.Int) error
	BalanceOf(ctx context.Context, account string) math.Int
}

// PriceOracle provides the USD unit price of an asset.
type PriceOracle interface {
	GetPrice(ctx context.Context, asset string) (math.LegacyDec, bool)
}
