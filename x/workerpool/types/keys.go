package types

const (
	// ModuleName defines the module name
	ModuleName = "workerpool"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// PoolAccount is the token-ledger account holding staked and reward funds
	PoolAccount = "workerpool_pool"

	// BondDenom is the native staking denomination
	BondDenom = "uciro"

	// PriceAsset is the oracle symbol used for stake valuation
	PriceAsset = "CIRO"

	// BaseUnitsPerToken is the number of BondDenom units in one priced token
	BaseUnitsPerToken int64 = 1_000_000
)
