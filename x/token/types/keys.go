package types

const (
	// ModuleName defines the module name
	ModuleName = "token"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// Denom is the only denomination the ledger tracks
	Denom = "uciro"

	// MaxAccountLength bounds account identifiers
	MaxAccountLength = 128
)

var (
	BalanceKeyPrefix   = []byte{0x01}
	AllowanceKeyPrefix = []byte{0x02}
	SupplyKey          = []byte{0x03}
)

// GetBalanceKey returns the store key for account's balance
func GetBalanceKey(account string) []byte {
	return append(cloneKey(BalanceKeyPrefix), []byte(account)...)
}

// GetAllowanceKey returns the store key for what spender may pull from owner.
// The owner is length-prefixed so one owner's entries form a contiguous range.
func GetAllowanceKey(owner, spender string) []byte {
	key := cloneKey(AllowanceKeyPrefix)
	key = append(key, byte(len(owner)))
	key = append(key, []byte(owner)...)
	return append(key, []byte(spender)...)
}

// ParseAllowanceKey splits an allowance key back into owner and spender.
func ParseAllowanceKey(key []byte) (owner, spender string, ok bool) {
	rest := key[len(AllowanceKeyPrefix):]
	if len(rest) < 1 {
		return "", "", false
	}
	n := int(rest[0])
	if len(rest) < 1+n {
		return "", "", false
	}
	return string(rest[1 : 1+n]), string(rest[1+n:]), true
}

func cloneKey(prefix []byte) []byte {
	key := make([]byte, len(prefix))
	copy(key, prefix)
	return key
}
