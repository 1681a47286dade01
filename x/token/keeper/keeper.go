package keeper

import (
	"context"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/token/types"
)

// Keeper is a single-denomination fungible token ledger with
// allowance-based pulls.
type Keeper struct {
	storeKey  storetypes.StoreKey
	authority string
}

// NewKeeper creates a new token Keeper instance
func NewKeeper(key storetypes.StoreKey, authority string) *Keeper {
	return &Keeper{
		storeKey:  key,
		authority: authority,
	}
}

func (k Keeper) getStore(ctx context.Context) storetypes.KVStore {
	return sdk.UnwrapSDKContext(ctx).KVStore(k.storeKey)
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

func (k Keeper) getInt(ctx context.Context, key []byte) math.Int {
	bz := k.getStore(ctx).Get(key)
	if bz == nil {
		return math.ZeroInt()
	}
	var v math.Int
	if err := v.Unmarshal(bz); err != nil {
		panic(err)
	}
	return v
}

func (k Keeper) setInt(ctx context.Context, key []byte, v math.Int) {
	if v.IsZero() {
		k.getStore(ctx).Delete(key)
		return
	}
	bz, err := v.Marshal()
	if err != nil {
		panic(err)
	}
	k.getStore(ctx).Set(key, bz)
}

// BalanceOf returns account's balance.
func (k Keeper) BalanceOf(ctx context.Context, account string) math.Int {
	return k.getInt(ctx, types.GetBalanceKey(account))
}

// Allowance returns what spender may still pull from owner.
func (k Keeper) Allowance(ctx context.Context, owner, spender string) math.Int {
	return k.getInt(ctx, types.GetAllowanceKey(owner, spender))
}

// TotalSupply returns the amount minted so far.
func (k Keeper) TotalSupply(ctx context.Context) math.Int {
	return k.getInt(ctx, types.SupplyKey)
}

// Approve sets the allowance spender may pull from owner, replacing any
// previous value.
func (k Keeper) Approve(ctx context.Context, owner, spender string, amount math.Int) error {
	if err := types.ValidateAccount(owner); err != nil {
		return err
	}
	if err := types.ValidateAccount(spender); err != nil {
		return err
	}
	if amount.IsNil() || amount.IsNegative() {
		return types.ErrInvalidAmount.Wrap("allowance cannot be negative")
	}

	k.setInt(ctx, types.GetAllowanceKey(owner, spender), amount)
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(types.EventTypeApprove,
		sdk.NewAttribute(types.AttributeKeyOwner, owner),
		sdk.NewAttribute(types.AttributeKeySpender, spender),
		sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
	))
	return nil
}

// Transfer moves amount from sender to recipient.
func (k Keeper) Transfer(ctx context.Context, sender, recipient string, amount math.Int) error {
	if err := types.ValidateAccount(sender); err != nil {
		return err
	}
	if err := types.ValidateAccount(recipient); err != nil {
		return err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrInvalidAmount.Wrap("transfer must be positive")
	}
	return k.move(ctx, sender, recipient, amount)
}

// TransferFrom pulls amount from owner into recipient against the allowance
// owner granted recipient.
func (k Keeper) TransferFrom(ctx context.Context, owner, recipient string, amount math.Int) error {
	if err := types.ValidateAccount(owner); err != nil {
		return err
	}
	if err := types.ValidateAccount(recipient); err != nil {
		return err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrInvalidAmount.Wrap("transfer must be positive")
	}

	allowance := k.Allowance(ctx, owner, recipient)
	if allowance.LT(amount) {
		return types.ErrInsufficientAllowance.Wrapf("allowance %s, requested %s", allowance, amount)
	}
	if err := k.move(ctx, owner, recipient, amount); err != nil {
		return err
	}
	k.setInt(ctx, types.GetAllowanceKey(owner, recipient), allowance.Sub(amount))
	return nil
}

func (k Keeper) move(ctx context.Context, from, to string, amount math.Int) error {
	balance := k.BalanceOf(ctx, from)
	if balance.LT(amount) {
		return types.ErrInsufficientBalance.Wrapf("%s holds %s, needs %s", from, balance, amount)
	}
	k.setInt(ctx, types.GetBalanceKey(from), balance.Sub(amount))
	k.setInt(ctx, types.GetBalanceKey(to), k.BalanceOf(ctx, to).Add(amount))

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(types.EventTypeTransfer,
		sdk.NewAttribute(types.AttributeKeySender, from),
		sdk.NewAttribute(types.AttributeKeyRecipient, to),
		sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
	))
	return nil
}

// Mint credits newly issued tokens to account. Authority only.
func (k Keeper) Mint(ctx context.Context, caller, account string, amount math.Int) error {
	if caller != k.authority {
		return types.ErrUnauthorized.Wrapf("expected %s, got %s", k.authority, caller)
	}
	if err := types.ValidateAccount(account); err != nil {
		return err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrInvalidAmount.Wrap("mint must be positive")
	}

	k.setInt(ctx, types.GetBalanceKey(account), k.BalanceOf(ctx, account).Add(amount))
	k.setInt(ctx, types.SupplyKey, k.TotalSupply(ctx).Add(amount))

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(sdk.NewEvent(types.EventTypeMint,
		sdk.NewAttribute(types.AttributeKeyRecipient, account),
		sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
	))
	k.Logger(ctx).Info("tokens minted", "account", account, "amount", amount.String())
	return nil
}

// InitGenesis loads balances and allowances. Supply is the sum of balances.
func (k Keeper) InitGenesis(ctx context.Context, gs types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return types.ErrInvalidGenesis.Wrap(err.Error())
	}

	supply := math.ZeroInt()
	for _, b := range gs.Balances {
		k.setInt(ctx, types.GetBalanceKey(b.Account), b.Amount)
		supply = supply.Add(b.Amount)
	}
	for _, a := range gs.Allowances {
		k.setInt(ctx, types.GetAllowanceKey(a.Owner, a.Spender), a.Amount)
	}
	k.setInt(ctx, types.SupplyKey, supply)
	return nil
}

// ExportGenesis dumps every non-zero balance and allowance.
func (k Keeper) ExportGenesis(ctx context.Context) *types.GenesisState {
	gs := types.DefaultGenesis()
	store := k.getStore(ctx)

	balances := storetypes.KVStorePrefixIterator(store, types.BalanceKeyPrefix)
	for ; balances.Valid(); balances.Next() {
		var amount math.Int
		if err := amount.Unmarshal(balances.Value()); err != nil {
			panic(err)
		}
		account := string(balances.Key()[len(types.BalanceKeyPrefix):])
		gs.Balances = append(gs.Balances, types.Balance{Account: account, Amount: amount})
	}
	balances.Close()

	allowances := storetypes.KVStorePrefixIterator(store, types.AllowanceKeyPrefix)
	for ; allowances.Valid(); allowances.Next() {
		owner, spender, ok := types.ParseAllowanceKey(allowances.Key())
		if !ok {
			continue
		}
		var amount math.Int
		if err := amount.Unmarshal(allowances.Value()); err != nil {
			panic(err)
		}
		gs.Allowances = append(gs.Allowances, types.Allowance{Owner: owner, Spender: spender, Amount: amount})
	}
	allowances.Close()

	return gs
}
