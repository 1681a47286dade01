package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// GetStoredPrice returns the admin-fed unit price.
func (k Keeper) GetStoredPrice(ctx context.Context) math.LegacyDec {
	bz := k.getStore(ctx).Get(PriceKey)
	if bz == nil {
		return types.DefaultPrice
	}
	price, err := math.LegacyNewDecFromStr(string(bz))
	if err != nil {
		return types.DefaultPrice
	}
	return price
}

func (k Keeper) setStoredPrice(ctx context.Context, price math.LegacyDec) {
	k.getStore(ctx).Set(PriceKey, []byte(price.String()))
}

// CurrentPrice returns the unit price in USD. An attached oracle takes
// precedence when it reports a positive price; otherwise the stored price is used.
func (k Keeper) CurrentPrice(ctx context.Context) math.LegacyDec {
	if k.oracle != nil {
		if price, ok := k.oracle.GetPrice(ctx, types.PriceAsset); ok && !price.IsNil() && price.IsPositive() {
			return price
		}
	}
	return k.GetStoredPrice(ctx)
}

// usdValue converts a base-unit amount into USD at price, which is quoted
// per whole token.
func usdValue(amount math.Int, price math.LegacyDec) math.LegacyDec {
	if amount.IsNil() || price.IsNil() {
		return math.LegacyZeroDec()
	}
	return price.MulInt(amount).QuoInt64(types.BaseUnitsPerToken)
}

// SetPrice records a new admin-fed price and revalues every stake record and
// worker tier against it. Authority only.
func (k Keeper) SetPrice(ctx context.Context, caller string, price math.LegacyDec) (int, error) {
	if err := k.requireAuthority(caller); err != nil {
		return 0, err
	}
	if price.IsNil() || !price.IsPositive() {
		return 0, types.ErrInvalidPrice.Wrap("price must be positive")
	}

	var refreshed int
	err := k.executeGuarded(ctx, "set_price", func(ctx sdk.Context) error {
		k.setStoredPrice(ctx, price)

		n, err := k.refreshAllValuations(ctx)
		if err != nil {
			return err
		}
		refreshed = n

		emit(ctx, types.EventTypePriceUpdated,
			sdk.NewAttribute(types.AttributeKeyPrice, price.String()),
			sdk.NewAttribute(types.AttributeKeyCount, strconv.Itoa(n)),
		)
		return nil
	})
	return refreshed, err
}

// RefreshValuations revalues every stake record at the current price. It is
// the path used when an external oracle moved the price.
func (k Keeper) RefreshValuations(ctx context.Context, caller string) (int, error) {
	if err := k.requireAuthority(caller); err != nil {
		return 0, err
	}

	var refreshed int
	err := k.executeGuarded(ctx, "refresh_valuations", func(ctx sdk.Context) error {
		n, err := k.refreshAllValuations(ctx)
		refreshed = n
		return err
	})
	return refreshed, err
}

// refreshAllValuations recomputes USD value for every stake record and re-tiers
// every worker. Returns the number of stake records touched.
func (k Keeper) refreshAllValuations(ctx context.Context) (int, error) {
	price := k.CurrentPrice(ctx)
	params, err := k.GetParams(ctx)
	if err != nil {
		return 0, err
	}

	var records []types.StakeRecord
	if err := iterateJSON(ctx, k, StakeKeyPrefix, func(rec types.StakeRecord) (bool, error) {
		records = append(records, rec)
		return false, nil
	}); err != nil {
		return 0, err
	}

	for _, rec := range records {
		rec.USDValue = usdValue(rec.Amount, price)
		if err := k.SetStakeRecord(ctx, rec); err != nil {
			return 0, err
		}
	}

	workers, err := k.GetAllWorkers(ctx)
	if err != nil {
		return 0, err
	}
	for _, w := range workers {
		if err := k.refreshWorkerTier(ctx, &w, params, price); err != nil {
			return 0, err
		}
	}

	emit(ctx, types.EventTypeValuationsRefreshed,
		sdk.NewAttribute(types.AttributeKeyPrice, price.String()),
		sdk.NewAttribute(types.AttributeKeyCount, strconv.Itoa(len(records))),
	)
	return len(records), nil
}
