package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// GetParams returns the current module parameters, falling back to defaults
// when none have been stored yet.
func (k Keeper) GetParams(ctx context.Context) (types.Params, error) {
	var params types.Params
	found, err := k.getJSON(ctx, ParamsKey, &params)
	if err != nil {
		return types.Params{}, err
	}
	if !found {
		return types.DefaultParams(), nil
	}
	return params, nil
}

// SetParams validates and stores params
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return types.ErrInvalidParams.Wrap(err.Error())
	}
	return k.setJSON(ctx, ParamsKey, params)
}

// UpdateParams replaces the module parameters. Authority only. Worker tiers
// are re-derived because the tier table may have changed.
func (k Keeper) UpdateParams(ctx context.Context, caller string, params types.Params) error {
	if err := k.requireAuthority(caller); err != nil {
		return err
	}

	return k.executeAtomic(ctx, func(ctx sdk.Context) error {
		if err := k.SetParams(ctx, params); err != nil {
			return err
		}
		if _, err := k.refreshAllValuations(ctx); err != nil {
			return err
		}

		emit(ctx, types.EventTypeParamsUpdated, sdk.NewAttribute(types.AttributeKeyAuthority, caller))
		k.Logger(ctx).Info("workerpool params updated", "authority", caller)
		return nil
	})
}
