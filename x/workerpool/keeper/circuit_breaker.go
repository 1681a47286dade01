package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// GetPauseState returns the current pause switch.
func (k Keeper) GetPauseState(ctx context.Context) types.PauseState {
	var state types.PauseState
	if _, err := k.getJSON(ctx, PauseStateKey, &state); err != nil {
		// An unreadable switch is treated as paused.
		return types.PauseState{Paused: true, Reason: "pause state unreadable"}
	}
	return state
}

// IsPaused checks if the pool is paused
func (k Keeper) IsPaused(ctx context.Context) bool {
	return k.GetPauseState(ctx).Paused
}

// CheckNotPaused returns ErrPoolPaused while the pool is paused.
func (k Keeper) CheckNotPaused(ctx context.Context) error {
	state := k.GetPauseState(ctx)
	if state.Paused {
		return types.ErrPoolPaused.Wrapf("paused by %s: %s", state.PausedBy, state.Reason)
	}
	return nil
}

// Pause halts every mutating operation except slashing and unpause.
func (k Keeper) Pause(ctx context.Context, caller, reason string) error {
	if err := k.requireAuthority(caller); err != nil {
		return err
	}
	if k.IsPaused(ctx) {
		return types.ErrPoolAlreadyPaused
	}

	return k.executeAtomic(ctx, func(ctx sdk.Context) error {
		state := types.PauseState{
			Paused:   true,
			Reason:   reason,
			PausedBy: caller,
			PausedAt: ctx.BlockTime(),
		}
		if err := k.setJSON(ctx, PauseStateKey, state); err != nil {
			return err
		}

		emit(ctx, types.EventTypePoolPaused,
			sdk.NewAttribute(types.AttributeKeyAuthority, caller),
			sdk.NewAttribute(types.AttributeKeyReason, reason),
		)
		k.metrics.PauseToggles.WithLabelValues("pause").Inc()
		k.Logger(ctx).Warn("worker pool paused", "authority", caller, "reason", reason)
		return nil
	})
}

// Unpause resumes normal operation.
func (k Keeper) Unpause(ctx context.Context, caller string) error {
	if err := k.requireAuthority(caller); err != nil {
		return err
	}
	if !k.IsPaused(ctx) {
		return types.ErrPoolNotPaused
	}

	return k.executeAtomic(ctx, func(ctx sdk.Context) error {
		k.getStore(ctx).Delete(PauseStateKey)

		emit(ctx, types.EventTypePoolUnpaused, sdk.NewAttribute(types.AttributeKeyAuthority, caller))
		k.metrics.PauseToggles.WithLabelValues("unpause").Inc()
		k.Logger(ctx).Info("worker pool unpaused", "authority", caller)
		return nil
	})
}
