package keeper

import (
	"context"
	"encoding/binary"
	"encoding/json"

	storetypes "cosmossdk.io/store/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// setJSON stores v under key as JSON.
func (k Keeper) setJSON(ctx context.Context, key []byte, v any) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return types.ErrStorageFailed.Wrapf("marshal: %v", err)
	}
	k.getStore(ctx).Set(key, bz)
	return nil
}

// getJSON loads key into v, reporting whether the key was present.
func (k Keeper) getJSON(ctx context.Context, key []byte, v any) (bool, error) {
	bz := k.getStore(ctx).Get(key)
	if bz == nil {
		return false, nil
	}
	if err := json.Unmarshal(bz, v); err != nil {
		return true, types.ErrStorageFailed.Wrapf("unmarshal: %v", err)
	}
	return true, nil
}

// iterateJSON decodes every value under prefix in key order and passes it to cb.
// Returning true from cb stops iteration.
func iterateJSON[T any](ctx context.Context, k Keeper, prefix []byte, cb func(T) (bool, error)) error {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), prefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var v T
		if err := json.Unmarshal(iterator.Value(), &v); err != nil {
			return types.ErrStorageFailed.Wrapf("unmarshal: %v", err)
		}
		stop, err := cb(v)
		if err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return nil
}

// indexIDs returns the trailing uint64 ids of every key under prefix.
func (k Keeper) indexIDs(ctx context.Context, prefix []byte) []uint64 {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), prefix)
	defer iterator.Close()

	var ids []uint64
	for ; iterator.Valid(); iterator.Next() {
		ids = append(ids, uint64FromKey(iterator.Key()))
	}
	return ids
}

func (k Keeper) getCounter(ctx context.Context, key []byte, start uint64) uint64 {
	bz := k.getStore(ctx).Get(key)
	if bz == nil {
		return start
	}
	return binary.BigEndian.Uint64(bz)
}

func (k Keeper) setCounter(ctx context.Context, key []byte, v uint64) {
	k.getStore(ctx).Set(key, uint64Key(v))
}

// nextID returns the counter under key and advances it.
func (k Keeper) nextID(ctx context.Context, key []byte) uint64 {
	id := k.getCounter(ctx, key, 1)
	k.setCounter(ctx, key, id+1)
	return id
}
