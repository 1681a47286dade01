package keeper

import (
	"context"
	"strconv"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/x/workerpool/types"
)

// CapabilityScore awards fixed points for each hard minimum the worker meets
// and for carrying every preferred feature, capped at MaxCapabilityScore.
func CapabilityScore(caps types.Capabilities, req types.JobRequirements) uint32 {
	var score uint32
	if caps.GPUMemoryMB >= req.MinGPUMemoryMB {
		score += types.CapabilityMatchPoints
	}
	if caps.CPUCores >= req.MinCPUCores {
		score += types.CapabilityMatchPoints
	}
	if caps.RAMMB >= req.MinRAMMB {
		score += types.CapabilityMatchPoints
	}
	if caps.HasFeatures(req.PreferredFeatures) {
		score += types.CapabilityMatchPoints
	}
	if score > types.MaxCapabilityScore {
		score = types.MaxCapabilityScore
	}
	return score
}

// meetsMinimums reports whether every hard requirement is satisfied. Each
// minimum is checked on its own; a surplus in one never offsets a shortfall
// in another.
func meetsMinimums(caps types.Capabilities, req types.JobRequirements) bool {
	return caps.GPUMemoryMB >= req.MinGPUMemoryMB &&
		caps.CPUCores >= req.MinCPUCores &&
		caps.RAMMB >= req.MinRAMMB &&
		caps.HasFeatures(req.RequiredFeatures)
}

type candidate struct {
	worker     types.Worker
	tier       types.Tier
	capability uint32
	final      uint64
}

// better reports whether c outranks other: higher final score first, then
// the lower worker id.
func (c candidate) better(other *candidate) bool {
	if other == nil {
		return true
	}
	if c.final != other.final {
		return c.final > other.final
	}
	return c.worker.ID < other.worker.ID
}

// allocation builds the result for the winning candidate. Confidence is the
// capability score weighted by reputation on a 0-100 scale.
func (c candidate) allocation(req types.AllocationRequest, params types.Params, now time.Time) types.Allocation {
	latency := time.Duration(c.worker.Performance.LatencyMs) * time.Millisecond
	return types.Allocation{
		JobID:               req.JobID,
		WorkerID:            c.worker.ID,
		Owner:               c.worker.Owner,
		Tier:                c.tier,
		CapabilityScore:     c.capability,
		FinalScore:          c.final,
		Confidence:          uint32(uint64(c.capability) * uint64(c.worker.Reputation) / uint64(params.MaxReputation)),
		EstimatedCompletion: now.Add(latency + req.Requirements.ExpectedDuration),
	}
}

// candidateIDs picks the narrowest index that can hold every eligible worker.
func (k Keeper) candidateIDs(ctx context.Context, req types.JobRequirements) []uint64 {
	if req.RequiredFeatures != 0 {
		bits := types.FeatureBits(req.RequiredFeatures)
		return k.WorkerIDsByFeature(ctx, bits[0])
	}
	return k.WorkerIDsByStatus(ctx, types.WorkerStatusActive)
}

// eligible applies the allocation filter to w.
func (k Keeper) eligible(ctx context.Context, w types.Worker, req types.AllocationRequest, params types.Params, now time.Time) (bool, error) {
	if w.Status != types.WorkerStatusActive {
		return false, nil
	}
	if w.StakeAmount.IsNil() || w.StakeAmount.LT(params.MinWorkerStake) {
		return false, nil
	}
	if w.IsStale(now, params.HeartbeatTimeout) {
		return false, nil
	}
	if req.MaxLatency > 0 && w.Performance.LatencyMs > 0 &&
		time.Duration(w.Performance.LatencyMs)*time.Millisecond > req.MaxLatency {
		return false, nil
	}
	if !meetsMinimums(w.Capabilities, req.Requirements) {
		return false, nil
	}

	held, err := k.heldByOther(ctx, w.ID, req.JobID, now)
	if err != nil {
		return false, err
	}
	return !held, nil
}

// rankWorkers scores every eligible worker and returns the best one, or nil.
func (k Keeper) rankWorkers(ctx context.Context, req types.AllocationRequest, params types.Params, price math.LegacyDec, now time.Time) (*candidate, error) {
	var best *candidate
	for _, id := range k.candidateIDs(ctx, req.Requirements) {
		w, found, err := k.GetWorker(ctx, id)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}

		ok, err := k.eligible(ctx, w, req, params, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		tier := types.Classify(params.Tiers, usdValue(w.StakeAmount, price), w.Reputation)
		capability := CapabilityScore(w.Capabilities, req.Requirements)
		c := candidate{
			worker:     w,
			tier:       tier,
			capability: capability,
			final:      uint64(capability) * uint64(params.Tiers.Benefit(tier).AllocationPriority) / 100,
		}
		if c.better(best) {
			best = &c
		}
	}
	return best, nil
}

// Allocate matches a job to the best eligible worker. High and Critical
// priority requests also reserve the worker until the estimated completion.
func (k Keeper) Allocate(ctx context.Context, caller string, req types.AllocationRequest) (types.Allocation, error) {
	if err := req.ValidateBasic(); err != nil {
		return types.Allocation{}, err
	}
	if err := k.CheckNotPaused(ctx); err != nil {
		return types.Allocation{}, err
	}
	if err := k.requireDispatcher(ctx, caller); err != nil {
		return types.Allocation{}, err
	}

	start := time.Now()
	var result types.Allocation
	err := k.executeGuarded(ctx, "allocate", func(ctx sdk.Context) error {
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		now := ctx.BlockTime()

		best, err := k.rankWorkers(ctx, req, params, k.CurrentPrice(ctx), now)
		if err != nil {
			return err
		}
		if best == nil {
			return types.ErrNoEligibleWorkers.Wrapf("job %s", req.JobID)
		}

		result = best.allocation(req, params, now)
		if req.Priority.Reserves() {
			r := types.Reservation{
				WorkerID:  result.WorkerID,
				JobID:     req.JobID,
				CreatedAt: now,
				ExpiresAt: result.EstimatedCompletion,
			}
			if err := k.setReservation(ctx, r); err != nil {
				return err
			}
			result.Reserved = true
		}

		emit(ctx, types.EventTypeWorkerAllocated,
			sdk.NewAttribute(types.AttributeKeyJobID, req.JobID),
			sdk.NewAttribute(types.AttributeKeyWorkerID, strconv.FormatUint(result.WorkerID, 10)),
			sdk.NewAttribute(types.AttributeKeyScore, strconv.FormatUint(best.final, 10)),
			sdk.NewAttribute(types.AttributeKeyNewTier, best.tier.String()),
		)
		return nil
	})

	k.metrics.AllocationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		k.metrics.Allocations.WithLabelValues(allocationOutcome(err)).Inc()
		return types.Allocation{}, err
	}
	k.metrics.Allocations.WithLabelValues("allocated").Inc()
	return result, nil
}

// PreviewAllocation runs the filter and scoring without writing anything.
func (k Keeper) PreviewAllocation(ctx context.Context, req types.AllocationRequest) (types.Allocation, error) {
	if err := req.ValidateBasic(); err != nil {
		return types.Allocation{}, err
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return types.Allocation{}, err
	}

	now := k.now(ctx)
	best, err := k.rankWorkers(ctx, req, params, k.CurrentPrice(ctx), now)
	if err != nil {
		return types.Allocation{}, err
	}
	if best == nil {
		return types.Allocation{}, types.ErrNoEligibleWorkers.Wrapf("job %s", req.JobID)
	}

	return best.allocation(req, params, now), nil
}

func allocationOutcome(err error) string {
	if types.CategoryOf(err) == types.CategoryExhaustion {
		return "no_eligible"
	}
	return "rejected"
}
