package types

import (
	"fmt"

	"cosmossdk.io/math"
)

// Tier is a worker class derived from stake value and reputation.
// Tiers are totally ordered; a higher ordinal is a better tier.
type Tier uint8

const (
	TierBasic Tier = iota
	TierPremium
	TierEnterprise
	TierInfrastructure
	TierFleet
	TierDatacenter
	TierHyperscale
	TierInstitutional
)

// NumTiers is the number of defined tiers.
const NumTiers = int(TierInstitutional) + 1

// AllTiers lists every tier from lowest to highest.
func AllTiers() []Tier {
	return []Tier{
		TierBasic,
		TierPremium,
		TierEnterprise,
		TierInfrastructure,
		TierFleet,
		TierDatacenter,
		TierHyperscale,
		TierInstitutional,
	}
}

func (t Tier) String() string {
	switch t {
	case TierBasic:
		return "basic"
	case TierPremium:
		return "premium"
	case TierEnterprise:
		return "enterprise"
	case TierInfrastructure:
		return "infrastructure"
	case TierFleet:
		return "fleet"
	case TierDatacenter:
		return "datacenter"
	case TierHyperscale:
		return "hyperscale"
	case TierInstitutional:
		return "institutional"
	default:
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
}

// IsValid reports whether t is one of the defined tiers.
func (t Tier) IsValid() bool {
	return int(t) < NumTiers
}

// ParseTier converts a tier name back into a Tier.
func ParseTier(s string) (Tier, error) {
	for _, t := range AllTiers() {
		if t.String() == s {
			return t, nil
		}
	}
	return TierBasic, fmt.Errorf("unknown tier %q", s)
}

// TierBenefit holds the requirements and benefits attached to one tier.
type TierBenefit struct {
	Tier                Tier           `json:"tier"`
	MinUSDValue         math.LegacyDec `json:"min_usd_value"`
	MinReputation       uint32         `json:"min_reputation"`
	AllocationPriority  uint32         `json:"allocation_priority"`
	PerformanceBonusBps uint32         `json:"performance_bonus_bps"`
}

// TierTable is the per-tier benefit configuration, indexed by tier ordinal.
type TierTable []TierBenefit

// DefaultTierTable returns the default benefit table on a 0-1000 reputation scale.
func DefaultTierTable() TierTable {
	return TierTable{
		{Tier: TierBasic, MinUSDValue: math.LegacyZeroDec(), MinReputation: 0, AllocationPriority: 100, PerformanceBonusBps: 0},
		{Tier: TierPremium, MinUSDValue: math.LegacyNewDec(1_000), MinReputation: 600, AllocationPriority: 110, PerformanceBonusBps: 100},
		{Tier: TierEnterprise, MinUSDValue: math.LegacyNewDec(10_000), MinReputation: 650, AllocationPriority: 125, PerformanceBonusBps: 200},
		{Tier: TierInfrastructure, MinUSDValue: math.LegacyNewDec(50_000), MinReputation: 700, AllocationPriority: 150, PerformanceBonusBps: 300},
		{Tier: TierFleet, MinUSDValue: math.LegacyNewDec(100_000), MinReputation: 750, AllocationPriority: 175, PerformanceBonusBps: 400},
		{Tier: TierDatacenter, MinUSDValue: math.LegacyNewDec(250_000), MinReputation: 800, AllocationPriority: 200, PerformanceBonusBps: 500},
		{Tier: TierHyperscale, MinUSDValue: math.LegacyNewDec(1_000_000), MinReputation: 850, AllocationPriority: 250, PerformanceBonusBps: 750},
		{Tier: TierInstitutional, MinUSDValue: math.LegacyNewDec(5_000_000), MinReputation: 900, AllocationPriority: 300, PerformanceBonusBps: 1000},
	}
}

// Benefit returns the benefit row for t. The table must have passed Validate.
func (tt TierTable) Benefit(t Tier) TierBenefit {
	return tt[t]
}

// Validate checks that the table covers every tier in order, that Basic has
// zero thresholds, and that both thresholds never decrease from one tier to the next.
func (tt TierTable) Validate() error {
	if len(tt) != NumTiers {
		return fmt.Errorf("tier table must have %d entries, got %d", NumTiers, len(tt))
	}

	for i, b := range tt {
		if b.Tier != Tier(i) {
			return fmt.Errorf("tier table entry %d is %s, expected %s", i, b.Tier, Tier(i))
		}
		if b.MinUSDValue.IsNil() || b.MinUSDValue.IsNegative() {
			return fmt.Errorf("tier %s: min usd value must be non-negative", b.Tier)
		}
		if b.AllocationPriority == 0 {
			return fmt.Errorf("tier %s: allocation priority must be positive", b.Tier)
		}
		if b.PerformanceBonusBps > 10_000 {
			return fmt.Errorf("tier %s: performance bonus cannot exceed 10000 bps", b.Tier)
		}
		if i == 0 {
			if !b.MinUSDValue.IsZero() || b.MinReputation != 0 {
				return fmt.Errorf("tier %s must have zero thresholds", b.Tier)
			}
			continue
		}

		prev := tt[i-1]
		if b.MinUSDValue.LT(prev.MinUSDValue) {
			return fmt.Errorf("tier %s: min usd value below %s", b.Tier, prev.Tier)
		}
		if b.MinReputation < prev.MinReputation {
			return fmt.Errorf("tier %s: min reputation below %s", b.Tier, prev.Tier)
		}
	}

	return nil
}

// Classify returns the highest tier whose USD threshold and reputation minimum
// are both met, falling back to Basic.
func Classify(tt TierTable, usdValue math.LegacyDec, reputation uint32) Tier {
	if usdValue.IsNil() {
		usdValue = math.LegacyZeroDec()
	}

	for i := len(tt) - 1; i > 0; i-- {
		b := tt[i]
		if usdValue.GTE(b.MinUSDValue) && reputation >= b.MinReputation {
			return b.Tier
		}
	}

	return TierBasic
}
