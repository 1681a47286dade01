package types

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
)

// DefaultPrice is the unit price in USD used until the first price update.
var DefaultPrice = math.LegacyNewDecWithPrec(50, 2)

// PauseState records whether the pool is paused and why.
type PauseState struct {
	Paused   bool      `json:"paused"`
	Reason   string    `json:"reason,omitempty"`
	PausedBy string    `json:"paused_by,omitempty"`
	PausedAt time.Time `json:"paused_at,omitempty"`
}

// GenesisState defines the workerpool module's genesis state.
type GenesisState struct {
	Params          Params             `json:"params"`
	Price           math.LegacyDec     `json:"price"`
	Workers         []Worker           `json:"workers"`
	Stakes          []StakeRecord      `json:"stakes"`
	UnstakeRequests []UnstakeRequest   `json:"unstake_requests"`
	Delegations     []Delegation       `json:"delegations"`
	Reservations    []Reservation      `json:"reservations"`
	SlashRecords    []SlashRecord      `json:"slash_records"`
	ExitRecords     []WorkerExitRecord `json:"exit_records"`
	PoolTotals      PoolTotals         `json:"pool_totals"`
	PauseState      PauseState         `json:"pause_state"`
	NextWorkerID    uint64             `json:"next_worker_id"`
	NextSlashID     uint64             `json:"next_slash_id"`
}

// DefaultGenesis returns the default genesis state
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params:          DefaultParams(),
		Price:           DefaultPrice,
		Workers:         []Worker{},
		Stakes:          []StakeRecord{},
		UnstakeRequests: []UnstakeRequest{},
		Delegations:     []Delegation{},
		Reservations:    []Reservation{},
		SlashRecords:    []SlashRecord{},
		ExitRecords:     []WorkerExitRecord{},
		PoolTotals:      NewPoolTotals(),
		NextWorkerID:    1,
		NextSlashID:     1,
	}
}

// Validate performs basic genesis state validation
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	if gs.Price.IsNil() || !gs.Price.IsPositive() {
		return fmt.Errorf("price must be positive")
	}
	if gs.NextWorkerID == 0 || gs.NextSlashID == 0 {
		return fmt.Errorf("next ids must start at 1")
	}

	stakeSum := math.ZeroInt()
	principals := make(map[string]struct{}, len(gs.Stakes))
	for _, s := range gs.Stakes {
		if err := ValidatePrincipal(s.Principal); err != nil {
			return fmt.Errorf("invalid stake record: %w", err)
		}
		if _, dup := principals[s.Principal]; dup {
			return fmt.Errorf("duplicate stake record for %s", s.Principal)
		}
		principals[s.Principal] = struct{}{}
		if s.Amount.IsNil() || s.Amount.IsNegative() {
			return fmt.Errorf("stake for %s cannot be negative", s.Principal)
		}
		stakeSum = stakeSum.Add(s.Amount)
	}

	workerIDs := make(map[uint64]struct{}, len(gs.Workers))
	owners := make(map[string]struct{}, len(gs.Workers))
	for _, w := range gs.Workers {
		if w.ID == 0 || w.ID >= gs.NextWorkerID {
			return fmt.Errorf("worker id %d outside allocated range", w.ID)
		}
		if _, dup := workerIDs[w.ID]; dup {
			return fmt.Errorf("duplicate worker id %d", w.ID)
		}
		workerIDs[w.ID] = struct{}{}
		if _, dup := owners[w.Owner]; dup {
			return fmt.Errorf("principal %s owns more than one worker", w.Owner)
		}
		owners[w.Owner] = struct{}{}
		if _, ok := principals[w.Owner]; !ok {
			return fmt.Errorf("worker %d owner %s has no stake record", w.ID, w.Owner)
		}
		if !w.Status.IsValid() {
			return fmt.Errorf("worker %d has invalid status %d", w.ID, w.Status)
		}
		if w.Reputation > gs.Params.MaxReputation {
			return fmt.Errorf("worker %d reputation exceeds max", w.ID)
		}
		if err := w.Capabilities.Validate(); err != nil {
			return fmt.Errorf("worker %d: %w", w.ID, err)
		}
	}

	for _, req := range gs.UnstakeRequests {
		if _, ok := principals[req.Principal]; !ok {
			return fmt.Errorf("unstake request for unknown principal %s", req.Principal)
		}
	}

	for _, d := range gs.Delegations {
		if _, ok := workerIDs[d.WorkerID]; !ok {
			return fmt.Errorf("delegation to unknown worker %d", d.WorkerID)
		}
	}

	for _, r := range gs.Reservations {
		if _, ok := workerIDs[r.WorkerID]; !ok {
			return fmt.Errorf("reservation for unknown worker %d", r.WorkerID)
		}
		if err := ValidateJobID(r.JobID); err != nil {
			return err
		}
	}

	for _, rec := range gs.SlashRecords {
		if rec.ID == 0 || rec.ID >= gs.NextSlashID {
			return fmt.Errorf("slash record id %d outside allocated range", rec.ID)
		}
	}

	if !stakeSum.Equal(gs.PoolTotals.ExpectedStake()) {
		return fmt.Errorf("stake sum %s does not match pool totals %s", stakeSum, gs.PoolTotals.ExpectedStake())
	}

	return nil
}
