package app

import (
	"encoding/json"
	"fmt"
	"os"

	tokentypes "github.com/ciro-network/ciro/x/token/types"
	pooltypes "github.com/ciro-network/ciro/x/workerpool/types"
)

// GenesisState is the daemon's genesis document: the token ledger and the
// worker pool, imported in that order.
type GenesisState struct {
	Token      *tokentypes.GenesisState `json:"token"`
	WorkerPool *pooltypes.GenesisState  `json:"workerpool"`
}

// NewDefaultGenesisState returns an empty ledger and a pool with default params.
func NewDefaultGenesisState() GenesisState {
	return GenesisState{
		Token:      tokentypes.DefaultGenesis(),
		WorkerPool: pooltypes.DefaultGenesis(),
	}
}

// Validate checks both module sections.
func (gs GenesisState) Validate() error {
	if gs.Token == nil {
		return fmt.Errorf("missing %s genesis", tokentypes.ModuleName)
	}
	if gs.WorkerPool == nil {
		return fmt.Errorf("missing %s genesis", pooltypes.ModuleName)
	}
	if err := gs.Token.Validate(); err != nil {
		return fmt.Errorf("%s genesis: %w", tokentypes.ModuleName, err)
	}
	if err := gs.WorkerPool.Validate(); err != nil {
		return fmt.Errorf("%s genesis: %w", pooltypes.ModuleName, err)
	}
	return nil
}

// LoadGenesisFile reads and validates a genesis document from path.
func LoadGenesisFile(path string) (GenesisState, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return GenesisState{}, fmt.Errorf("failed to read genesis file: %w", err)
	}

	var gs GenesisState
	if err := json.Unmarshal(bz, &gs); err != nil {
		return GenesisState{}, fmt.Errorf("failed to parse genesis file: %w", err)
	}
	if err := gs.Validate(); err != nil {
		return GenesisState{}, err
	}
	return gs, nil
}

// WriteGenesisFile writes gs as indented JSON.
func WriteGenesisFile(path string, gs GenesisState) error {
	bz, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal genesis: %w", err)
	}
	return os.WriteFile(path, bz, 0o600)
}
