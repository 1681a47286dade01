// Package app provides the worker pool daemon's application runtime.
//
// App owns the durable multistore and both keepers. Every mutating operation
// runs under a single writer lock inside a cache of the committed state; the
// cache is written and committed only when the operation succeeds, so a
// failed call leaves nothing behind. Queries read a throwaway cache and never
// take the writer lock.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	pruningtypes "cosmossdk.io/store/pruning/types"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ciro-network/ciro/app/telemetry"
	tokenkeeper "github.com/ciro-network/ciro/x/token/keeper"
	tokentypes "github.com/ciro-network/ciro/x/token/types"
	poolkeeper "github.com/ciro-network/ciro/x/workerpool/keeper"
	pooltypes "github.com/ciro-network/ciro/x/workerpool/types"
)

const Name = "poold"

// ErrNotInitialized is returned by operations on a store that has no genesis.
var ErrNotInitialized = errors.New("state not initialized: import a genesis first")

// App is the worker pool application.
type App struct {
	mu sync.RWMutex

	logger  log.Logger
	db      dbm.DB
	cms     storetypes.CommitMultiStore
	chainID string

	keys map[string]*storetypes.KVStoreKey

	TokenKeeper *tokenkeeper.Keeper
	PoolKeeper  *poolkeeper.Keeper

	telemetry *telemetry.Provider
	clock     func() time.Time
}

// Option customises an App at construction.
type Option func(*App)

// WithClock overrides the wall clock used as block time.
func WithClock(clock func() time.Time) Option {
	return func(a *App) { a.clock = clock }
}

// WithTelemetry wraps every operation in a span from p.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(a *App) { a.telemetry = p }
}

// WithPriceOracle gives the pool an external price source.
func WithPriceOracle(oracle pooltypes.PriceOracle) Option {
	return func(a *App) {
		a.PoolKeeper = poolkeeper.NewKeeper(a.keys[pooltypes.StoreKey], a.TokenKeeper, oracle, a.PoolKeeper.GetAuthority())
	}
}

// OpenDB opens the state database described by cfg.
func OpenDB(cfg Config) (dbm.DB, error) {
	if cfg.DBBackend == dbm.MemDBBackend {
		return dbm.NewMemDB(), nil
	}
	db, err := dbm.NewDB("state", cfg.DBBackend, cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DBBackend, err)
	}
	return db, nil
}

// New mounts the module stores on db, loads the latest committed version and
// constructs the keepers.
func New(logger log.Logger, db dbm.DB, chainID, authority string, opts ...Option) (*App, error) {
	if err := tokentypes.ValidateAccount(authority); err != nil {
		return nil, fmt.Errorf("invalid authority: %w", err)
	}

	keys := storetypes.NewKVStoreKeys(tokentypes.StoreKey, pooltypes.StoreKey)

	cms := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	cms.SetPruning(pruningtypes.NewPruningOptions(pruningtypes.PruningDefault))
	for _, key := range keys {
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	tokens := tokenkeeper.NewKeeper(keys[tokentypes.StoreKey], authority)
	app := &App{
		logger:      logger.With("module", "app"),
		db:          db,
		cms:         cms,
		chainID:     chainID,
		keys:        keys,
		TokenKeeper: tokens,
		PoolKeeper:  poolkeeper.NewKeeper(keys[pooltypes.StoreKey], tokens, nil, authority),
		clock:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(app)
	}

	if cms.LastCommitID().Version > 0 {
		app.syncGauges(context.Background())
	}

	app.logger.Info("state loaded", "version", cms.LastCommitID().Version, "chain_id", chainID)
	return app, nil
}

// Logger returns the application logger.
func (a *App) Logger() log.Logger {
	return a.logger
}

// Version is the last committed state version; zero before genesis.
func (a *App) Version() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cms.LastCommitID().Version
}

// Initialized reports whether a genesis has been committed.
func (a *App) Initialized() bool {
	return a.Version() > 0
}

// Close releases the database.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.db.Close()
}

func (a *App) newContext(goCtx context.Context, ms storetypes.MultiStore) sdk.Context {
	header := cmtproto.Header{
		ChainID: a.chainID,
		Height:  a.cms.LastCommitID().Version + 1,
		Time:    a.clock(),
	}
	return sdk.NewContext(ms, header, false, a.logger).WithContext(goCtx)
}

// InitChain imports gs into an empty store and commits it as version 1.
func (a *App) InitChain(goCtx context.Context, gs GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cms.LastCommitID().Version > 0 {
		return fmt.Errorf("state already initialized at version %d", a.cms.LastCommitID().Version)
	}

	cache := a.cms.CacheMultiStore()
	ctx := a.newContext(goCtx, cache)
	if err := a.TokenKeeper.InitGenesis(ctx, *gs.Token); err != nil {
		return fmt.Errorf("%s genesis: %w", tokentypes.ModuleName, err)
	}
	if err := a.PoolKeeper.InitGenesis(ctx, *gs.WorkerPool); err != nil {
		return fmt.Errorf("%s genesis: %w", pooltypes.ModuleName, err)
	}
	cache.Write()
	commit := a.cms.Commit()
	a.syncGauges(goCtx)

	a.logger.Info("genesis imported", "version", commit.Version)
	return nil
}

// ExportGenesis snapshots the committed state.
func (a *App) ExportGenesis(goCtx context.Context) (GenesisState, error) {
	var gs GenesisState
	err := a.Query(goCtx, func(ctx sdk.Context) error {
		pool, err := a.PoolKeeper.ExportGenesis(ctx)
		if err != nil {
			return err
		}
		gs = GenesisState{
			Token:      a.TokenKeeper.ExportGenesis(ctx),
			WorkerPool: pool,
		}
		return nil
	})
	return gs, err
}

// Execute runs one mutating operation atomically. fn sees a context whose
// block time is the current wall clock; its writes are committed only when it
// returns nil. The returned events are the ones fn emitted.
func (a *App) Execute(goCtx context.Context, operation, caller string, fn func(ctx sdk.Context) error) (sdk.Events, error) {
	goCtx, op := a.telemetry.StartOperation(goCtx, operation, caller)

	a.mu.Lock()
	events, err := a.execute(goCtx, fn)
	a.mu.Unlock()

	a.telemetry.EndOperation(goCtx, op, err)
	if err != nil {
		a.logger.Debug("operation rejected", "operation", operation, "caller", caller, "err", err)
	}
	return events, err
}

func (a *App) execute(goCtx context.Context, fn func(ctx sdk.Context) error) (sdk.Events, error) {
	if a.cms.LastCommitID().Version == 0 {
		return nil, ErrNotInitialized
	}

	cache := a.cms.CacheMultiStore()
	ctx := a.newContext(goCtx, cache)
	if err := fn(ctx); err != nil {
		return nil, err
	}
	cache.Write()
	a.cms.Commit()
	a.syncGauges(goCtx)
	return ctx.EventManager().Events(), nil
}

// syncGauges refreshes the pool gauges from committed state. Called with mu
// held, or from New before the app is shared.
func (a *App) syncGauges(goCtx context.Context) {
	if err := a.PoolKeeper.SyncWorkerGauges(a.newContext(goCtx, a.cms.CacheMultiStore())); err != nil {
		a.logger.Error("failed to sync worker gauges", "err", err)
	}
}

// Query runs fn against a read-only view of the committed state.
func (a *App) Query(goCtx context.Context, fn func(ctx sdk.Context) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.cms.LastCommitID().Version == 0 {
		return ErrNotInitialized
	}
	return fn(a.newContext(goCtx, a.cms.CacheMultiStore()))
}

// PoolStats reads the pool snapshot from committed state.
func (a *App) PoolStats(goCtx context.Context) (pooltypes.PoolStats, error) {
	var stats pooltypes.PoolStats
	err := a.Query(goCtx, func(ctx sdk.Context) error {
		var err error
		stats, err = a.PoolKeeper.PoolStats(ctx)
		return err
	})
	return stats, err
}

// CheckInvariants runs every pool invariant against committed state.
func (a *App) CheckInvariants(goCtx context.Context) error {
	return a.Query(goCtx, func(ctx sdk.Context) error {
		if msg, broken := poolkeeper.AllInvariants(*a.PoolKeeper)(ctx); broken {
			return errors.New(msg)
		}
		return nil
	})
}
