package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/alejandrodnm/tezfolio/internal/domain"
	"github.com/alejandrodnm/tezfolio/internal/ports"
)

const defaultConfirmations = 1

// Config holds configuration for the portfolio controller.
type Config struct {
	// Confirmations is how many blocks a contract operation must be buried
	// under before the controller treats it as durable.
	Confirmations int
	Policy        domain.RebalancePolicy
}

// Deps are the collaborators the controller drives. Notifier, Reporter and
// Journal are optional.
type Deps struct {
	Wallet    ports.WalletConnector
	Pools     ports.PoolProvider
	Analytics ports.Analytics
	Positions ports.PositionProvider
	Notifier  ports.Notifier
	Reporter  ports.Reporter
	Journal   ports.Journal
}

// Snapshot is a consistent, copied view of the controller state.
type Snapshot struct {
	Stage           domain.Stage
	Owner           string
	PublicKey       string
	ContractAddress string
	Allocation      []domain.AllocationEntry
	Emulation       []domain.EmulationSample
	Summary         *domain.EmulationSummary
	Variants        []domain.Variant
	Position        domain.Position
	Busy            []string
}

// Controller owns the portfolio lifecycle: connection, allocation building,
// analytics requests and the on-chain open/rebalance/close operations.
//
// All state lives behind mu. Blocking calls run with the lock released and
// their results are applied only if the generation they started under is
// still current; any transition that invalidates in-flight work bumps gen.
type Controller struct {
	deps Deps
	cfg  Config

	mu        sync.Mutex
	stage     domain.Stage
	gen       uint64
	session   *domain.Session
	catalog   []domain.Pool
	alloc     *domain.Allocation
	emulation []domain.EmulationSample
	variants  []domain.Variant
	position  domain.Position
	busy      map[string]bool
}

// New creates a disconnected controller.
func New(deps Deps, cfg Config) *Controller {
	if cfg.Confirmations <= 0 {
		cfg.Confirmations = defaultConfirmations
	}
	if cfg.Policy == (domain.RebalancePolicy{}) {
		cfg.Policy = domain.DefaultRebalancePolicy()
	}
	if cfg.Policy.IsDefault() {
		slog.Warn("rebalance policy using built-in defaults",
			"slippage", cfg.Policy.SlippageTolerance,
			"reference_amount_mutez", cfg.Policy.ReferenceAmount,
		)
	}
	return &Controller{
		deps:  deps,
		cfg:   cfg,
		stage: domain.StageDisconnected,
		alloc: domain.NewAllocation(),
		busy:  make(map[string]bool),
	}
}

// Stage returns the current lifecycle stage.
func (c *Controller) Stage() domain.Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Stage:      c.stage,
		Allocation: c.alloc.Entries(),
		Emulation:  append([]domain.EmulationSample(nil), c.emulation...),
		Variants:   append([]domain.Variant(nil), c.variants...),
		Position:   append(domain.Position(nil), c.position...),
	}
	if c.session != nil {
		s.Owner = c.session.Owner
		s.PublicKey = c.session.PublicKey
		s.ContractAddress = c.session.ContractAddress
	}
	if len(c.emulation) > 0 {
		sum := domain.SummarizeEmulation(c.emulation)
		s.Summary = &sum
	}
	for op, on := range c.busy {
		if on {
			s.Busy = append(s.Busy, op)
		}
	}
	sort.Strings(s.Busy)
	return s
}

// Catalog returns the full pool catalog from the last fetch.
func (c *Controller) Catalog() []domain.Pool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Pool(nil), c.catalog...)
}

// AvailablePools returns the catalog pools not yet in the allocation.
func (c *Controller) AvailablePools() []domain.Pool {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Pool, 0, len(c.catalog))
	for _, p := range c.catalog {
		if !c.alloc.Has(p.PoolAddress) {
			out = append(out, p)
		}
	}
	return out
}

// Connect pairs the wallet, then loads the position and the pool catalog.
// The controller only leaves its current state once all three succeed.
func (c *Controller) Connect(ctx context.Context, forcePermissions bool) error {
	const op = "connect"
	if err := c.acquire(op); err != nil {
		return err
	}
	defer c.release(op)

	if c.deps.Wallet == nil {
		return domain.NewOpError(domain.KindConnection, op, domain.ErrWalletNotConnected)
	}
	session, err := c.deps.Wallet.Connect(ctx, forcePermissions)
	if err != nil {
		err = domain.NewOpError(domain.KindConnection, op, err)
		c.notifyError(ctx, "Wallet connection failed", err)
		return err
	}
	if session.Owner == "" {
		err = domain.NewOpError(domain.KindConnection, op, domain.ErrWalletNotConnected)
		c.notifyError(ctx, "Wallet connection failed", err)
		return err
	}

	position, pools, err := c.loadAccount(ctx, session)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.gen++
	c.session = &session
	c.catalog = pools
	c.alloc.Clear()
	c.emulation = nil
	c.variants = nil
	c.position = position
	if position.Empty() {
		c.setStage(domain.StageBuilding)
	} else {
		c.setStage(domain.StageHasPosition)
	}
	c.mu.Unlock()

	slog.Info("wallet connected",
		"owner", session.Owner,
		"contract", session.ContractAddress,
		"pools", len(pools),
		"position_items", len(position),
	)
	return nil
}

// loadAccount fetches the position and the catalog in parallel. Both must
// succeed; the position error wins when both fail.
func (c *Controller) loadAccount(ctx context.Context, session domain.Session) (domain.Position, []domain.Pool, error) {
	var (
		wg                    sync.WaitGroup
		position              domain.Position
		pools                 []domain.Pool
		positionErr, poolsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		position, positionErr = c.deps.Positions.FetchPosition(ctx, session.Owner, session.ContractAddress)
	}()
	go func() {
		defer wg.Done()
		pools, poolsErr = c.deps.Pools.FetchPools(ctx)
	}()
	wg.Wait()

	if positionErr != nil {
		err := domain.NewOpError(domain.KindTransport, "connect", positionErr)
		c.notifyError(ctx, "Portfolio request failed", err)
		return nil, nil, err
	}
	if poolsErr != nil {
		err := domain.NewOpError(domain.KindTransport, "connect", poolsErr)
		c.notifyError(ctx, "Pool catalog request failed", err)
		return nil, nil, err
	}
	logDuplicateSymbols(pools)
	return position, pools, nil
}

// Disconnect drops the session and all derived state. In-flight results
// arriving afterwards are discarded.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.session = nil
	c.catalog = nil
	c.alloc.Clear()
	c.emulation = nil
	c.variants = nil
	c.position = nil
	c.setStage(domain.StageDisconnected)
}

// RefreshCatalog re-fetches the pool catalog without touching the allocation.
func (c *Controller) RefreshCatalog(ctx context.Context) error {
	const op = "refresh_catalog"

	c.mu.Lock()
	if !c.stage.Connected() {
		c.mu.Unlock()
		return domain.NewOpError(domain.KindPrecondition, op, domain.ErrWalletNotConnected)
	}
	if c.busy[op] {
		c.mu.Unlock()
		return domain.NewOpError(domain.KindPrecondition, op, domain.ErrBusy)
	}
	c.busy[op] = true
	gen := c.gen
	c.mu.Unlock()
	defer c.release(op)

	pools, err := c.deps.Pools.FetchPools(ctx)
	if err != nil {
		err = domain.NewOpError(domain.KindTransport, op, err)
		c.notifyError(ctx, "Pool catalog request failed", err)
		return err
	}
	logDuplicateSymbols(pools)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return domain.ErrStaleResult
	}
	c.catalog = pools
	return nil
}

// acquire marks op as in flight, failing if it already is.
func (c *Controller) acquire(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[op] {
		return domain.NewOpError(domain.KindPrecondition, op, domain.ErrBusy)
	}
	c.busy[op] = true
	return nil
}

func (c *Controller) release(op string) {
	c.mu.Lock()
	delete(c.busy, op)
	c.mu.Unlock()
}

// setStage must be called with mu held.
func (c *Controller) setStage(next domain.Stage) {
	if c.stage == next {
		return
	}
	slog.Debug("stage transition", "from", c.stage, "to", next)
	c.stage = next
}

// precondition builds a precondition error for a stage mismatch.
func (c *Controller) precondition(op string, want ...domain.Stage) error {
	if c.stage.InFlight() {
		return domain.NewOpError(domain.KindPrecondition, op, domain.ErrBusy)
	}
	if !c.stage.Connected() {
		return domain.NewOpError(domain.KindPrecondition, op, domain.ErrWalletNotConnected)
	}
	return domain.NewOpError(domain.KindPrecondition, op,
		fmt.Errorf("%w: stage %s, want %v", domain.ErrInvalidTransition, c.stage, want))
}

func logDuplicateSymbols(pools []domain.Pool) {
	if dups := domain.DuplicateSymbols(pools); len(dups) > 0 {
		slog.Warn("catalog has repeated token symbols; contract payloads keep only the last pool per symbol",
			"symbols", dups)
	}
}
