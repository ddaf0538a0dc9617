package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

const (
	opOpen      = "open"
	opRebalance = "rebalance"
	opClose     = "close"
)

// OpenPosition submits create_portfolio with the current allocation and
// waits for confirmation. Valid from EmulationReady and VariantsReady.
func (c *Controller) OpenPosition(ctx context.Context) error {
	return c.open(ctx, -1)
}

// SelectVariant opens the position with the weights of variant i laid over
// the allocation. Symbols the variant omits keep their weight. A failed
// submission leaves the allocation untouched.
func (c *Controller) SelectVariant(ctx context.Context, i int) error {
	return c.open(ctx, i)
}

func (c *Controller) open(ctx context.Context, variant int) error {
	c.mu.Lock()
	switch {
	case variant >= 0 && c.stage != domain.StageVariantsReady:
		err := c.precondition(opOpen, domain.StageVariantsReady)
		c.mu.Unlock()
		return err
	case c.stage != domain.StageEmulationReady && c.stage != domain.StageVariantsReady:
		err := c.precondition(opOpen, domain.StageEmulationReady, domain.StageVariantsReady)
		c.mu.Unlock()
		return err
	case c.busy[opOpen]:
		c.mu.Unlock()
		return domain.NewOpError(domain.KindPrecondition, opOpen, domain.ErrBusy)
	}
	if variant >= len(c.variants) {
		c.mu.Unlock()
		return domain.NewOpError(domain.KindPrecondition, opOpen,
			fmt.Errorf("%w: %d of %d", domain.ErrUnknownVariant, variant, len(c.variants)))
	}
	// The variant weights go to a copy; the allocation only changes once the
	// portfolio is confirmed, and then it is cleared.
	submitted := c.alloc.Clone()
	if variant >= 0 {
		submitted.ApplyWeights(c.variants[variant].Weights)
	}
	params, err := domain.EncodeOpen(submitted.Entries())
	if err != nil {
		c.mu.Unlock()
		return domain.NewOpError(domain.KindPrecondition, opOpen, err)
	}
	session, err := c.submitSession(opOpen)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.busy[opOpen] = true
	gen := c.gen
	c.mu.Unlock()
	defer c.release(opOpen)

	call := domain.ContractCall{
		Contract:   session.ContractAddress,
		Entrypoint: domain.EntrypointCreatePortfolio,
		Params:     params,
	}
	if _, err := c.submit(ctx, session, call, domain.OpOpen); err != nil {
		err = domain.NewOpError(domain.KindContract, opOpen, err)
		c.notifyError(ctx, "Portfolio creation failed", err)
		return err
	}

	position, fetchErr := c.deps.Positions.FetchPosition(ctx, session.Owner, session.ContractAddress)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		slog.Warn("portfolio opened but the session changed meanwhile; result not applied")
		return nil
	}
	c.gen++
	c.alloc.Clear()
	c.emulation = nil
	c.variants = nil
	if fetchErr != nil {
		c.position = nil
		c.setStage(domain.StageBuilding)
		c.mu.Unlock()
		err := domain.NewOpError(domain.KindTransport, opOpen, fetchErr)
		c.notifyError(ctx, "Portfolio request failed", err)
		return err
	}
	c.position = position
	if position.Empty() {
		slog.Warn("portfolio confirmed but the indexer reports no position yet")
		c.setStage(domain.StageBuilding)
	} else {
		c.setStage(domain.StageHasPosition)
	}
	c.mu.Unlock()

	c.notifyInfo(ctx, "Portfolio created", fmt.Sprintf("%d tokens allocated", len(params.Tokens)))
	return nil
}

// Rebalance submits a rebalance of the current position using the catalog
// prices and the configured policy, then refreshes the position.
func (c *Controller) Rebalance(ctx context.Context) error {
	c.mu.Lock()
	if err := c.beginPositionOp(opRebalance); err != nil {
		c.mu.Unlock()
		return err
	}
	pools := domain.PositionPools(c.catalog, c.position)
	if len(pools) == 0 {
		c.mu.Unlock()
		return domain.NewOpError(domain.KindPrecondition, opRebalance, domain.ErrNoPositionPools)
	}
	session, err := c.submitSession(opRebalance)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	params := domain.EncodeRebalance(pools, c.cfg.Policy)
	c.busy[opRebalance] = true
	gen := c.gen
	c.mu.Unlock()
	defer c.release(opRebalance)

	call := domain.ContractCall{
		Contract:   session.ContractAddress,
		Entrypoint: domain.EntrypointRebalance,
		Params:     params,
	}
	if _, err := c.submit(ctx, session, call, domain.OpRebalance); err != nil {
		err = domain.NewOpError(domain.KindContract, opRebalance, err)
		c.notifyError(ctx, "Rebalance failed", err)
		return err
	}

	position, fetchErr := c.deps.Positions.FetchPosition(ctx, session.Owner, session.ContractAddress)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		slog.Warn("rebalance confirmed but the session changed meanwhile; result not applied")
		return nil
	}
	if fetchErr != nil {
		c.mu.Unlock()
		err := domain.NewOpError(domain.KindTransport, opRebalance, fetchErr)
		c.notifyError(ctx, "Portfolio request failed", err)
		return err
	}
	c.position = position
	if position.Empty() {
		c.gen++
		c.setStage(domain.StageBuilding)
	}
	c.mu.Unlock()

	c.notifyInfo(ctx, "Portfolio rebalanced", fmt.Sprintf("%d pools", len(pools)))
	return nil
}

// ClosePosition withdraws every position pool known to the catalog. Once
// confirmed the controller returns to Building with an empty allocation.
func (c *Controller) ClosePosition(ctx context.Context) error {
	c.mu.Lock()
	if err := c.beginPositionOp(opClose); err != nil {
		c.mu.Unlock()
		return err
	}
	pools := domain.PositionPools(c.catalog, c.position)
	if len(pools) == 0 {
		c.mu.Unlock()
		return domain.NewOpError(domain.KindPrecondition, opClose, domain.ErrNoPositionPools)
	}
	session, err := c.submitSession(opClose)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	params := domain.EncodeClose(pools)
	c.busy[opClose] = true
	gen := c.gen
	c.mu.Unlock()
	defer c.release(opClose)

	call := domain.ContractCall{
		Contract:   session.ContractAddress,
		Entrypoint: domain.EntrypointWithdraw,
		Params:     params,
	}
	if _, err := c.submit(ctx, session, call, domain.OpClose); err != nil {
		err = domain.NewOpError(domain.KindContract, opClose, err)
		c.notifyError(ctx, "Withdraw failed", err)
		return err
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		slog.Warn("withdraw confirmed but the session changed meanwhile; result not applied")
		return nil
	}
	c.gen++
	c.position = nil
	c.alloc.Clear()
	c.emulation = nil
	c.variants = nil
	c.setStage(domain.StageBuilding)
	c.mu.Unlock()

	c.notifyInfo(ctx, "Portfolio closed", fmt.Sprintf("%d pools withdrawn", len(pools)))
	return nil
}

// beginPositionOp checks that a rebalance or close may start. Must be called
// with mu held.
func (c *Controller) beginPositionOp(op string) error {
	if c.stage != domain.StageHasPosition {
		return c.precondition(op, domain.StageHasPosition)
	}
	if c.busy[opRebalance] || c.busy[opClose] {
		return domain.NewOpError(domain.KindPrecondition, op, domain.ErrBusy)
	}
	return nil
}

// submitSession returns a copy of the session for a contract call. Must be
// called with mu held.
func (c *Controller) submitSession(op string) (domain.Session, error) {
	if c.session == nil {
		return domain.Session{}, domain.NewOpError(domain.KindPrecondition, op, domain.ErrWalletNotConnected)
	}
	if c.session.Submitter == nil {
		return domain.Session{}, domain.NewOpError(domain.KindPrecondition, op, domain.ErrNoSubmitter)
	}
	return *c.session, nil
}

// submit sends the call through the session wallet and blocks until it has
// the configured confirmations. Every attempt is journaled.
func (c *Controller) submit(ctx context.Context, session domain.Session, call domain.ContractCall, kind domain.OperationKind) (string, error) {
	started := time.Now()
	payload, _ := json.Marshal(call.Params)

	var hash string
	op, err := session.Submitter.Submit(ctx, call)
	if err == nil {
		hash = op.Hash()
		slog.Info("operation submitted", "kind", kind, "hash", hash, "entrypoint", call.Entrypoint)
		err = op.AwaitConfirmations(ctx, c.cfg.Confirmations)
	}

	rec := domain.OperationRecord{
		Kind:       kind,
		Owner:      session.Owner,
		Contract:   call.Contract,
		OpHash:     hash,
		Payload:    string(payload),
		Success:    err == nil,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
		slog.Error("operation failed", "kind", kind, "hash", hash, "err", err)
	} else {
		slog.Info("operation confirmed", "kind", kind, "hash", hash, "confirmations", c.cfg.Confirmations)
	}
	c.record(ctx, rec)
	return hash, err
}
