package portfolio

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

// AddPool appends a catalog pool to the allocation with an unset weight.
func (c *Controller) AddPool(poolAddress string) error {
	const op = "add_pool"
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != domain.StageBuilding {
		return c.precondition(op, domain.StageBuilding)
	}
	pool, ok := c.catalogPool(poolAddress)
	if !ok {
		return domain.NewOpError(domain.KindPrecondition, op, domain.ErrPoolNotInCatalog)
	}
	return domain.NewOpError(domain.KindPrecondition, op, c.alloc.Add(pool))
}

// RemovePool drops a pool from the allocation. Removing an absent pool is a no-op.
func (c *Controller) RemovePool(poolAddress string) error {
	const op = "remove_pool"
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != domain.StageBuilding {
		return c.precondition(op, domain.StageBuilding)
	}
	c.alloc.Remove(poolAddress)
	return nil
}

// SetWeight sets or clears (nil) the weight of an allocated pool. Values are
// not range-checked.
func (c *Controller) SetWeight(poolAddress string, weight *float64) error {
	const op = "set_weight"
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != domain.StageBuilding {
		return c.precondition(op, domain.StageBuilding)
	}
	return domain.NewOpError(domain.KindPrecondition, op, c.alloc.SetWeight(poolAddress, weight))
}

// Reset discards the allocation and any analytics results and returns to
// Building. Pending analytics responses are dropped when they arrive.
func (c *Controller) Reset() error {
	const op = "reset"
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stage.Resettable() {
		if !c.stage.Connected() {
			return domain.NewOpError(domain.KindPrecondition, op, domain.ErrWalletNotConnected)
		}
		return domain.NewOpError(domain.KindPrecondition, op, domain.ErrInvalidTransition)
	}
	if c.busy[opOpen] {
		return domain.NewOpError(domain.KindPrecondition, op, domain.ErrBusy)
	}

	c.gen++
	c.alloc.Clear()
	c.emulation = nil
	c.variants = nil
	c.setStage(domain.StageBuilding)
	return nil
}

// RequestEmulation asks the analytics service to simulate the current
// allocation. On success the stage becomes EmulationReady.
func (c *Controller) RequestEmulation(ctx context.Context) error {
	const op = "emulate"

	run, err := c.beginAnalytics(op, domain.StageEmulating)
	if err != nil {
		return err
	}

	started := time.Now()
	samples, err := c.deps.Analytics.Emulate(ctx, run.req)
	c.recordAnalytics(ctx, domain.OpEmulate, run.owner, run.req, len(samples), started, err)

	c.mu.Lock()
	if run.gen != c.gen {
		c.mu.Unlock()
		slog.Debug("discarding stale emulation", "samples", len(samples))
		return domain.ErrStaleResult
	}
	if err != nil {
		c.setStage(domain.StageBuilding)
		c.mu.Unlock()
		err = domain.NewOpError(domain.KindTransport, op, err)
		c.notifyError(ctx, "Emulation request failed", err)
		return err
	}
	if len(samples) == 0 {
		c.setStage(domain.StageBuilding)
		c.mu.Unlock()
		c.notifyInfo(ctx, "Emulation", "the analytics service returned no samples for this allocation")
		return nil
	}
	c.emulation = samples
	c.setStage(domain.StageEmulationReady)
	c.mu.Unlock()

	slog.Info("emulation ready", "samples", len(samples))
	if r := c.deps.Reporter; r != nil {
		r.PrintAllocation(run.entries)
		r.PrintEmulation(samples)
	}
	return nil
}

// RequestVariants asks the analytics service for optimized variants of the
// current allocation. An empty answer is not an error: the user gets one
// informational notice and the stage returns to Building.
func (c *Controller) RequestVariants(ctx context.Context) error {
	const op = "optimize"

	run, err := c.beginAnalytics(op, domain.StageOptimizing)
	if err != nil {
		return err
	}

	started := time.Now()
	variants, err := c.deps.Analytics.Optimize(ctx, run.req)
	c.recordAnalytics(ctx, domain.OpOptimize, run.owner, run.req, len(variants), started, err)

	c.mu.Lock()
	if run.gen != c.gen {
		c.mu.Unlock()
		slog.Debug("discarding stale variants", "variants", len(variants))
		return domain.ErrStaleResult
	}
	if err != nil {
		c.setStage(domain.StageBuilding)
		c.mu.Unlock()
		err = domain.NewOpError(domain.KindTransport, op, err)
		c.notifyError(ctx, "Optimization request failed", err)
		return err
	}
	if len(variants) == 0 {
		c.setStage(domain.StageBuilding)
		c.mu.Unlock()
		c.notifyInfo(ctx, "Optimization", "no profitable variants for such tokens")
		return nil
	}
	c.variants = variants
	c.setStage(domain.StageVariantsReady)
	c.mu.Unlock()

	slog.Info("variants ready", "variants", len(variants))
	if r := c.deps.Reporter; r != nil {
		r.PrintAllocation(run.entries)
		r.PrintVariants(variants)
	}
	return nil
}

// analyticsRun is what an analytics request captured when it started.
type analyticsRun struct {
	req     domain.AnalyticsRequest
	entries []domain.AllocationEntry
	gen     uint64
	owner   string
}

// beginAnalytics validates and enters an in-flight analytics stage.
func (c *Controller) beginAnalytics(op string, inflight domain.Stage) (analyticsRun, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != domain.StageBuilding {
		return analyticsRun{}, c.precondition(op, domain.StageBuilding)
	}
	if c.alloc.Len() == 0 {
		return analyticsRun{}, domain.NewOpError(domain.KindPrecondition, op, domain.ErrEmptyAllocation)
	}

	entries := c.alloc.Entries()
	c.setStage(inflight)
	return analyticsRun{
		req:     domain.EncodeAnalyticsRequest(entries),
		entries: entries,
		gen:     c.gen,
		owner:   c.session.Owner,
	}, nil
}

func (c *Controller) recordAnalytics(ctx context.Context, kind domain.OperationKind, owner string, req domain.AnalyticsRequest, n int, started time.Time, err error) {
	payload, _ := json.Marshal(req)
	rec := domain.OperationRecord{
		Kind:        kind,
		Owner:       owner,
		Payload:     string(payload),
		ResultCount: n,
		Success:     err == nil,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	c.record(ctx, rec)
}

// catalogPool must be called with mu held.
func (c *Controller) catalogPool(poolAddress string) (domain.Pool, bool) {
	for _, p := range c.catalog {
		if p.PoolAddress == poolAddress {
			return p, true
		}
	}
	return domain.Pool{}, false
}
