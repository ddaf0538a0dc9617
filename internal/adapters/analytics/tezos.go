package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

const (
	poolsPath     = "/pools"
	emulatePath   = "/emulate"
	optimizePath  = "/markovitz-optimize"
	portfolioPath = "/portfolio"
)

// FetchPools implementa ports.PoolProvider.
func (c *Client) FetchPools(ctx context.Context) ([]domain.Pool, error) {
	var raw []poolResponse
	if err := c.get(ctx, poolsPath, nil, &raw); err != nil {
		return nil, fmt.Errorf("analytics.FetchPools: %w", err)
	}
	pools := toDomainPools(raw)
	slog.Debug("analytics: pools fetched", "raw", len(raw), "usable", len(pools))
	return pools, nil
}

// Emulate implementa ports.Analytics.
func (c *Client) Emulate(ctx context.Context, req domain.AnalyticsRequest) ([]domain.EmulationSample, error) {
	var resp emulateResponse
	if err := c.post(ctx, emulatePath, req, &resp); err != nil {
		return nil, fmt.Errorf("analytics.Emulate: %w", err)
	}
	samples, err := toDomainSamples(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("analytics.Emulate: %w", newNetworkError(err))
	}
	return samples, nil
}

// Optimize implementa ports.Analytics.
func (c *Client) Optimize(ctx context.Context, req domain.AnalyticsRequest) ([]domain.Variant, error) {
	var resp optimizeResponse
	if err := c.post(ctx, optimizePath, req, &resp); err != nil {
		return nil, fmt.Errorf("analytics.Optimize: %w", err)
	}
	return toDomainVariants(resp.Result), nil
}

// FetchPosition implementa ports.PositionProvider.
func (c *Client) FetchPosition(ctx context.Context, owner, contractAddress string) (domain.Position, error) {
	q := url.Values{}
	q.Set("owner", owner)
	q.Set("contract_address", contractAddress)

	var resp portfolioResponse
	if err := c.get(ctx, portfolioPath, q, &resp); err != nil {
		return nil, fmt.Errorf("analytics.FetchPosition: %w", err)
	}
	return toDomainPosition(resp.Result), nil
}
