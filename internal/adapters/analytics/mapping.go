package analytics

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

// dayLayouts son los formatos de fecha que devuelve /emulate.
var dayLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func toDomainPool(r poolResponse) (domain.Pool, error) {
	std, err := domain.ParseTokenStandard(r.Tzips)
	if err != nil {
		return domain.Pool{}, err
	}

	p := domain.Pool{
		PoolAddress:  r.PoolAddress,
		TokenAddress: r.TokenAddress,
		TokenSymbol:  r.TokenSymbol,
		TokenName:    r.TokenName,
		Standard:     std,
		TezPool:      r.TezPool,
		TokenPool:    r.TokenPool,
		FeeFactor:    r.FeeFactor,
	}
	if std == domain.StandardFA2 {
		p.TokenID = string(r.TokenID)
	}
	if d, err := strconv.Atoi(string(r.Decimals)); err == nil {
		p.Decimals = d
	}
	if r.TezToToken != nil {
		p.TezToToken = *r.TezToToken
	}
	if r.TokenToTez != nil {
		p.TokenToTez = *r.TokenToTez
	}
	if t, err := parseDay(r.LastActivityTime); err == nil {
		p.LastActivity = t
	}
	return p, nil
}

// toDomainPools convierte el catálogo. Los pools sin dirección o con un
// estándar desconocido se descartan: el contrato no sabría direccionarlos.
func toDomainPools(raw []poolResponse) []domain.Pool {
	pools := make([]domain.Pool, 0, len(raw))
	for _, r := range raw {
		if r.PoolAddress == "" {
			slog.Warn("analytics: skipping pool without address", "symbol", r.TokenSymbol)
			continue
		}
		p, err := toDomainPool(r)
		if err != nil {
			slog.Warn("analytics: skipping pool", "pool", r.PoolAddress, "symbol", r.TokenSymbol, "err", err)
			continue
		}
		pools = append(pools, p)
	}
	return pools
}

func toDomainSamples(items []emulateItem) ([]domain.EmulationSample, error) {
	samples := make([]domain.EmulationSample, len(items))
	for i, it := range items {
		day, err := parseDay(it.Day)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		samples[i] = domain.EmulationSample{Day: day, Evaluation: it.Evaluation}
	}
	return samples, nil
}

func toDomainVariants(items []optimizeItem) []domain.Variant {
	variants := make([]domain.Variant, len(items))
	for i, it := range items {
		weights := it.Weights
		if weights == nil {
			weights = map[string]float64{}
		}
		variants[i] = domain.Variant{
			ProfitRatio:     it.ProfitPercent,
			VolatilityRatio: it.Volatility,
			Weights:         weights,
		}
	}
	return variants
}

func toDomainPosition(items []portfolioItem) domain.Position {
	pos := make(domain.Position, len(items))
	for i, it := range items {
		pos[i] = domain.PositionItem{
			Symbol: it.Symbol,
			Asset:  it.Asset,
			Weight: string(it.Weight),
			Token:  it.Token,
		}
	}
	return pos
}

func parseDay(s string) (time.Time, error) {
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable day %q", s)
}
