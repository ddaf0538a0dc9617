package server

import (
	"time"

	"github.com/alejandrodnm/tezfolio/internal/application/portfolio"
	"github.com/alejandrodnm/tezfolio/internal/domain"
)

type errorDTO struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type poolDTO struct {
	PoolAddress  string  `json:"pool_address"`
	TokenAddress string  `json:"token_address"`
	TokenSymbol  string  `json:"token_symbol"`
	TokenName    string  `json:"token_name"`
	Standard     string  `json:"standard"`
	TokenID      string  `json:"token_id,omitempty"`
	Decimals     int     `json:"decimals"`
	TezPool      float64 `json:"tez_pool"`
	TokenPool    float64 `json:"token_pool"`
	TezToToken   float64 `json:"tez_to_token"`
	TokenToTez   float64 `json:"token_to_tez"`
	FeeFactor    float64 `json:"fee_factor"`
	LastActivity string  `json:"last_activity,omitempty"`
}

type allocationDTO struct {
	Pool   poolDTO  `json:"pool"`
	Weight *float64 `json:"weight"`
}

type sampleDTO struct {
	Day        string  `json:"day"`
	Evaluation float64 `json:"evaluation"`
	Percent    float64 `json:"percent"`
}

type summaryDTO struct {
	Samples     int     `json:"samples"`
	TotalReturn float64 `json:"total_return"`
	Volatility  float64 `json:"volatility"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

type variantDTO struct {
	Index           int                `json:"index"`
	ProfitRatio     float64            `json:"profit_ratio"`
	VolatilityRatio float64            `json:"volatility_ratio"`
	Weights         map[string]float64 `json:"weights"`
}

type positionDTO struct {
	Symbol string `json:"symbol"`
	Asset  string `json:"asset"`
	Weight string `json:"weight"`
	Token  string `json:"token"`
}

type stateDTO struct {
	Stage           domain.Stage    `json:"stage"`
	Owner           string          `json:"owner,omitempty"`
	PublicKey       string          `json:"public_key,omitempty"`
	ContractAddress string          `json:"contract_address,omitempty"`
	Allocation      []allocationDTO `json:"allocation"`
	Emulation       []sampleDTO     `json:"emulation,omitempty"`
	Summary         *summaryDTO     `json:"summary,omitempty"`
	Variants        []variantDTO    `json:"variants,omitempty"`
	Position        []positionDTO   `json:"position,omitempty"`
	Busy            []string        `json:"busy,omitempty"`
}

type operationDTO struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Owner       string    `json:"owner"`
	Contract    string    `json:"contract,omitempty"`
	OpHash      string    `json:"op_hash,omitempty"`
	Payload     string    `json:"payload"`
	ResultCount int       `json:"result_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

func toPoolDTO(p domain.Pool) poolDTO {
	var lastActivity string
	if !p.LastActivity.IsZero() {
		lastActivity = p.LastActivity.Format(time.DateOnly)
	}
	return poolDTO{
		PoolAddress:  p.PoolAddress,
		TokenAddress: p.TokenAddress,
		TokenSymbol:  p.TokenSymbol,
		TokenName:    p.TokenName,
		Standard:     string(p.Standard),
		TokenID:      p.TokenID,
		Decimals:     p.Decimals,
		TezPool:      p.TezPool,
		TokenPool:    p.TokenPool,
		TezToToken:   p.TezToToken,
		TokenToTez:   p.TokenToTez,
		FeeFactor:    p.FeeFactor,
		LastActivity: lastActivity,
	}
}

func toStateDTO(s portfolio.Snapshot) stateDTO {
	out := stateDTO{
		Stage:           s.Stage,
		Owner:           s.Owner,
		PublicKey:       s.PublicKey,
		ContractAddress: s.ContractAddress,
		Allocation:      make([]allocationDTO, len(s.Allocation)),
		Busy:            s.Busy,
	}
	for i, e := range s.Allocation {
		out.Allocation[i] = allocationDTO{Pool: toPoolDTO(e.Pool), Weight: e.Weight}
	}
	for _, smp := range s.Emulation {
		out.Emulation = append(out.Emulation, sampleDTO{
			Day:        smp.Day.Format(time.DateOnly),
			Evaluation: smp.Evaluation,
			Percent:    smp.Percent(),
		})
	}
	if s.Summary != nil {
		out.Summary = &summaryDTO{
			Samples:     s.Summary.Samples,
			TotalReturn: s.Summary.TotalReturn,
			Volatility:  s.Summary.Volatility,
			MaxDrawdown: s.Summary.MaxDrawdown,
		}
	}
	for i, v := range s.Variants {
		out.Variants = append(out.Variants, variantDTO{
			Index:           i,
			ProfitRatio:     v.ProfitRatio,
			VolatilityRatio: v.VolatilityRatio,
			Weights:         v.Weights,
		})
	}
	for _, p := range s.Position {
		out.Position = append(out.Position, positionDTO(p))
	}
	return out
}

func toOperationDTO(r domain.OperationRecord) operationDTO {
	return operationDTO{
		ID:          r.ID,
		Kind:        string(r.Kind),
		Owner:       r.Owner,
		Contract:    r.Contract,
		OpHash:      r.OpHash,
		Payload:     r.Payload,
		ResultCount: r.ResultCount,
		Success:     r.Success,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}
