package domain

// contract.go: parámetros de las tres llamadas al contrato de portfolio.
//
// Todos los mapas usan TokenSymbol como clave. Si dos pools comparten símbolo
// el último sobreescribe al anterior (comportamiento documentado, no error).

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Entrypoints del contrato de portfolio.
const (
	EntrypointCreatePortfolio = "create_portfolio"
	EntrypointRebalance       = "rebalance"
	EntrypointWithdraw        = "withdraw"
)

const (
	// DefaultSlippageTolerance y DefaultReferenceAmount son los literales del
	// dApp original. No se derivan de la allocation: son política configurable.
	DefaultSlippageTolerance = int64(5)
	DefaultReferenceAmount   = int64(200_000_000) // mutez (200 tez)

	mutezDecimals = 6
)

// ContractCall es una llamada a un entrypoint del contrato.
// Se envía como una operación batch firmada con una sola llamada.
type ContractCall struct {
	Contract   string `json:"contract"`
	Entrypoint string `json:"entrypoint"`
	Params     any    `json:"params"`
}

// FA2Token direcciona un token FA2 (multi-asset).
type FA2Token struct {
	Address string `json:"address"`
	TokenID string `json:"token_id"`
}

// FA12Token direcciona un token FA1.2. Nunca lleva token_id.
type FA12Token struct {
	Address string `json:"address"`
}

// TokenRecord lleva exactamente uno de FA2 o FA12, según el estándar del pool.
// El contrato rechaza la forma equivocada.
type TokenRecord struct {
	FA2  *FA2Token  `json:"fa2,omitempty"`
	FA12 *FA12Token `json:"fa12,omitempty"`
}

// OpenParams son los parámetros de create_portfolio.
type OpenParams struct {
	Tokens  map[string]TokenRecord `json:"tokens"`
	Weights map[string]float64     `json:"weights"`
}

// RebalanceParams son los parámetros de rebalance.
type RebalanceParams struct {
	Prices   map[string]float64 `json:"prices"`
	Pools    map[string]string  `json:"pools"`
	Slippage int64              `json:"slippage"`
	Amount   int64              `json:"amount"`
}

// WithdrawParams son los parámetros de withdraw.
type WithdrawParams struct {
	Pools map[string]string `json:"pools"`
}

// RebalancePolicy agrupa las constantes de protocolo del rebalance.
type RebalancePolicy struct {
	SlippageTolerance int64
	ReferenceAmount   int64 // mutez
}

// DefaultRebalancePolicy devuelve la política con los valores por defecto.
func DefaultRebalancePolicy() RebalancePolicy {
	return RebalancePolicy{
		SlippageTolerance: DefaultSlippageTolerance,
		ReferenceAmount:   DefaultReferenceAmount,
	}
}

// IsDefault indica si la política usa los literales sin configurar.
func (p RebalancePolicy) IsDefault() bool {
	return p == DefaultRebalancePolicy()
}

// EncodeOpen construye los parámetros de create_portfolio.
// Hace dispatch obligatorio por estándar: sin fallback.
func EncodeOpen(entries []AllocationEntry) (OpenParams, error) {
	params := OpenParams{
		Tokens:  make(map[string]TokenRecord, len(entries)),
		Weights: make(map[string]float64, len(entries)),
	}
	for _, e := range entries {
		rec, err := tokenRecord(e.Pool)
		if err != nil {
			return OpenParams{}, fmt.Errorf("domain.EncodeOpen: %s: %w", e.Pool.TokenSymbol, err)
		}
		params.Tokens[e.Pool.TokenSymbol] = rec
		params.Weights[e.Pool.TokenSymbol] = e.WeightOrZero()
	}
	return params, nil
}

func tokenRecord(p Pool) (TokenRecord, error) {
	switch p.Standard {
	case StandardFA2:
		return TokenRecord{FA2: &FA2Token{Address: p.PoolAddress, TokenID: p.TokenID}}, nil
	case StandardFA12:
		return TokenRecord{FA12: &FA12Token{Address: p.PoolAddress}}, nil
	}
	return TokenRecord{}, fmt.Errorf("%w: %q", ErrUnknownStandard, p.Standard)
}

// EncodeRebalance construye los parámetros de rebalance para los pools de la posición.
func EncodeRebalance(pools []Pool, policy RebalancePolicy) RebalanceParams {
	params := RebalanceParams{
		Prices:   make(map[string]float64, len(pools)),
		Pools:    make(map[string]string, len(pools)),
		Slippage: policy.SlippageTolerance,
		Amount:   policy.ReferenceAmount,
	}
	for _, p := range pools {
		params.Prices[p.TokenSymbol] = p.TezToToken
		params.Pools[p.TokenSymbol] = p.PoolAddress
	}
	return params
}

// EncodeClose construye los parámetros de withdraw.
func EncodeClose(pools []Pool) WithdrawParams {
	params := WithdrawParams{Pools: make(map[string]string, len(pools))}
	for _, p := range pools {
		params.Pools[p.TokenSymbol] = p.PoolAddress
	}
	return params
}

// TezToMutez convierte tez a mutez, truncando por debajo de 1 mutez.
func TezToMutez(tez decimal.Decimal) int64 {
	return tez.Shift(mutezDecimals).IntPart()
}

// MutezToTez convierte mutez a tez.
func MutezToTez(mutez int64) decimal.Decimal {
	return decimal.New(mutez, -mutezDecimals)
}
