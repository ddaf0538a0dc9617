package analytics

import (
	"bytes"
	"encoding/json"
)

// DTOs raw del servicio. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// flexString acepta un string o un número JSON. El servicio devuelve
// token_id, decimals y weight con cualquiera de las dos formas.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// poolResponse es un item de GET /pools.
type poolResponse struct {
	Endpoint         string     `json:"endpoint"`
	Factory          string     `json:"factory"`
	TokenAddress     string     `json:"token_address"`
	TokenID          flexString `json:"token_id"`
	PoolAddress      string     `json:"pool_address"`
	LastActivityTime string     `json:"lastActivityTime"`
	Tzips            string     `json:"tzips"`
	TokenName        string     `json:"token_name"`
	TokenSymbol      string     `json:"token_symbol"`
	Decimals         flexString `json:"decimals"`
	TezPool          float64    `json:"tez_pool"`
	TokenPool        float64    `json:"token_pool"`
	FeeFactor        float64    `json:"fee_factor"`
	TezToToken       *float64   `json:"tez_to_token_dbg"`
	TokenToTez       *float64   `json:"token_to_tez_dbg"`
}

// emulateResponse es la respuesta de POST /emulate.
type emulateResponse struct {
	Result []emulateItem `json:"result"`
}

type emulateItem struct {
	Day        string  `json:"day"`
	Evaluation float64 `json:"evaluation"`
}

// optimizeResponse es la respuesta de POST /markovitz-optimize.
type optimizeResponse struct {
	Result []optimizeItem `json:"result"`
}

type optimizeItem struct {
	ProfitPercent float64            `json:"profit_percent"`
	Volatility    float64            `json:"volatility"`
	Weights       map[string]float64 `json:"weights"`
}

// portfolioResponse es la respuesta de GET /portfolio.
type portfolioResponse struct {
	Result []portfolioItem `json:"result"`
}

type portfolioItem struct {
	Symbol string     `json:"symbol"`
	Asset  string     `json:"asset"`
	Weight flexString `json:"weight"`
	Token  string     `json:"token"`
}
