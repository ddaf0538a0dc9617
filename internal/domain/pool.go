package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// TokenStandard es el estándar TZIP del token de un pool.
type TokenStandard string

const (
	StandardFA2  TokenStandard = "fa2"
	StandardFA12 TokenStandard = "fa12"
)

// ParseTokenStandard normaliza el valor "tzips" que devuelve la API.
// No hay fallback: un estándar desconocido es un error.
func ParseTokenStandard(s string) (TokenStandard, error) {
	switch TokenStandard(strings.ToLower(strings.TrimSpace(s))) {
	case StandardFA2:
		return StandardFA2, nil
	case StandardFA12:
		return StandardFA12, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStandard, s)
}

// Pool es un pool de liquidez XTZ/token del catálogo.
// Es inmutable: el catálogo se reemplaza entero en cada fetch.
type Pool struct {
	PoolAddress  string // id único
	TokenAddress string
	TokenSymbol  string
	TokenName    string
	Standard     TokenStandard
	TokenID      string // solo FA2
	Decimals     int

	// --- Métricas de mercado, solo para mostrar ---
	TezPool      float64
	TokenPool    float64
	FeeFactor    float64
	TezToToken   float64 // 0 = desconocido
	TokenToTez   float64
	LastActivity time.Time
}

// Initials devuelve hasta dos letras para el icono del pool.
func (p Pool) Initials() string {
	var letters []rune
	for _, w := range strings.Fields(p.TokenName) {
		if len(letters) == 2 {
			break
		}
		letters = append(letters, firstRune(w))
	}
	if len(letters) == 0 && p.TokenSymbol != "" {
		letters = append(letters, firstRune(p.TokenSymbol))
	}
	return strings.ToUpper(string(letters))
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// DuplicateSymbols devuelve los símbolos que aparecen en más de un pool.
// Los encoders de contrato usan el símbolo como clave y el último gana.
func DuplicateSymbols(pools []Pool) []string {
	seen := make(map[string]int, len(pools))
	var dups []string
	for _, p := range pools {
		seen[p.TokenSymbol]++
		if seen[p.TokenSymbol] == 2 {
			dups = append(dups, p.TokenSymbol)
		}
	}
	return dups
}
