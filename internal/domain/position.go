package domain

import "strconv"

// PositionItem es un activo de la posición on-chain, tal como lo devuelve el indexer.
type PositionItem struct {
	Symbol string
	Asset  string
	Weight string // la API lo devuelve como string ("0.5")
	Token  string // dirección del pool
}

// WeightValue parsea el peso. Devuelve 0 si no es numérico.
func (i PositionItem) WeightValue() float64 {
	w, err := strconv.ParseFloat(i.Weight, 64)
	if err != nil {
		return 0
	}
	return w
}

// Position es la posición confirmada del owner en el contrato.
type Position []PositionItem

// Empty indica si el owner no tiene portfolio.
func (p Position) Empty() bool {
	return len(p) == 0
}

// PositionPools devuelve los pools del catálogo referenciados por la posición,
// en el orden del catálogo.
func PositionPools(catalog []Pool, position Position) []Pool {
	held := make(map[string]bool, len(position))
	for _, item := range position {
		held[item.Token] = true
	}
	var out []Pool
	for _, p := range catalog {
		if held[p.PoolAddress] {
			out = append(out, p)
		}
	}
	return out
}
