package domain

import "fmt"

// AllocationEntry es un pool seleccionado con su peso opcional (nil = sin definir).
type AllocationEntry struct {
	Pool   Pool
	Weight *float64
}

// WeightOrZero devuelve el peso, o 0 si no está definido.
func (e AllocationEntry) WeightOrZero() float64 {
	if e.Weight == nil {
		return 0
	}
	return *e.Weight
}

// Allocation es la selección en curso del usuario, indexada por PoolAddress.
// Mantiene el orden de inserción para que los requests sean deterministas.
// No valida rangos ni que los pesos sumen 100: eso lo hacen el servicio
// remoto y el contrato.
type Allocation struct {
	entries []AllocationEntry
}

// NewAllocation crea una allocation vacía.
func NewAllocation() *Allocation {
	return &Allocation{}
}

// Add inserta el pool con peso sin definir.
// Falla con ErrDuplicatePool si el PoolAddress ya está presente.
func (a *Allocation) Add(pool Pool) error {
	if a.index(pool.PoolAddress) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicatePool, pool.PoolAddress)
	}
	a.entries = append(a.entries, AllocationEntry{Pool: pool})
	return nil
}

// Remove elimina el pool. Es idempotente: quitar uno ausente no es error.
func (a *Allocation) Remove(poolAddress string) {
	i := a.index(poolAddress)
	if i < 0 {
		return
	}
	a.entries = append(a.entries[:i], a.entries[i+1:]...)
}

// SetWeight sobreescribe el peso del pool. nil deja el peso sin definir.
// Falla con ErrUnknownPool si el pool no está en la allocation.
func (a *Allocation) SetWeight(poolAddress string, weight *float64) error {
	i := a.index(poolAddress)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPool, poolAddress)
	}
	a.entries[i].Weight = copyWeight(weight)
	return nil
}

// ApplyWeights asigna a cada entrada cuyo símbolo está en weights ese peso exacto.
// Las entradas con símbolos ausentes en weights no se tocan.
func (a *Allocation) ApplyWeights(weights map[string]float64) {
	for i := range a.entries {
		if w, ok := weights[a.entries[i].Pool.TokenSymbol]; ok {
			a.entries[i].Weight = &w
		}
	}
}

// Clear elimina todas las entradas.
func (a *Allocation) Clear() {
	a.entries = nil
}

// Has indica si el pool está en la allocation.
func (a *Allocation) Has(poolAddress string) bool {
	return a.index(poolAddress) >= 0
}

// Len devuelve el número de entradas.
func (a *Allocation) Len() int {
	return len(a.entries)
}

// Entries devuelve una copia de las entradas en orden de inserción.
func (a *Allocation) Entries() []AllocationEntry {
	out := make([]AllocationEntry, len(a.entries))
	for i, e := range a.entries {
		out[i] = AllocationEntry{Pool: e.Pool, Weight: copyWeight(e.Weight)}
	}
	return out
}

// Clone devuelve una copia independiente de la allocation.
func (a *Allocation) Clone() *Allocation {
	return &Allocation{entries: a.Entries()}
}

func (a *Allocation) index(poolAddress string) int {
	for i, e := range a.entries {
		if e.Pool.PoolAddress == poolAddress {
			return i
		}
	}
	return -1
}

func copyWeight(w *float64) *float64 {
	if w == nil {
		return nil
	}
	v := *w
	return &v
}
