package domain

// Stage es la etapa del ciclo de vida del portfolio. Solo una está activa.
type Stage int

const (
	StageDisconnected   Stage = iota // sin sesión
	StageBuilding                    // conectado, sin posición: el usuario arma la allocation
	StageEmulating                   // request a /emulate en vuelo
	StageEmulationReady              // curva emulada disponible
	StageOptimizing                  // request a /markovitz-optimize en vuelo
	StageVariantsReady               // variantes disponibles
	StageHasPosition                 // posición on-chain no vacía
)

var stageNames = map[Stage]string{
	StageDisconnected:   "disconnected",
	StageBuilding:       "building",
	StageEmulating:      "emulating",
	StageEmulationReady: "emulation_ready",
	StageOptimizing:     "optimizing",
	StageVariantsReady:  "variants_ready",
	StageHasPosition:    "has_position",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return "unknown"
}

// MarshalText permite serializar la etapa por nombre.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Connected indica si hay sesión.
func (s Stage) Connected() bool {
	return s != StageDisconnected
}

// InFlight indica si hay un request de analytics pendiente.
func (s Stage) InFlight() bool {
	return s == StageEmulating || s == StageOptimizing
}

// Resettable indica si "seleccionar otros tokens" está permitido.
func (s Stage) Resettable() bool {
	switch s {
	case StageBuilding, StageEmulating, StageEmulationReady, StageOptimizing, StageVariantsReady:
		return true
	}
	return false
}
