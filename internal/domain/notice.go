package domain

import "time"

// NoticeLevel es la severidad de un aviso al usuario.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice es un aviso descartable que se muestra al usuario.
type Notice struct {
	ID      string      `json:"id"`
	Level   NoticeLevel `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// OperationKind es el tipo de operación registrada en el journal.
type OperationKind string

const (
	OpOpen      OperationKind = "open"
	OpRebalance OperationKind = "rebalance"
	OpClose     OperationKind = "close"
	OpEmulate   OperationKind = "emulate"
	OpOptimize  OperationKind = "optimize"
)

// OperationRecord es una entrada del journal de auditoría.
// El journal nunca se usa para reconstruir el estado del ciclo de vida.
type OperationRecord struct {
	ID          string
	Kind        OperationKind
	Owner       string
	Contract    string
	OpHash      string // vacío para analytics
	Payload     string // JSON del request o de los parámetros
	ResultCount int    // muestras o variantes devueltas
	Success     bool
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}
