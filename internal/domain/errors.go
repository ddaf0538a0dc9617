package domain

import (
	"errors"
	"fmt"
)

var (
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrDuplicatePool      = errors.New("pool already in allocation")
	ErrUnknownPool        = errors.New("pool not in allocation")
	ErrPoolNotInCatalog   = errors.New("pool not in catalog")
	ErrUnknownStandard    = errors.New("unknown token standard")
	ErrEmptyAllocation    = errors.New("allocation is empty")
	ErrInvalidTransition  = errors.New("operation not allowed in current stage")
	ErrBusy               = errors.New("operation already in flight")
	ErrUnknownVariant     = errors.New("variant index out of range")
	ErrNoPositionPools    = errors.New("no catalog pools match the position")
	ErrNoSubmitter        = errors.New("session cannot submit operations")

	// ErrStaleResult indica que el resultado llegó después de que el estado
	// que lo originó dejara de estar activo, y se descartó.
	ErrStaleResult = errors.New("result discarded: state changed while in flight")
)

// ErrorKind clasifica los fallos del ciclo de vida del portfolio.
type ErrorKind int

const (
	// KindConnection: fallo al emparejar la wallet. Reintentable con Connect.
	KindConnection ErrorKind = iota + 1
	// KindTransport: fallo de red o de validación del servicio de analytics.
	KindTransport
	// KindContract: fallo al enviar o confirmar una operación on-chain.
	KindContract
	// KindPrecondition: error de programación del llamador.
	KindPrecondition
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTransport:
		return "transport"
	case KindContract:
		return "contract"
	case KindPrecondition:
		return "precondition"
	}
	return "unknown"
}

// OpError envuelve el error de una operación con su categoría.
type OpError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// NewOpError crea un OpError. Devuelve nil si err es nil.
func NewOpError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Kind: kind, Op: op, Err: err}
}

// KindOf devuelve la categoría del error, o 0 si no es un OpError.
func KindOf(err error) ErrorKind {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return 0
}

// IsKind indica si err es un OpError de la categoría dada.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
