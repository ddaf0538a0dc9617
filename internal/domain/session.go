package domain

import "context"

// Session es la identidad autenticada que devuelve la wallet al conectar.
// No se muta: en un reconnect se reemplaza entera.
type Session struct {
	Owner           string
	PublicKey       string
	ContractAddress string
	Submitter       Submitter
}

// Submitter firma y envía operaciones con la wallet de la sesión.
type Submitter interface {
	// Submit envía la llamada como una operación batch firmada.
	Submit(ctx context.Context, call ContractCall) (Operation, error)
}

// Operation es una operación ya enviada a la red.
type Operation interface {
	// Hash devuelve el hash de la operación.
	Hash() string
	// AwaitConfirmations bloquea hasta n confirmaciones o hasta el primer fallo.
	AwaitConfirmations(ctx context.Context, n int) error
}
