package analytics

import (
	"encoding/json"
	"fmt"
)

// APIError es un fallo del servicio con el mensaje que se muestra al usuario.
type APIError struct {
	StatusCode int    // 0 si la petición no llegó al servidor
	Message    string // resultado del fallback de tres niveles
	Err        error  // causa de transporte, si la hay
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// validationError es el body de error de validación del servicio (FastAPI).
type validationError struct {
	Detail []struct {
		Loc  []any  `json:"loc"`
		Msg  string `json:"msg"`
		Type string `json:"type"`
	} `json:"detail"`
}

func newNetworkError(err error) *APIError {
	return &APIError{
		Message: errorMessage("", err.Error(), err),
		Err:     err,
	}
}

func newStatusError(status int, body []byte) *APIError {
	transport := fmt.Sprintf("Request failed with status code %d", status)
	return &APIError{
		StatusCode: status,
		Message:    errorMessage(firstValidationMessage(body), transport, string(body)),
	}
}

// firstValidationMessage devuelve detail[0].msg si el body lo trae.
func firstValidationMessage(body []byte) string {
	var v validationError
	if err := json.Unmarshal(body, &v); err != nil || len(v.Detail) == 0 {
		return ""
	}
	return v.Detail[0].Msg
}

// errorMessage aplica el fallback: mensaje de validación, si no el de
// transporte, si no el valor crudo.
func errorMessage(validation, transport string, raw any) string {
	if validation != "" {
		return validation
	}
	if transport != "" {
		return transport
	}
	return fmt.Sprint(raw)
}

// UserMessage devuelve el mensaje para el usuario, sin prefijos de wrapping.
func (e *APIError) UserMessage() string {
	return e.Message
}
