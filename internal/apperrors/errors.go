package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind es el identificador legible por máquina de cada categoría de error.
// Los clientes usan este valor, no el código HTTP, para decidir qué hacer.
type Kind string

const (
	KindValidation      Kind = "validation_error"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindAlreadyResolved Kind = "already_resolved"
	KindSessionExpired  Kind = "session_expired"
	KindSessionEnded    Kind = "session_ended"
	KindUnauthenticated Kind = "unauthenticated"
	KindTransient       Kind = "transient"
)

// Error es un error de dominio con categoría explícita.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation: input malformado o incompleto. El cliente debe corregir y reenviar.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound: id o token desconocido.
func NotFound(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", resource, id)}
}

// Forbidden: autenticado pero no es participante de la sesión.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// AlreadyResolved: la solicitud ya fue aceptada o rechazada.
func AlreadyResolved(id string) *Error {
	return &Error{Kind: KindAlreadyResolved, Message: fmt.Sprintf("request already resolved: %s", id)}
}

// SessionExpired: la sesión de tracking superó su duración configurada.
func SessionExpired() *Error {
	return &Error{Kind: KindSessionExpired, Message: "tracking session expired"}
}

// SessionEnded: la sesión fue detenida explícitamente.
func SessionEnded() *Error {
	return &Error{Kind: KindSessionEnded, Message: "session ended"}
}

// Unauthenticated: credencial ausente o inválida.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Transient: fallo de infraestructura (DB, red). El cliente puede reintentar.
func Transient(cause error) *Error {
	return &Error{Kind: KindTransient, Message: "storage failure", Cause: cause}
}

// KindOf extrae la categoría de un error. Errores no tipados se tratan
// como transitorios: nunca exponemos detalles internos al cliente.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindTransient
}

// StatusCode mapea cada categoría a su código HTTP.
// validation usa 422 (convención del resto de la API), expired/ended usan 410.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return fiber.StatusUnprocessableEntity
	case KindNotFound:
		return fiber.StatusNotFound
	case KindForbidden:
		return fiber.StatusForbidden
	case KindAlreadyResolved:
		return fiber.StatusConflict
	case KindSessionExpired, KindSessionEnded:
		return fiber.StatusGone
	case KindUnauthenticated:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// Is permite comparar por categoría con errors.Is usando errores centinela.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}
