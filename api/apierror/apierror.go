package apierror

import (
	"encoding/json"
	"net/http"
)

// Error is a structured API error. Messages are user facing and in Spanish,
// matching the frontend.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// ToJSON renders the error envelope.
func (e *Error) ToJSON() []byte {
	data, _ := json.Marshal(map[string]any{
		"success": false,
		"message": e.Message,
		"error": map[string]string{
			"code":    e.Code,
			"message": e.Message,
		},
	})
	return data
}

func BadRequest(message string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Code: "BAD_REQUEST", Message: message}
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "No autorizado"
	}
	return &Error{StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: message}
}

func Forbidden(message string) *Error {
	if message == "" {
		message = "Acceso denegado"
	}
	return &Error{StatusCode: http.StatusForbidden, Code: "FORBIDDEN", Message: message}
}

func NotFound(message string) *Error {
	if message == "" {
		message = "Recurso no encontrado"
	}
	return &Error{StatusCode: http.StatusNotFound, Code: "NOT_FOUND", Message: message}
}

func Conflict(message string) *Error {
	return &Error{StatusCode: http.StatusConflict, Code: "CONFLICT", Message: message}
}

func InternalError(message string) *Error {
	if message == "" {
		message = "Error interno del servidor"
	}
	return &Error{StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: message}
}

func ServiceUnavailable(message string) *Error {
	if message == "" {
		message = "Servicio no disponible"
	}
	return &Error{StatusCode: http.StatusServiceUnavailable, Code: "SERVICE_UNAVAILABLE", Message: message}
}
