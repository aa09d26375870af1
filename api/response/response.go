package response

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"casa_subastas/api/apierror"
)

// Response is the envelope of every JSON response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta carries paging information for list endpoints.
type Meta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

func JSON(w http.ResponseWriter, statusCode int, data any) {
	write(w, statusCode, Response{Success: true, Data: data})
}

func JSONWithMeta(w http.ResponseWriter, statusCode int, data any, meta Meta) {
	write(w, statusCode, Response{Success: true, Data: data, Meta: &meta})
}

// Message sends a success envelope with a message alongside the data.
func Message(w http.ResponseWriter, statusCode int, message string, data any) {
	write(w, statusCode, Response{Success: true, Message: message, Data: data})
}

func write(w http.ResponseWriter, statusCode int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// Error sends err as an API error. Anything that is not an *apierror.Error is
// logged and reported as a 500.
func Error(w http.ResponseWriter, err error) {
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		log.Printf("Request error: %v", err)
		apiErr = apierror.InternalError("")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	w.Write(apiErr.ToJSON())
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}
