// Package http exposes the tracker operations as a JSON API.
//
// This file implements the builder used by every handler to write JSON
// bodies and the mapping from domain errors to status codes.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"freshlife/internal/auth"
	"freshlife/internal/core"
	"freshlife/internal/log"
)

// Error codes carried in the JSON error body.
const (
	CodeValidation       = "validation"
	CodeNotFound         = "not_found"
	CodePermission       = "permission"
	CodeAlreadyCompleted = "already_completed"
	CodePersistence      = "persistence"
	CodeUnauthenticated  = "unauthenticated"
	CodeUnresolved       = "identity_unresolved"
	CodeBadRequest       = "bad_request"
	CodeRateLimited      = "rate_limited"
	CodeTimeout          = "timeout"
	CodeInternal         = "internal"
)

// ErrorBody is the payload under the "error" key.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		log.WithComponent(log.ComponentHTTP).Error("Failed to encode response", log.FieldError, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"internal","message":"failed to encode response"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

// ErrorResponse creates a standard {"error": {...}} response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(map[string]ErrorBody{"error": {Code: code, Message: message}})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, CodeNotFound, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeInternal, message)
}

// FromError maps a domain or auth error onto a status and error body.
// Persistence failures never leak their cause to the client.
func FromError(err error) *JSONResponseBuilder {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Body(map[string]ErrorBody{"error": {Code: CodeValidation, Message: ve.Error(), Field: ve.Field}})
	case errors.Is(err, core.ErrNotFound):
		return ErrorResponse(http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, core.ErrPermission):
		return ErrorResponse(http.StatusForbidden, CodePermission, err.Error())
	case errors.Is(err, core.ErrAlreadyCompleted):
		return ErrorResponse(http.StatusConflict, CodeAlreadyCompleted, err.Error())
	case errors.Is(err, auth.ErrUnresolved):
		return ErrorResponse(http.StatusServiceUnavailable, CodeUnresolved, auth.ErrUnresolved.Error()).
			Header("Retry-After", "1")
	case errors.Is(err, auth.ErrUnauthenticated):
		return ErrorResponse(http.StatusUnauthorized, CodeUnauthenticated, auth.ErrUnauthenticated.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorResponse(http.StatusGatewayTimeout, CodeTimeout, "request timed out")
	case errors.Is(err, core.ErrPersistence):
		return ErrorResponse(http.StatusInternalServerError, CodePersistence, "failed to reach the data store")
	default:
		return InternalServerError("internal error")
	}
}

// StatusFor returns the status FromError would use for err.
func StatusFor(err error) int {
	return FromError(err).statusCode
}
