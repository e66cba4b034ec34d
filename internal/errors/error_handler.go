// Package errors provides error handling and HTTP status code mapping for the
// admin API.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/MyTechPlan/oc-client/internal/repository"
	"go.uber.org/zap"
)

// ErrorCode represents application-specific error codes.
type ErrorCode string

const (
	// General errors
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrorCodeInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrorCodeServiceDown    ErrorCode = "SERVICE_UNAVAILABLE"
	ErrorCodeTimeout        ErrorCode = "TIMEOUT"
	ErrorCodeRateLimited    ErrorCode = "RATE_LIMITED"
	ErrorCodeNotFound       ErrorCode = "NOT_FOUND"

	// Auth errors
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Tenant errors
	ErrorCodeTenantNotFound ErrorCode = "TENANT_NOT_FOUND"

	// File errors
	ErrorCodeFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrorCodeUpdateFailed ErrorCode = "UPDATE_FAILED"
)

// Messages that do not depend on the failing request.
const (
	MessageUnauthorized    = "Unauthorized"
	MessageInvalidPassword = "Invalid password"
	MessageTenantNotFound  = "tenant not found"
	MessageFileNotFound    = "file not found"
	MessageUpdateFailed    = "failed to update file"
)

// ErrorResponse represents the standard error response format.
type ErrorResponse struct {
	Status    string    `json:"status"`
	ErrorCode ErrorCode `json:"error_code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
}

// Handler provides error handling functionality.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a new error handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

// HandleError maps err to a status and code and writes the response.
// Upstream details are logged but not returned to the client.
func (h *Handler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, errorCode := Classify(err)

	message := http.StatusText(statusCode)
	if errorCode == ErrorCodeFileNotFound {
		message = MessageFileNotFound
	}

	if statusCode >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.Error(err),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
			zap.String("path", r.URL.Path),
		)
	}

	h.WriteErrorResponse(w, statusCode, errorCode, message, r.Header.Get("X-Request-ID"))
}

// Classify converts an error to an HTTP status code and application code.
func Classify(err error) (int, ErrorCode) {
	var upErr *repository.UpstreamError

	switch {
	case err == nil:
		return http.StatusOK, ""
	case stderrors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ErrorCodeFileNotFound
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorCodeTimeout
	case stderrors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrorCodeServiceDown
	case stderrors.As(err, &upErr):
		return http.StatusBadGateway, ErrorCodeServiceDown
	default:
		return http.StatusInternalServerError, ErrorCodeInternalError
	}
}

// WriteErrorResponse writes a formatted error response to the HTTP response writer.
func (h *Handler) WriteErrorResponse(w http.ResponseWriter, statusCode int, errorCode ErrorCode, message string, requestID string) {
	h.logger.Warn("HTTP error response",
		zap.Int("status_code", statusCode),
		zap.String("error_code", string(errorCode)),
		zap.String("message", message),
		zap.String("request_id", requestID),
	)

	resp := ErrorResponse{
		Status:    "error",
		ErrorCode: errorCode,
		Message:   message,
		RequestID: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteValidationError writes a validation error response.
func (h *Handler) WriteValidationError(w http.ResponseWriter, message string, requestID string) {
	h.WriteErrorResponse(w, http.StatusBadRequest, ErrorCodeInvalidRequest, message, requestID)
}

// WriteUnauthorized writes the single response used for every authentication failure.
func (h *Handler) WriteUnauthorized(w http.ResponseWriter, requestID string) {
	h.WriteErrorResponse(w, http.StatusUnauthorized, ErrorCodeUnauthorized, MessageUnauthorized, requestID)
}

// WriteTenantNotFound writes a 404 for an unknown tenant id.
func (h *Handler) WriteTenantNotFound(w http.ResponseWriter, requestID string) {
	h.WriteErrorResponse(w, http.StatusNotFound, ErrorCodeTenantNotFound, MessageTenantNotFound, requestID)
}

// WriteFileNotFound writes a 404 for an absent file.
func (h *Handler) WriteFileNotFound(w http.ResponseWriter, requestID string) {
	h.WriteErrorResponse(w, http.StatusNotFound, ErrorCodeFileNotFound, MessageFileNotFound, requestID)
}

// WriteUpdateFailed writes the generic failure for a file write, whatever
// the cause.
func (h *Handler) WriteUpdateFailed(w http.ResponseWriter, requestID string) {
	h.WriteErrorResponse(w, http.StatusInternalServerError, ErrorCodeUpdateFailed, MessageUpdateFailed, requestID)
}

// WriteNotFound writes a 404 for an unknown route.
func (h *Handler) WriteNotFound(w http.ResponseWriter, requestID string) {
	h.WriteErrorResponse(w, http.StatusNotFound, ErrorCodeNotFound, "not found", requestID)
}

// WriteInternalError writes an internal error response.
func (h *Handler) WriteInternalError(w http.ResponseWriter, message string, requestID string) {
	h.WriteErrorResponse(w, http.StatusInternalServerError, ErrorCodeInternalError, message, requestID)
}

// WriteRateLimitedError writes a rate limit exceeded response.
func (h *Handler) WriteRateLimitedError(w http.ResponseWriter, requestID string) {
	h.WriteErrorResponse(w, http.StatusTooManyRequests, ErrorCodeRateLimited, "rate limit exceeded", requestID)
}

// Unauthorized returns an http.Handler that writes WriteUnauthorized, for use
// as a session gate's denial handler.
func (h *Handler) Unauthorized() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.WriteUnauthorized(w, r.Header.Get("X-Request-ID"))
	})
}
