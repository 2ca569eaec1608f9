// Package errors defines the application error taxonomy. Every failure
// crossing a component boundary is one of these types; handlers map the
// type to an HTTP status and never leak internal detail to the client.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an application error.
type ErrorType string

const (
	// ErrorTypeInput marks a missing or malformed request parameter.
	ErrorTypeInput ErrorType = "input_error"
	// ErrorTypeAuth marks a missing, unknown, or unauthorized session.
	ErrorTypeAuth ErrorType = "auth_error"
	// ErrorTypeUpstream marks a failure reported by the CDR repository
	// server, including filter execution failures.
	ErrorTypeUpstream ErrorType = "upstream_error"
	// ErrorTypeInfrastructure marks a database or filesystem failure.
	ErrorTypeInfrastructure ErrorType = "infrastructure_error"
	// ErrorTypeMisuse marks an internal programming error, such as
	// mutating a frozen query.
	ErrorTypeMisuse ErrorType = "misuse_error"
)

// AppError carries the classification plus a user-presentable message
// and an internal detail string for the logs.
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func newError(t ErrorType, code int, message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{Type: t, Message: message, Code: code, Details: detail}
}

// NewInputError creates an input error (HTTP 400).
func NewInputError(message string, details ...string) *AppError {
	return newError(ErrorTypeInput, http.StatusBadRequest, message, details...)
}

// NewAuthError creates an authentication error (HTTP 401).
func NewAuthError(message string, details ...string) *AppError {
	return newError(ErrorTypeAuth, http.StatusUnauthorized, message, details...)
}

// NewForbiddenError creates an authorization error (HTTP 403).
func NewForbiddenError(message string, details ...string) *AppError {
	return newError(ErrorTypeAuth, http.StatusForbidden, message, details...)
}

// NewUpstreamError lifts an error string from the legacy repository
// contract into a typed error (HTTP 502).
func NewUpstreamError(message string, details ...string) *AppError {
	return newError(ErrorTypeUpstream, http.StatusBadGateway, message, details...)
}

// NewFilterError reports a filter-pipeline failure with the server's
// diagnostic string.
func NewFilterError(diagnostic string) *AppError {
	return newError(ErrorTypeUpstream, http.StatusBadGateway, "filter execution failed", diagnostic)
}

// NewInfrastructureError creates a database/filesystem error (HTTP 500).
func NewInfrastructureError(message string, details ...string) *AppError {
	return newError(ErrorTypeInfrastructure, http.StatusInternalServerError, message, details...)
}

// NewMisuseError creates an internal programming error (HTTP 500).
func NewMisuseError(message string, details ...string) *AppError {
	return newError(ErrorTypeMisuse, http.StatusInternalServerError, message, details...)
}

// GetAppError extracts an AppError from an error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsAppError checks whether the error chain contains an AppError.
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

func isType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

func IsInputError(err error) bool          { return isType(err, ErrorTypeInput) }
func IsAuthError(err error) bool           { return isType(err, ErrorTypeAuth) }
func IsUpstreamError(err error) bool       { return isType(err, ErrorTypeUpstream) }
func IsInfrastructureError(err error) bool { return isType(err, ErrorTypeInfrastructure) }
func IsMisuseError(err error) bool         { return isType(err, ErrorTypeMisuse) }

// StatusCode maps an error to the HTTP status handlers should emit.
// Unclassified errors are treated as internal.
func StatusCode(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
