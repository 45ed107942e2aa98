package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by every layer. Domain constructors wrap one of these
// so callers can branch with errors.Is without knowing the concrete code.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrUpstream       = errors.New("upstream failure")
)

// AppError is an error with a public code and message and the HTTP status it
// renders as. Err is for logs only.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError wrapping sentinel.
func New(code, message string, status int, sentinel error) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

func NotFound(resource, id string) *AppError {
	return New("NOT_FOUND", fmt.Sprintf("%s with id %s not found", resource, id), http.StatusNotFound, ErrNotFound)
}

func AlreadyExists(resource, field, value string) *AppError {
	return New("ALREADY_EXISTS", fmt.Sprintf("%s with %s %q already exists", resource, field, value), http.StatusConflict, ErrAlreadyExists)
}

func InvalidInput(message string) *AppError {
	return New("INVALID_INPUT", message, http.StatusBadRequest, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return New("UNAUTHORIZED", message, http.StatusUnauthorized, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return New("FORBIDDEN", message, http.StatusForbidden, ErrForbidden)
}

func Conflict(message string) *AppError {
	return New("CONFLICT", message, http.StatusConflict, ErrConflict)
}

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	return New("INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError, cause)
}

// Wrap adds context to err, keeping it matchable with errors.Is.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

type class struct {
	sentinel error
	code     string
	status   int
	message  string
}

// classes maps bare sentinels to what a client sees. Order matters only for
// errors wrapping several sentinels; the first match wins.
var classes = []class{
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound, "resource not found"},
	{ErrAlreadyExists, "ALREADY_EXISTS", http.StatusConflict, "resource already exists"},
	{ErrConflict, "CONFLICT", http.StatusConflict, "conflicting state"},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, ""},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, "unauthorized"},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden, "forbidden"},
	{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service unavailable"},
	{ErrUpstream, "UPSTREAM_ERROR", http.StatusBadGateway, "upstream failure"},
}

// Classify returns the public code, status and message for err. An AppError
// anywhere in the chain wins; otherwise the first matching sentinel decides.
// Unknown errors are INTERNAL_ERROR with their detail hidden. INVALID_INPUT
// sentinels keep err's own text since it describes the caller's mistake.
func Classify(err error) (code string, status int, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Status, appErr.Message
	}
	for _, c := range classes {
		if errors.Is(err, c.sentinel) {
			if c.message == "" {
				return c.code, c.status, err.Error()
			}
			return c.code, c.status, c.message
		}
	}
	return "INTERNAL_ERROR", http.StatusInternalServerError, "an internal error occurred"
}

// HTTPStatus is the status half of Classify.
func HTTPStatus(err error) int {
	_, status, _ := Classify(err)
	return status
}
