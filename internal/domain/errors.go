package domain

import (
	"fmt"
	"net/http"

	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
)

// Error codes specific to the booking domain.
const (
	CodeDuplicateEmail         = "DUPLICATE_EMAIL"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeTokenInvalid           = "TOKEN_INVALID"
	CodeTokenExpired           = "TOKEN_EXPIRED"
	CodeWrongTokenType         = "WRONG_TOKEN_TYPE"
	CodeAccountNotFound        = "ACCOUNT_NOT_FOUND"
	CodeSlotUnavailable        = "SLOT_UNAVAILABLE"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeUploadFailed           = "UPLOAD_FAILED"
)

// ErrDuplicateEmail is returned when an email is already registered.
func ErrDuplicateEmail(email string) *apperrors.AppError {
	return apperrors.New(CodeDuplicateEmail, fmt.Sprintf("email %s is already registered", email), http.StatusBadRequest, apperrors.ErrAlreadyExists)
}

// ErrInvalidCredentials does not say which half of the pair was wrong.
func ErrInvalidCredentials() *apperrors.AppError {
	return apperrors.New(CodeInvalidCredentials, "invalid email or password", http.StatusUnauthorized, apperrors.ErrUnauthorized)
}

func ErrTokenInvalid() *apperrors.AppError {
	return apperrors.New(CodeTokenInvalid, "invalid token", http.StatusUnauthorized, apperrors.ErrUnauthorized)
}

func ErrTokenExpired() *apperrors.AppError {
	return apperrors.New(CodeTokenExpired, "token has expired", http.StatusUnauthorized, apperrors.ErrUnauthorized)
}

func ErrWrongTokenType() *apperrors.AppError {
	return apperrors.New(CodeWrongTokenType, "access token required", http.StatusUnauthorized, apperrors.ErrUnauthorized)
}

// ErrForbidden is returned when the caller's role is not allowed.
func ErrForbidden(role Role) *apperrors.AppError {
	return apperrors.Forbidden(fmt.Sprintf("role %s may not access this resource", role))
}

func ErrAccountNotFound() *apperrors.AppError {
	return apperrors.New(CodeAccountNotFound, "account not found", http.StatusNotFound, apperrors.ErrNotFound)
}

// ErrSlotUnavailable is returned when the doctor already has an active
// appointment at the requested date and time.
func ErrSlotUnavailable(date, clock string) *apperrors.AppError {
	return apperrors.New(CodeSlotUnavailable, fmt.Sprintf("slot %s %s is already booked", date, clock), http.StatusBadRequest, apperrors.ErrConflict)
}

// ErrInvalidStateTransition is returned when cancel or complete targets an
// appointment that is no longer BOOKED.
func ErrInvalidStateTransition(from, to Status) *apperrors.AppError {
	return apperrors.New(CodeInvalidStateTransition, fmt.Sprintf("cannot move appointment from %s to %s", from, to), http.StatusConflict, apperrors.ErrConflict)
}

// ErrUploadFailed hides storage errors behind a 502.
func ErrUploadFailed(err error) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    CodeUploadFailed,
		Message: "file upload failed",
		Status:  http.StatusBadGateway,
		Err:     fmt.Errorf("%w: %w", apperrors.ErrUpstream, err),
	}
}

func ErrInvalidGender(s string) *apperrors.AppError {
	return apperrors.InvalidInput(fmt.Sprintf("invalid gender %q: must be MALE, FEMALE or OTHER", s))
}

func ErrInvalidFileType(s string) *apperrors.AppError {
	return apperrors.InvalidInput(fmt.Sprintf("invalid file_type %q: must be IMAGE, PDF or OTHER", s))
}
