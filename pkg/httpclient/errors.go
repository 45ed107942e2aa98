package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/tanzil-def/Doctor-Appointment-Backend/pkg/errors"
)

// upstreamError is the error shape common to JSON media APIs:
// {"error":{"message":"..."}}.
type upstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes a non-2xx response and converts it
// to an AppError. Rejections caused by the payload map to INVALID_INPUT;
// everything else is an upstream failure.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	message := string(body)
	var parsed upstreamError
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}
	detail := fmt.Errorf("%s returned %d: %s", upstream, resp.StatusCode, message)

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return &apperrors.AppError{
			Code:    "INVALID_INPUT",
			Message: fmt.Sprintf("%s rejected the file: %s", upstream, message),
			Status:  http.StatusBadRequest,
			Err:     fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, detail),
		}
	case http.StatusServiceUnavailable:
		return &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: upstream + " is unavailable",
			Status:  http.StatusServiceUnavailable,
			Err:     fmt.Errorf("%w: %w", apperrors.ErrServiceUnavail, detail),
		}
	default:
		return fmt.Errorf("%w: %w", apperrors.ErrUpstream, detail)
	}
}
