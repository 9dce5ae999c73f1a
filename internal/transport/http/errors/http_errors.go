package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/ASK10520/codeplay-spark/internal/pkg/apperr"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type RateLimitError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Status returns the HTTP status an error is reported with.
func Status(err error) int {
	appErr, ok := apperr.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAlreadyReviewed, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	case apperr.KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError maps a service error onto the JSON error envelope. Internal
// details never reach the client.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !stderrors.As(err, &appErr) {
		Write(w, http.StatusInternalServerError, APIError{Code: "INTERNAL_ERROR", Message: "something went wrong, please try again"})
		return
	}

	status := Status(err)
	switch appErr.Kind {
	case apperr.KindValidation:
		Write(w, status, ValidationError{Code: "VALIDATION_ERROR", Message: "invalid request", Fields: appErr.Fields})
	case apperr.KindNotFound:
		Write(w, status, APIError{Code: "NOT_FOUND", Message: messageOr(appErr, "resource not found")})
	case apperr.KindAlreadyReviewed:
		Write(w, status, APIError{Code: "ALREADY_REVIEWED", Message: "this submission was already processed, please refresh"})
	case apperr.KindConflict:
		Write(w, status, APIError{Code: "CONFLICT", Message: messageOr(appErr, "request conflicts with current state")})
	case apperr.KindForbidden:
		Write(w, status, APIError{Code: "FORBIDDEN", Message: messageOr(appErr, "access denied")})
	case apperr.KindRateLimited:
		retryAfter := appErr.RetryAfterSec
		if retryAfter <= 0 {
			retryAfter = 1
		}
		Write(w, status, RateLimitError{Code: "RATE_LIMITED", Message: "too many requests, please slow down", RetryAfterSec: retryAfter})
	case apperr.KindStorage:
		Write(w, status, APIError{Code: "STORAGE_UNAVAILABLE", Message: "file storage is unavailable, please try again"})
	default:
		Write(w, status, APIError{Code: "INTERNAL_ERROR", Message: "something went wrong, please try again"})
	}
}

func messageOr(appErr *apperr.Error, fallback string) string {
	if appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
