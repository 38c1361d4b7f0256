package apperror

import (
	"errors"
	"net/http"
)

type Error struct {
	Code       string
	Message    string
	StatusCode int
	Internal   error

	// Violations carries the full list of validation failures for
	// validation_failed errors. Empty for every other code.
	Violations []string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Internal
}

var (
	ErrValidation = &Error{
		Code:       "validation_failed",
		Message:    "The supplied options are invalid",
		StatusCode: http.StatusBadRequest,
	}

	ErrBusy = &Error{
		Code:       "busy",
		Message:    "Another upload is already in progress. Please try again",
		StatusCode: http.StatusConflict,
	}

	ErrTransport = &Error{
		Code:       "transport_error",
		Message:    "The file could not be transferred. Please try again",
		StatusCode: http.StatusBadGateway,
	}

	ErrTransform = &Error{
		Code:       "transform_failed",
		Message:    "The image could not be processed",
		StatusCode: http.StatusUnprocessableEntity,
	}

	ErrNotFound = &Error{
		Code:       "not_found",
		Message:    "The requested file was not found",
		StatusCode: http.StatusNotFound,
	}

	ErrFileTooLarge = &Error{
		Code:       "file_too_large",
		Message:    "The uploaded file exceeds the maximum allowed size",
		StatusCode: http.StatusRequestEntityTooLarge,
	}

	ErrInvalidFileType = &Error{
		Code:       "invalid_file_type",
		Message:    "This file type is not supported",
		StatusCode: http.StatusBadRequest,
	}

	ErrBadRequest = &Error{
		Code:       "bad_request",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	ErrInternal = &Error{
		Code:       "internal_error",
		Message:    "An unexpected error occurred. Please try again later",
		StatusCode: http.StatusInternalServerError,
	}
)

func New(code, message string, statusCode int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Wrap(err error, appErr *Error) *Error {
	return &Error{
		Code:       appErr.Code,
		Message:    appErr.Message,
		StatusCode: appErr.StatusCode,
		Internal:   err,
	}
}

func WrapWithMessage(err error, code, message string, statusCode int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

// Validation builds a validation_failed error carrying every collected
// violation, so callers can render the complete list rather than the first
// failure encountered.
func Validation(violations []string) *Error {
	msg := ErrValidation.Message
	if len(violations) > 0 {
		msg = violations[0]
	}
	return &Error{
		Code:       ErrValidation.Code,
		Message:    msg,
		StatusCode: ErrValidation.StatusCode,
		Violations: violations,
	}
}

func Is(err error, target *Error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

func StatusCode(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func SafeMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ErrInternal.Message
}

func Code(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal.Code
}

func ViolationsOf(err error) []string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Violations
	}
	return nil
}
