// Package apperror defines the error taxonomy shared by the admin API.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation         Code = "VALIDATION"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvalidAmount      Code = "INVALID_AMOUNT"
	CodeRefundNotConfirmed Code = "REFUND_NOT_CONFIRMED"
	CodeConflict           Code = "CONFLICT"
	CodeGateway            Code = "GATEWAY_ERROR"
	CodeInternal           Code = "INTERNAL"
)

// Error is a classified failure carrying the HTTP status it should surface with.
type Error struct {
	Code    Code
	Status  int
	Message string

	// UpstreamStatus is the status reported by an external system, if any.
	UpstreamStatus int
	// Details is a raw diagnostic payload for operators.
	Details interface{}

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so callers can write errors.Is(err, apperror.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation         = &Error{Code: CodeValidation}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrInvalidAmount      = &Error{Code: CodeInvalidAmount}
	ErrRefundNotConfirmed = &Error{Code: CodeRefundNotConfirmed}
	ErrConflict           = &Error{Code: CodeConflict}
	ErrGateway            = &Error{Code: CodeGateway}
)

func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: message}
}

func InvalidAmount(amount float64) *Error {
	return &Error{
		Code:    CodeInvalidAmount,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("computed refund amount %.2f is not positive", amount),
	}
}

// RefundNotConfirmed reports that the gateway never reached SUCCESS within the
// poll budget. lastStatus is echoed back so the caller can decide to retry.
func RefundNotConfirmed(lastStatus string, details interface{}) *Error {
	return &Error{
		Code:    CodeRefundNotConfirmed,
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("refund not confirmed by gateway (last status %s)", lastStatus),
		Details: details,
	}
}

func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Status: http.StatusConflict, Message: message}
}

// Gateway wraps an upstream payment failure. status is the HTTP status to
// surface; 0 falls back to 500.
func Gateway(status int, message string, details interface{}, err error) *Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &Error{
		Code:           CodeGateway,
		Status:         status,
		Message:        message,
		UpstreamStatus: status,
		Details:        details,
		Err:            err,
	}
}

func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "internal error", Err: err}
}

// From extracts the classified error from err's chain, classifying anything
// unknown as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
