// Package errors defines the service error taxonomy shared across the
// access layer. Every failure surfaced to a client carries a stable code
// and an HTTP status; the underlying cause stays attached for logging.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a failure class.
type ErrorCode string

const (
	CodeInvalidCredential ErrorCode = "AUTH_INVALID_CREDENTIAL"
	CodeAlreadyExists     ErrorCode = "AUTH_ALREADY_EXISTS"
	CodeAuthNetwork       ErrorCode = "AUTH_NETWORK"
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"

	CodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	CodeStoreDenied      ErrorCode = "STORE_DENIED"

	CodeWalletNotFound ErrorCode = "WALLET_NOT_FOUND"
	CodeWalletRejected ErrorCode = "WALLET_REJECTED"

	CodeLedgerRejected ErrorCode = "LEDGER_REJECTED"
	CodeLedgerTimeout  ErrorCode = "LEDGER_TIMEOUT"

	CodeNotAllowed   ErrorCode = "NOT_ALLOWED"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeInternal     ErrorCode = "INTERNAL"
)

// ServiceError is a classified error with an HTTP mapping.
type ServiceError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails attaches a detail key/value pair and returns the error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code ErrorCode, message string, status int, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// InvalidCredential reports a rejected email/secret pair.
func InvalidCredential(message string) *ServiceError {
	if message == "" {
		message = "invalid email or secret"
	}
	return newError(CodeInvalidCredential, message, http.StatusUnauthorized, nil)
}

// AlreadyExists reports a signup for an email that is already registered.
func AlreadyExists(email string) *ServiceError {
	return newError(CodeAlreadyExists, "account already exists", http.StatusConflict, nil).
		WithDetails("email", email)
}

// AuthNetwork reports an identity provider failure.
func AuthNetwork(err error) *ServiceError {
	return newError(CodeAuthNetwork, "identity provider unavailable", http.StatusBadGateway, err)
}

// Unauthorized reports a missing or invalid session token.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "authentication required"
	}
	return newError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// StoreUnavailable reports an unreachable record store.
func StoreUnavailable(err error) *ServiceError {
	return newError(CodeStoreUnavailable, "record store unavailable", http.StatusBadGateway, err)
}

// StoreDenied reports a record store permission failure.
func StoreDenied(err error) *ServiceError {
	return newError(CodeStoreDenied, "record store denied the request", http.StatusBadGateway, err)
}

// WalletNotFound reports an absent wallet provider.
func WalletNotFound() *ServiceError {
	return newError(CodeWalletNotFound, "wallet provider not found", http.StatusPaymentRequired, nil)
}

// WalletRejected reports a wallet connection refused by the user or provider.
func WalletRejected(err error) *ServiceError {
	return newError(CodeWalletRejected, "wallet connection rejected", http.StatusPaymentRequired, err)
}

// LedgerRejected reports an instruction the ledger refused.
func LedgerRejected(err error) *ServiceError {
	return newError(CodeLedgerRejected, "ledger rejected the instruction", http.StatusPaymentRequired, err)
}

// LedgerTimeout reports an instruction that was never confirmed in time.
func LedgerTimeout(err error) *ServiceError {
	return newError(CodeLedgerTimeout, "timed out awaiting ledger confirmation", http.StatusPaymentRequired, err)
}

// NotAllowed reports an action unavailable in the current access state.
func NotAllowed(message string) *ServiceError {
	return newError(CodeNotAllowed, message, http.StatusConflict, nil)
}

// InvalidInput reports a malformed request.
func InvalidInput(message string) *ServiceError {
	return newError(CodeInvalidInput, message, http.StatusBadRequest, nil)
}

// Internal reports an unclassified failure.
func Internal(message string, err error) *ServiceError {
	if message == "" {
		message = "internal error"
	}
	return newError(CodeInternal, message, http.StatusInternalServerError, err)
}

// GetServiceError extracts a ServiceError from an error chain, or nil.
func GetServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code ErrorCode) bool {
	svcErr := GetServiceError(err)
	return svcErr != nil && svcErr.Code == code
}
