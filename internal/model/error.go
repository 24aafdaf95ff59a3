package model

import (
	"errors"
	"fmt"
)

// Error codes reported in diagnostics.
const (
	ErrCodeRegistrationFailed    = "REGISTRATION_FAILED"
	ErrCodeAuthFailed            = "AUTH_FAILED"
	ErrCodeCatalogWriteFailed    = "CATALOG_WRITE_FAILED"
	ErrCodeOrderSubmissionFailed = "ORDER_SUBMISSION_FAILED"
	ErrCodeRateLimited           = "RATE_LIMITED"
)

// DomainError is a coded error.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// ErrRateLimited is returned for a single 429 response. It never leaves the
// gateway: it is either retried away or wrapped in an OrderSubmissionError.
var ErrRateLimited = NewDomainError(ErrCodeRateLimited, "rate limited by upstream")

// RegistrationError reports a non-success response from the register endpoint.
type RegistrationError struct {
	Email      string
	StatusCode int
	Body       string
	Err        error
}

func (e *RegistrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("register %s failed: %v", e.Email, e.Err)
	}
	return fmt.Sprintf("register %s failed: status=%d body=%s", e.Email, e.StatusCode, e.Body)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// Code returns the diagnostic code.
func (e *RegistrationError) Code() string { return ErrCodeRegistrationFailed }

// AuthError reports a failed admin login.
type AuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("admin login failed: %v", e.Err)
	}
	return fmt.Sprintf("admin login failed: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Code returns the diagnostic code.
func (e *AuthError) Code() string { return ErrCodeAuthFailed }

// CatalogWriteError reports a failed statement in the catalog batch. The batch
// transaction is rolled back whenever this error is produced.
type CatalogWriteError struct {
	Op    string
	Index int
	Err   error
}

func (e *CatalogWriteError) Error() string {
	return fmt.Sprintf("catalog %s failed at index %d: %v", e.Op, e.Index, e.Err)
}

func (e *CatalogWriteError) Unwrap() error { return e.Err }

// Code returns the diagnostic code.
func (e *CatalogWriteError) Code() string { return ErrCodeCatalogWriteFailed }

// OrderSubmissionError is the terminal failure of an order submission.
type OrderSubmissionError struct {
	IdempotencyKey string
	StatusCode     int
	Body           string
	Attempts       int
	Err            error
}

func (e *OrderSubmissionError) Error() string {
	msg := fmt.Sprintf("order %s failed after %d attempt(s)", e.IdempotencyKey, e.Attempts)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status=%d body=%s", e.StatusCode, e.Body)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *OrderSubmissionError) Unwrap() error { return e.Err }

// Code returns the diagnostic code.
func (e *OrderSubmissionError) Code() string { return ErrCodeOrderSubmissionFailed }

// StageError is the terminal error of a run. It names the failing stage and
// entity index and carries the remote side effects that were not undone.
type StageError struct {
	Stage           string
	Index           int
	Err             error
	RegisteredUsers int
	PlacedOrders    int
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("stage %s failed", e.Stage)
	if e.Index >= 0 {
		msg += fmt.Sprintf(" at index %d", e.Index)
	}
	msg += fmt.Sprintf(": %v", e.Err)
	if e.RegisteredUsers > 0 || e.PlacedOrders > 0 {
		msg += fmt.Sprintf(
			" (not rolled back remotely: %d registered user(s), %d placed order(s))",
			e.RegisteredUsers, e.PlacedOrders,
		)
	}
	return msg
}

func (e *StageError) Unwrap() error { return e.Err }

// ErrorCode extracts the diagnostic code from err, if any.
func ErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	var domain *DomainError
	if errors.As(err, &domain) {
		return domain.Code
	}
	return ""
}
