package domain

import "fmt"

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Domain validation errors
const (
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeInvalidPhone        = "INVALID_PHONE"
	ErrCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeTransactionNotFound = "TRANSACTION_NOT_FOUND"
	ErrCodeNotRetryable        = "NOT_RETRYABLE"
	ErrCodeRetryExhausted      = "RETRY_EXHAUSTED"
)

func NewInvalidTransitionError(from, to TransactionStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func NewInvalidPhoneError(phone string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidPhone,
		Message: fmt.Sprintf("phone number %q is not a supported mobile number", phone),
	}
}

func NewInvalidAmountError(amount int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("amount %d is outside the allowed range [%d, %d]", amount, MinPayoutAmount, MaxPayoutAmount),
	}
}

func NewMissingFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewNotRetryableError(status TransactionStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotRetryable,
		Message: fmt.Sprintf("only FAILED transactions can be retried, current status is %s", status),
	}
}

func NewRetryExhaustedError(attempts int) *DomainError {
	return &DomainError{
		Code:    ErrCodeRetryExhausted,
		Message: fmt.Sprintf("retry limit reached after %d attempts", attempts),
	}
}

// IsErrorCode reports whether err is a DomainError carrying the given code.
func IsErrorCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*DomainError); ok {
		return de.Code == code
	}
	return false
}
