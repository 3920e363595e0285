package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound         = errors.New("loan not found")
	ErrGroupNotFound        = errors.New("thrift group not found")
	ErrMembershipNotFound   = errors.New("thrift membership not found")
	ErrContributionNotFound = errors.New("thrift contribution not found")
	ErrPayoutNotFound       = errors.New("thrift payout not found")
	ErrValidation           = errors.New("validation failed")
	ErrInvalidLoanTerm      = errors.New("repayment period must be greater than zero")
	ErrInvalidLoanState     = errors.New("loan is not in a repayable state")
	ErrInvalidState         = errors.New("operation not allowed in current state")
	ErrDuplicateTransaction = errors.New("duplicate transaction reference")
	ErrSignatureInvalid     = errors.New("webhook signature invalid")
	ErrNoEligibleMember     = errors.New("group has no active members eligible for payout")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeLoanNotFound         = "LOAN_NOT_FOUND"
	ErrCodeGroupNotFound        = "GROUP_NOT_FOUND"
	ErrCodeMembershipNotFound   = "MEMBERSHIP_NOT_FOUND"
	ErrCodeContributionNotFound = "CONTRIBUTION_NOT_FOUND"
	ErrCodePayoutNotFound       = "PAYOUT_NOT_FOUND"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeInvalidLoanTerm      = "INVALID_LOAN_TERM"
	ErrCodeInvalidLoanState     = "INVALID_LOAN_STATE"
	ErrCodeInvalidState         = "INVALID_STATE"
	ErrCodeDuplicateTransaction = "DUPLICATE_TRANSACTION"
	ErrCodeSignatureInvalid     = "SIGNATURE_INVALID"
	ErrCodeNoEligibleMember     = "NO_ELIGIBLE_MEMBER"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
	ErrCodeCacheError           = "CACHE_ERROR"
)

// Wrap common errors with business context

func WrapLoanNotFound(reference string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan %s not found", reference),
		ErrLoanNotFound,
	)
}

func WrapGroupNotFound(groupID string) *BusinessError {
	return NewBusinessError(
		ErrCodeGroupNotFound,
		fmt.Sprintf("Thrift group %s not found", groupID),
		ErrGroupNotFound,
	)
}

func WrapValidation(message string) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, ErrValidation)
}

func WrapInvalidLoanTerm(months int) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanTerm,
		fmt.Sprintf("Invalid repayment period: %d months", months),
		ErrInvalidLoanTerm,
	)
}

func WrapInvalidLoanState(reference, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanState,
		fmt.Sprintf("Loan %s cannot accept repayments in status %s", reference, status),
		ErrInvalidLoanState,
	)
}

func WrapInvalidState(message string) *BusinessError {
	return NewBusinessError(ErrCodeInvalidState, message, ErrInvalidState)
}

func WrapDuplicateTransaction(reference string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateTransaction,
		fmt.Sprintf("Transaction %s has already been processed", reference),
		ErrDuplicateTransaction,
	)
}

func WrapSignatureInvalid() *BusinessError {
	return NewBusinessError(
		ErrCodeSignatureInvalid,
		"Webhook signature verification failed",
		ErrSignatureInvalid,
	)
}

func WrapNoEligibleMember(groupID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNoEligibleMember,
		fmt.Sprintf("Thrift group %s has no active members", groupID),
		ErrNoEligibleMember,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
