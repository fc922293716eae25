package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("ledger: not found")
	ErrAlreadyExists = errors.New("ledger: already exists")
	ErrInvalidInput  = errors.New("ledger: invalid input")

	// Customer errors
	ErrCustomerNotFound = errors.New("ledger: customer not found")
	ErrCustomerExists   = errors.New("ledger: customer already exists")
	ErrCustomerInactive = errors.New("ledger: customer is not active")

	// Billing errors
	ErrBillingNotFound    = errors.New("ledger: billing record not found")
	ErrBillingClosed      = errors.New("ledger: billing cycle is closed")
	ErrInvalidTransition  = errors.New("ledger: invalid billing status transition")
	ErrMissingInvoiceRef  = errors.New("ledger: billing record has no invoice reference")
	ErrBrokenNoteChain    = errors.New("ledger: adjustment note chain is broken")
	ErrAdjustmentNotFound = errors.New("ledger: adjustment note not found")

	// Invoice errors
	ErrInvoiceNotFound = errors.New("ledger: invoice not found")
	ErrInvoiceExists   = errors.New("ledger: invoice already exists for billing cycle")

	// Payment errors
	ErrPaymentNotFound = errors.New("ledger: payment not found")
	ErrPaymentClosed   = errors.New("ledger: payment is not open")

	// Store errors
	ErrWriteConflict    = errors.New("ledger: write conflict")
	ErrStoreUnavailable = errors.New("ledger: store unavailable")
	ErrStoreClosed      = errors.New("ledger: store is closed")
	ErrMigrationFailed  = errors.New("ledger: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrBillingNotFound) ||
		errors.Is(err, ErrAdjustmentNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}

// IsWriteConflict returns true if the error is a storage write conflict.
// Such errors are retried by the transactional executor; everything
// else propagates on first occurrence.
func IsWriteConflict(err error) bool {
	return errors.Is(err, ErrWriteConflict)
}

// IsValidation returns true if the error is an input validation failure.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidInput)
}
